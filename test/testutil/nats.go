package testutil

import (
	"net"
	"os/exec"
	"strconv"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
)

// NATSServer is one nats-server child process owned by a test.
// Params: client URL and process handle.
// Returns: stoppable integration dependency.
type NATSServer struct {
	URL      string
	cmd      *exec.Cmd
	stopOnce sync.Once
}

// FreePort reserves a local TCP port and returns it to the caller.
// Params: none.
// Returns: free port number or error.
func FreePort() (int, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	defer listener.Close()
	return listener.Addr().(*net.TCPAddr).Port, nil
}

// StartNATSServer starts a local nats-server and stops it on test cleanup.
// The test is skipped when nats-server is not installed.
// Params: test handle and JetStream switch.
// Returns: running server.
func StartNATSServer(tb testing.TB, jetstream bool) *NATSServer {
	tb.Helper()

	binary, err := exec.LookPath("nats-server")
	if err != nil {
		tb.Skipf("nats-server is required for integration test: %v", err)
	}
	port, err := FreePort()
	if err != nil {
		tb.Fatalf("free port: %v", err)
	}

	args := []string{"-a", "127.0.0.1", "-p", strconv.Itoa(port)}
	if jetstream {
		args = append(args, "-js", "-sd", tb.TempDir())
	}
	cmd := exec.Command(binary, args...)
	if err := cmd.Start(); err != nil {
		tb.Skipf("start nats-server: %v", err)
	}

	server := &NATSServer{URL: "nats://127.0.0.1:" + strconv.Itoa(port), cmd: cmd}
	tb.Cleanup(server.Stop)
	WaitForNATSReady(tb, server.URL, 8*time.Second)
	return server
}

// Stop terminates the server process, killing it after a grace period.
// Params: none.
// Returns: none.
func (s *NATSServer) Stop() {
	s.stopOnce.Do(func() {
		if s.cmd == nil || s.cmd.Process == nil {
			return
		}
		_ = s.cmd.Process.Signal(syscall.SIGTERM)
		done := make(chan struct{})
		go func() {
			_, _ = s.cmd.Process.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			_ = s.cmd.Process.Kill()
			<-done
		}
	})
}

// WaitForNATSReady waits until a NATS endpoint accepts connections.
// Params: test handle, nats URL, and timeout.
// Returns: endpoint is reachable or test fails.
func WaitForNATSReady(tb testing.TB, url string, timeout time.Duration) {
	tb.Helper()

	Eventually(tb, timeout, func() bool {
		nc, err := nats.Connect(url)
		if err != nil {
			return false
		}
		nc.Close()
		return true
	}, "nats did not become ready at %s", url)
}

// Eventually polls cond until it holds or timeout elapses.
// Params: test handle, timeout, condition, and failure message.
// Returns: condition held or test fails.
func Eventually(tb testing.TB, timeout time.Duration, cond func() bool, format string, args ...any) {
	tb.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	tb.Fatalf(format, args...)
}
