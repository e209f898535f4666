package e2e

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"wfmassist/internal/app"
	"wfmassist/internal/clock"
	"wfmassist/internal/config"
	"wfmassist/test/testutil"
)

// writeConfig writes TOML body into a temp config file.
// Params: test handle and TOML document.
// Returns: absolute config path.
func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wfmassist.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// baseConfig renders HTTP and fast monitor settings for port.
func baseConfig(port int) string {
	return fmt.Sprintf(`
[log.console]
enabled = true
level = "error"

[http]
enabled = true
listen = "127.0.0.1:%d"

[metrics]
enabled = true

[service]
typing_delay_ms = 40
action_delay_ms = 30

[monitor.delay_ms]
billing_spike = 50
ai_performance = 60
churn_alert = 55
report_generation = 70
`, port)
}

// newServiceFromConfig creates Service from file config path for e2e scenarios.
// Params: test handle and absolute config path.
// Returns: initialized service instance.
func newServiceFromConfig(t *testing.T, path string) *app.Service {
	t.Helper()

	source, err := config.FromCLI(path, "")
	if err != nil {
		t.Fatalf("config source: %v", err)
	}
	service, err := app.NewService(source, clock.RealClock{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return service
}

// runService starts service in background and stops it on test cleanup.
// Params: test handle and initialized service.
// Returns: none; cleanup asserts Run exits without error.
func runService(t *testing.T, service *app.Service) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- service.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case runErr := <-done:
			if runErr != nil {
				t.Errorf("service run error: %v", runErr)
			}
		case <-time.After(8 * time.Second):
			t.Errorf("service did not stop after cancel")
		}
	})
}

// waitReady waits for /readyz endpoint to return 200.
// Params: test handle and HTTP port.
// Returns: base URL once service is ready.
func waitReady(t *testing.T, port int) string {
	t.Helper()
	baseURL := fmt.Sprintf("http://127.0.0.1:%d", port)
	testutil.Eventually(t, 8*time.Second, func() bool {
		response, err := http.Get(baseURL + "/readyz")
		if err != nil {
			return false
		}
		defer response.Body.Close()
		return response.StatusCode == http.StatusOK
	}, "service at %s did not become ready", baseURL)
	return baseURL
}

func freePort(t *testing.T) int {
	t.Helper()
	port, err := testutil.FreePort()
	if err != nil {
		t.Fatalf("free port: %v", err)
	}
	return port
}
