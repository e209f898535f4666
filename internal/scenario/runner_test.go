package scenario

import (
	"strings"
	"testing"
	"time"

	"wfmassist/internal/app"
	"wfmassist/internal/domain"
)

func countKind(report Report, kind domain.MessageKind) int {
	count := 0
	for _, entry := range report.Entries {
		if entry.Message.Kind == kind {
			count++
		}
	}
	return count
}

func TestBuiltinScenariosReplay(t *testing.T) {
	t.Parallel()

	for _, name := range Names() {
		name := name
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			report, err := RunNamed(name, app.Options{})
			if err != nil {
				t.Fatalf("run %s: %v", name, err)
			}
			if len(report.Entries) == 0 || report.Entries[0].Message.Kind != domain.KindWelcome {
				t.Fatalf("expected transcript to start with welcome, got %+v", report.Entries)
			}
			for i, entry := range report.Entries {
				if entry.Message.Seq != i+1 {
					t.Fatalf("expected dense sequence, entry %d has seq %d", i, entry.Message.Seq)
				}
			}
		})
	}
}

func TestBillingSpikeScenario(t *testing.T) {
	t.Parallel()

	report, err := RunNamed("billing-spike", app.Options{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(report.Entries) != 2 {
		t.Fatalf("expected welcome and one alert, got %d entries", len(report.Entries))
	}
	alert := report.Entries[1]
	if alert.Message.Kind != domain.AlertMessageKind(domain.AlertBillingSpike) || alert.Offset != 2*time.Second {
		t.Fatalf("expected billing spike at 2s, got %q at %s", alert.Message.Kind, alert.Offset)
	}
	if len(alert.Message.Actions) != 4 {
		t.Fatalf("expected 4 actions, got %d", len(alert.Message.Actions))
	}
	if report.Final.State.Alerts.BillingSpike || !report.Final.Alert.Waiting {
		t.Fatalf("expected flag cleared and waiting, got %+v", report.Final)
	}
}

func TestAIBoostScenarioFiresOnceWhileWaiting(t *testing.T) {
	t.Parallel()

	report, err := RunNamed("ai-boost", app.Options{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := countKind(report, domain.AlertMessageKind(domain.AlertAIPerformance)); got != 1 {
		t.Fatalf("expected one ai alert, got %d", got)
	}
	if report.Final.State.Volumes.AIHandling != 50 {
		t.Fatalf("expected ai handling clamped at 50, got %d", report.Final.State.Volumes.AIHandling)
	}
}

func TestRetentionProtocolScenario(t *testing.T) {
	t.Parallel()

	report, err := RunNamed("retention-protocol", app.Options{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(report.Entries) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(report.Entries))
	}
	echo, confirmation := report.Entries[2], report.Entries[3]
	if echo.Message.Text != "✅ Start Retention Protocol" || echo.Offset != 2500*time.Millisecond {
		t.Fatalf("unexpected echo %+v", echo)
	}
	if echo.Message.ReplyTo != report.Entries[1].Message.ID {
		t.Fatalf("expected echo to reference alert %q, got %q", report.Entries[1].Message.ID, echo.Message.ReplyTo)
	}
	if confirmation.Offset != 4*time.Second || !strings.Contains(confirmation.Message.Text, "Retention Protocol Activated") {
		t.Fatalf("unexpected confirmation %+v", confirmation)
	}
	if report.Final.Alert.Waiting {
		t.Fatalf("expected waiting cleared after confirmation")
	}
}

func TestFreeTextScenario(t *testing.T) {
	t.Parallel()

	report, err := RunNamed("free-text", app.Options{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(report.Entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(report.Entries))
	}
	reply := report.Entries[2]
	if reply.Offset != 2*time.Second || !strings.Contains(reply.Message.Text, "cancel my plan") {
		t.Fatalf("unexpected reply %+v", reply)
	}
}

func TestTourScenarioFiresEveryAlertAndResets(t *testing.T) {
	t.Parallel()

	report, err := RunNamed("tour", app.Options{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, kind := range domain.AlertKinds() {
		if got := countKind(report, domain.AlertMessageKind(kind)); got != 1 {
			t.Fatalf("expected one %s alert, got %d", kind, got)
		}
	}
	if got := countKind(report, domain.KindConfirmation); got != 4 {
		t.Fatalf("expected 4 confirmations, got %d", got)
	}
	if report.Final.State.ServiceLevels.Billing != 85 || len(report.Final.Pending) != 0 {
		t.Fatalf("expected baseline with no timers, got %+v", report.Final)
	}
	if report.Duration != 36*time.Second {
		t.Fatalf("expected 36s duration, got %s", report.Duration)
	}
}

func TestRunNamedRejectsUnknownScenario(t *testing.T) {
	t.Parallel()

	if _, err := RunNamed("moonwalk", app.Options{}); err == nil {
		t.Fatalf("expected unknown scenario error")
	}
}

func TestLookupReturnsDetachedSteps(t *testing.T) {
	t.Parallel()

	first, ok := Lookup("tour")
	if !ok {
		t.Fatalf("expected tour scenario")
	}
	first.Steps[0].At = time.Hour
	second, _ := Lookup("tour")
	if second.Steps[0].At != 0 {
		t.Fatalf("expected builtin steps unchanged")
	}
	if second.Duration() != 36*time.Second {
		t.Fatalf("expected 36s duration, got %s", second.Duration())
	}
}
