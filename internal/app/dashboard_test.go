package app

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"wfmassist/internal/clock"
	"wfmassist/internal/conversation"
	"wfmassist/internal/domain"
	"wfmassist/internal/logging"
)

func newTestDashboard(t *testing.T) (*Dashboard, *clock.Manual) {
	t.Helper()
	clk := clock.NewManual(time.Date(2025, 1, 1, 11, 30, 0, 0, time.UTC))
	counter := 0
	d := NewDashboard(Options{
		Clock:  clk,
		Logger: logging.Discard(),
		NewID: func() string {
			counter++
			return fmt.Sprintf("m-%d", counter)
		},
	})
	t.Cleanup(d.Close)
	return d, clk
}

func lastMessage(t *testing.T, d *Dashboard) domain.Message {
	t.Helper()
	transcript := d.Transcript()
	if len(transcript) == 0 {
		t.Fatalf("expected non-empty transcript")
	}
	return transcript[len(transcript)-1]
}

func TestNewDashboardStartsWithWelcomeAndNoTimers(t *testing.T) {
	t.Parallel()

	d, _ := newTestDashboard(t)
	status := d.Snapshot()
	if status.Messages != 1 || status.Revision != 1 {
		t.Fatalf("expected welcome at revision 1, got %+v", status)
	}
	if status.State.ServiceLevels.Billing != 76 || status.State.Volumes.AIHandling != 37 {
		t.Fatalf("expected startup snapshot, got %+v", status.State)
	}
	if len(status.Pending) != 0 {
		t.Fatalf("expected no armed timers at startup, got %v", status.Pending)
	}
}

func TestBillingSpikeFiresAfterDelayAndClearsFlag(t *testing.T) {
	t.Parallel()

	d, clk := newTestDashboard(t)
	snapshot, err := d.Trigger(domain.TriggerBillingSpike)
	if err != nil {
		t.Fatalf("trigger: %v", err)
	}
	if snapshot.State.ServiceLevels.Billing != 65 || snapshot.State.Volumes.Billing != 195 || !snapshot.State.Alerts.BillingSpike {
		t.Fatalf("unexpected spike snapshot %+v", snapshot.State)
	}

	clk.Advance(1999 * time.Millisecond)
	if d.Snapshot().Messages != 1 {
		t.Fatalf("expected no alert before delay")
	}
	clk.Advance(time.Millisecond)

	alert := lastMessage(t, d)
	if alert.Kind != domain.AlertMessageKind(domain.AlertBillingSpike) || alert.Priority != domain.PriorityMedium {
		t.Fatalf("expected billing spike alert, got %+v", alert)
	}
	if len(alert.Actions) == 0 {
		t.Fatalf("expected alert actions")
	}
	status := d.Snapshot()
	if !status.Alert.Waiting || status.Alert.LastAlert != domain.AlertBillingSpike {
		t.Fatalf("expected waiting on billing spike, got %+v", status.Alert)
	}
	if status.State.Alerts.BillingSpike {
		t.Fatalf("expected billing spike flag cleared on fire")
	}
	if len(status.Pending) != 0 {
		t.Fatalf("expected no armed timers while waiting, got %v", status.Pending)
	}
}

func TestNewerSnapshotRestartsTimers(t *testing.T) {
	t.Parallel()

	d, clk := newTestDashboard(t)
	if _, err := d.Trigger(domain.TriggerBillingSpike); err != nil {
		t.Fatalf("trigger: %v", err)
	}
	clk.Advance(1500 * time.Millisecond)
	if _, err := d.Trigger(domain.TriggerPaymentFailures); err != nil {
		t.Fatalf("trigger: %v", err)
	}
	clk.Advance(1000 * time.Millisecond)
	if d.Snapshot().Messages != 1 {
		t.Fatalf("expected stale billing timer to be cancelled")
	}
	clk.Advance(1000 * time.Millisecond)
	if got := lastMessage(t, d).Kind; got != domain.AlertMessageKind(domain.AlertBillingSpike) {
		t.Fatalf("expected billing spike 2s after newest snapshot, got %q", got)
	}
}

func TestOnlyOneAlertWhileWaiting(t *testing.T) {
	t.Parallel()

	d, clk := newTestDashboard(t)
	if _, err := d.Trigger(domain.TriggerBillingSpike); err != nil {
		t.Fatalf("trigger: %v", err)
	}
	if _, err := d.Trigger(domain.TriggerChurnRisk); err != nil {
		t.Fatalf("trigger: %v", err)
	}
	if _, err := d.Trigger(domain.TriggerPaymentFailures); err != nil {
		t.Fatalf("trigger: %v", err)
	}
	clk.Advance(10 * time.Second)

	alerts := 0
	for _, message := range d.Transcript() {
		if message.Sender == domain.SenderAI && len(message.Actions) > 0 {
			alerts++
		}
	}
	if alerts != 1 {
		t.Fatalf("expected exactly one alert while waiting, got %d", alerts)
	}
	status := d.Snapshot()
	if !status.State.Alerts.ChurnRisk || !status.State.Alerts.PaymentFailures {
		t.Fatalf("expected unfired flags to stay armed, got %+v", status.State.Alerts)
	}
}

func TestActionClickResumesMonitoring(t *testing.T) {
	t.Parallel()

	d, clk := newTestDashboard(t)
	if _, err := d.Trigger(domain.TriggerBillingSpike); err != nil {
		t.Fatalf("trigger: %v", err)
	}
	if _, err := d.Trigger(domain.TriggerChurnRisk); err != nil {
		t.Fatalf("trigger: %v", err)
	}
	clk.Advance(2 * time.Second)
	alert := lastMessage(t, d)
	if alert.Kind != domain.AlertMessageKind(domain.AlertBillingSpike) {
		t.Fatalf("expected billing spike first, got %q", alert.Kind)
	}

	echo, ok := d.ClickAction(alert.Actions[0], alert.ID)
	if !ok || echo.Text != "✅ "+alert.Actions[0] || echo.ReplyTo != alert.ID {
		t.Fatalf("unexpected echo %+v", echo)
	}
	if d.Snapshot().Alert.Waiting {
		t.Fatalf("expected user click to clear waiting")
	}

	clk.Advance(1500 * time.Millisecond)
	if got := lastMessage(t, d).Kind; got != domain.KindConfirmation {
		t.Fatalf("expected confirmation, got %q", got)
	}
	clk.Advance(2500 * time.Millisecond)
	if got := lastMessage(t, d).Kind; got != domain.AlertMessageKind(domain.AlertChurn) {
		t.Fatalf("expected churn alert after confirmation, got %q", got)
	}
	if lastMessage(t, d).Priority != domain.PriorityHigh {
		t.Fatalf("expected churn alert high priority")
	}
}

func TestAIPerformanceAlertRepeatsWhileConditionHolds(t *testing.T) {
	t.Parallel()

	d, clk := newTestDashboard(t)
	if _, err := d.Trigger(domain.TriggerAIPerformanceBoost); err != nil {
		t.Fatalf("trigger: %v", err)
	}
	clk.Advance(3 * time.Second)
	alert := lastMessage(t, d)
	if alert.Kind != domain.AlertMessageKind(domain.AlertAIPerformance) {
		t.Fatalf("expected ai performance alert, got %q", alert.Kind)
	}
	if !d.SubmitText("Looks good") {
		t.Fatalf("expected text accepted")
	}
	clk.Advance(2 * time.Second)
	if got := lastMessage(t, d).Kind; got != domain.KindResponse {
		t.Fatalf("expected typed response, got %q", got)
	}
	clk.Advance(3 * time.Second)
	if got := lastMessage(t, d).Kind; got != domain.AlertMessageKind(domain.AlertAIPerformance) {
		t.Fatalf("expected ai alert to repeat while above threshold, got %q", got)
	}
}

func TestResetCancelsPendingAlerts(t *testing.T) {
	t.Parallel()

	d, clk := newTestDashboard(t)
	if _, err := d.Trigger(domain.TriggerBillingSpike); err != nil {
		t.Fatalf("trigger: %v", err)
	}
	clk.Advance(time.Second)
	snapshot, err := d.Trigger(domain.TriggerResetToNormal)
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if snapshot.State.ServiceLevels.Billing != 85 || snapshot.State.ServiceLevels.Technical != 75 {
		t.Fatalf("expected baseline snapshot, got %+v", snapshot.State)
	}
	clk.Advance(10 * time.Second)
	if d.Snapshot().Messages != 1 {
		t.Fatalf("expected no alert after reset, got %d messages", d.Snapshot().Messages)
	}
}

func TestHandleDispatchesCommands(t *testing.T) {
	t.Parallel()

	d, clk := newTestDashboard(t)
	if _, err := d.Handle(domain.Command{Type: domain.CommandSimulate, Trigger: "meteor"}); !errors.Is(err, domain.ErrUnknownTrigger) {
		t.Fatalf("expected unknown trigger, got %v", err)
	}
	accepted, err := d.Handle(domain.Command{Type: domain.CommandText, Text: "  "})
	if err != nil || accepted {
		t.Fatalf("expected blank text to be ignored, got accepted=%v err=%v", accepted, err)
	}
	accepted, err = d.Handle(domain.Command{Type: domain.CommandTogglePanel})
	if err != nil || !accepted || !d.Snapshot().PanelOpen {
		t.Fatalf("expected panel toggled open")
	}
	accepted, err = d.Handle(domain.Command{Type: domain.CommandAction, Label: "Custom Thing"})
	if err != nil || !accepted {
		t.Fatalf("expected action accepted, got %v", err)
	}
	clk.Advance(conversation.DefaultActionDelay)
	if !strings.Contains(lastMessage(t, d).Text, "Custom Thing") {
		t.Fatalf("expected fallback confirmation naming label, got %q", lastMessage(t, d).Text)
	}
}

func TestSubscribeWithHistoryStreamsLaterEvents(t *testing.T) {
	t.Parallel()

	d, clk := newTestDashboard(t)
	history, state, revision, sub := d.SubscribeWithHistory(16)
	defer sub.Close()
	if len(history) != 1 || revision != 1 || state.ServiceLevels.Billing != 76 {
		t.Fatalf("unexpected initial history=%d revision=%d", len(history), revision)
	}

	if _, err := d.Trigger(domain.TriggerBillingSpike); err != nil {
		t.Fatalf("trigger: %v", err)
	}
	clk.Advance(2 * time.Second)

	event := <-sub.C()
	if event.State == nil || event.Revision != 2 {
		t.Fatalf("expected state event at revision 2, got %+v", event)
	}
	event = <-sub.C()
	if event.Message == nil || event.Message.Kind != domain.AlertMessageKind(domain.AlertBillingSpike) {
		t.Fatalf("expected alert message event, got %+v", event)
	}
	event = <-sub.C()
	if event.State == nil || event.State.Alerts.BillingSpike {
		t.Fatalf("expected flag-clearing state event, got %+v", event)
	}
}

func TestCloseStopsTimersAndSubscribers(t *testing.T) {
	t.Parallel()

	d, clk := newTestDashboard(t)
	sub := d.Subscribe(4)
	if _, err := d.Trigger(domain.TriggerBillingSpike); err != nil {
		t.Fatalf("trigger: %v", err)
	}
	d.SubmitText("hello")
	d.Close()
	d.Close()
	clk.Advance(10 * time.Second)

	if d.Snapshot().Messages != 2 {
		t.Fatalf("expected no appends after close, got %d", d.Snapshot().Messages)
	}
	if d.SubmitText("late") {
		t.Fatalf("expected input ignored after close")
	}
	for range sub.C() {
	}
}
