package state

import (
	"math/rand"
	"testing"

	"wfmassist/internal/domain"
)

func TestApplyBillingSpikeFloorsServiceLevel(t *testing.T) {
	t.Parallel()

	limits := DefaultLimits()
	current := BaselineSnapshot()
	for i := 0; i < 10; i++ {
		current = Apply(current, domain.Transition{Op: domain.OpTriggerBillingSpike}, limits)
	}
	if current.ServiceLevels.Billing != 65 {
		t.Fatalf("expected billing SL floored at 65, got %d", current.ServiceLevels.Billing)
	}
	if current.Volumes.Billing != 250 {
		t.Fatalf("expected billing volume capped at 250, got %d", current.Volumes.Billing)
	}
	if !current.Alerts.BillingSpike {
		t.Fatalf("expected billing spike flag armed")
	}
}

func TestApplyBillingSpikeFromStartup(t *testing.T) {
	t.Parallel()

	next := Apply(StartupSnapshot(), domain.Transition{Op: domain.OpTriggerBillingSpike}, DefaultLimits())
	if next.ServiceLevels.Billing != 65 {
		t.Fatalf("expected 76-15 floored to 65, got %d", next.ServiceLevels.Billing)
	}
	if next.Volumes.Billing != 195 {
		t.Fatalf("expected billing volume 195, got %d", next.Volumes.Billing)
	}
}

func TestApplyChurnRiskAndBoostCeilings(t *testing.T) {
	t.Parallel()

	limits := DefaultLimits()
	current := StartupSnapshot()
	for i := 0; i < 5; i++ {
		current = Apply(current, domain.Transition{Op: domain.OpTriggerChurnRisk}, limits)
		current = Apply(current, domain.Transition{Op: domain.OpBoostAIHandling}, limits)
	}
	if current.Volumes.Cancellations != 200 {
		t.Fatalf("expected cancellations capped at 200, got %d", current.Volumes.Cancellations)
	}
	if current.Volumes.AIHandling != 50 {
		t.Fatalf("expected AI handling capped at 50, got %d", current.Volumes.AIHandling)
	}
	if !current.Alerts.ChurnRisk {
		t.Fatalf("expected churn risk flag armed")
	}
}

func TestApplyResetRestoresBaseline(t *testing.T) {
	t.Parallel()

	limits := DefaultLimits()
	current := StartupSnapshot()
	current = Apply(current, domain.Transition{Op: domain.OpTriggerBillingSpike}, limits)
	current = Apply(current, domain.Transition{Op: domain.OpTriggerPaymentFailures}, limits)
	current = Apply(current, domain.Transition{Op: domain.OpReset}, limits)
	if current != BaselineSnapshot() {
		t.Fatalf("expected baseline after reset, got %+v", current)
	}
	if current.ServiceLevels.Technical != 75 || current.ServiceLevels.Billing != 85 {
		t.Fatalf("unexpected baseline service levels %+v", current.ServiceLevels)
	}
}

func TestApplyClearAlertFlag(t *testing.T) {
	t.Parallel()

	limits := DefaultLimits()
	current := Apply(StartupSnapshot(), domain.Transition{Op: domain.OpTriggerPaymentFailures}, limits)
	current = Apply(current, domain.ClearAlertFlag(domain.FlagPaymentFailures), limits)
	if current.Alerts.PaymentFailures {
		t.Fatalf("expected payment failures flag cleared")
	}
}

func TestApplyClampsOutOfRangeInput(t *testing.T) {
	t.Parallel()

	broken := domain.MetricsState{
		ServiceLevels: domain.ServiceLevels{Billing: 140, CustomerSuccess: -3, Technical: 101, Sales: 50},
		Volumes:       domain.Volumes{Billing: -9, Cancellations: -1, AIHandling: 180},
	}
	next := Apply(broken, domain.ClearAlertFlag(domain.FlagChurnRisk), DefaultLimits())
	if next.ServiceLevels.Billing != 100 || next.ServiceLevels.CustomerSuccess != 0 || next.ServiceLevels.Technical != 100 {
		t.Fatalf("service levels not clamped: %+v", next.ServiceLevels)
	}
	if next.Volumes.Billing != 0 || next.Volumes.Cancellations != 0 || next.Volumes.AIHandling != 100 {
		t.Fatalf("volumes not clamped: %+v", next.Volumes)
	}
}

func TestApplyRandomSequencesStayInBounds(t *testing.T) {
	t.Parallel()

	ops := []domain.Transition{
		{Op: domain.OpTriggerBillingSpike},
		{Op: domain.OpTriggerChurnRisk},
		{Op: domain.OpBoostAIHandling},
		{Op: domain.OpTriggerPaymentFailures},
		{Op: domain.OpReset},
		domain.ClearAlertFlag(domain.FlagBillingSpike),
		domain.ClearAlertFlag(domain.FlagChurnRisk),
		domain.ClearAlertFlag(domain.FlagPaymentFailures),
	}
	limits := DefaultLimits()
	rng := rand.New(rand.NewSource(7))
	current := StartupSnapshot()
	for i := 0; i < 5000; i++ {
		current = Apply(current, ops[rng.Intn(len(ops))], limits)
		sl := current.ServiceLevels
		if sl.Billing < 65 || sl.Billing > 100 {
			t.Fatalf("billing SL out of bounds at step %d: %d", i, sl.Billing)
		}
		if current.Volumes.AIHandling < 0 || current.Volumes.AIHandling > 50 {
			t.Fatalf("AI handling out of bounds at step %d: %d", i, current.Volumes.AIHandling)
		}
		if current.Volumes.Cancellations < 0 || current.Volumes.Cancellations > 200 {
			t.Fatalf("cancellations out of bounds at step %d: %d", i, current.Volumes.Cancellations)
		}
		if current.Volumes.Billing < 0 || current.Volumes.Billing > 250 {
			t.Fatalf("billing volume out of bounds at step %d: %d", i, current.Volumes.Billing)
		}
	}
}

func TestStoreRevisionAdvancesOnEveryApply(t *testing.T) {
	t.Parallel()

	store := NewStore(DefaultLimits())
	first := store.Snapshot()
	if first.Revision != 1 {
		t.Fatalf("expected initial revision 1, got %d", first.Revision)
	}
	if first.State != StartupSnapshot() {
		t.Fatalf("expected startup snapshot, got %+v", first.State)
	}

	store.Apply(domain.Transition{Op: domain.OpBoostAIHandling})
	second := store.Apply(domain.Transition{Op: domain.OpBoostAIHandling})
	if second.Revision != 3 {
		t.Fatalf("expected revision 3, got %d", second.Revision)
	}

	unchanged := store.ApplyAll()
	if unchanged.Revision != 3 {
		t.Fatalf("expected empty ApplyAll to keep revision, got %d", unchanged.Revision)
	}
	batch := store.ApplyAll(domain.ClearAlertFlag(domain.FlagBillingSpike), domain.ClearAlertFlag(domain.FlagChurnRisk))
	if batch.Revision != 4 {
		t.Fatalf("expected one revision for batch, got %d", batch.Revision)
	}
}
