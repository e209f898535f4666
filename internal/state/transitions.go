package state

import "wfmassist/internal/domain"

// Limits holds step sizes and clamps used by simulation transitions.
// Params: per-transition steps, floors, and ceilings.
// Returns: tuning applied by Apply.
type Limits struct {
	BillingSLDrop        int
	BillingSLFloor       int
	BillingVolumeRise    int
	BillingVolumeCeiling int
	CancellationsRise    int
	CancellationsCeiling int
	AIHandlingRise       int
	AIHandlingCeiling    int
	ServiceLevelMax      int
	AIHandlingPercentMax int
}

// DefaultLimits returns the stock demo tuning.
// Params: none.
// Returns: default limits.
func DefaultLimits() Limits {
	return Limits{
		BillingSLDrop:        15,
		BillingSLFloor:       65,
		BillingVolumeRise:    50,
		BillingVolumeCeiling: 250,
		CancellationsRise:    30,
		CancellationsCeiling: 200,
		AIHandlingRise:       10,
		AIHandlingCeiling:    50,
		ServiceLevelMax:      100,
		AIHandlingPercentMax: 100,
	}
}

// StartupSnapshot returns the state the dashboard boots with.
// Params: none.
// Returns: startup metrics.
func StartupSnapshot() domain.MetricsState {
	return domain.MetricsState{
		ServiceLevels: domain.ServiceLevels{Billing: 76, CustomerSuccess: 92, Technical: 68, Sales: 95},
		Volumes:       domain.Volumes{Billing: 145, Cancellations: 137, AIHandling: 37},
	}
}

// BaselineSnapshot returns the state restored by the reset transition.
// Params: none.
// Returns: baseline metrics.
func BaselineSnapshot() domain.MetricsState {
	return domain.MetricsState{
		ServiceLevels: domain.ServiceLevels{Billing: 85, CustomerSuccess: 92, Technical: 75, Sales: 95},
		Volumes:       domain.Volumes{Billing: 145, Cancellations: 137, AIHandling: 37},
	}
}

// Apply computes the next metrics state for one transition.
// Unknown operations return the clamped input unchanged.
// Params: current state, transition, and limits.
// Returns: next state inside invariant bounds.
func Apply(current domain.MetricsState, transition domain.Transition, limits Limits) domain.MetricsState {
	next := current
	switch transition.Op {
	case domain.OpTriggerBillingSpike:
		next.ServiceLevels.Billing = max(limits.BillingSLFloor, current.ServiceLevels.Billing-limits.BillingSLDrop)
		next.Volumes.Billing = min(limits.BillingVolumeCeiling, current.Volumes.Billing+limits.BillingVolumeRise)
		next.Alerts.BillingSpike = true
	case domain.OpTriggerChurnRisk:
		next.Volumes.Cancellations = min(limits.CancellationsCeiling, current.Volumes.Cancellations+limits.CancellationsRise)
		next.Alerts.ChurnRisk = true
	case domain.OpBoostAIHandling:
		next.Volumes.AIHandling = min(limits.AIHandlingCeiling, current.Volumes.AIHandling+limits.AIHandlingRise)
	case domain.OpTriggerPaymentFailures:
		next.Alerts.PaymentFailures = true
	case domain.OpReset:
		next = BaselineSnapshot()
	case domain.OpClearAlertFlag:
		next.Alerts = current.Alerts.With(transition.Flag, false)
	}
	return clamp(next, limits)
}

// clamp forces every numeric field into its declared range.
// Params: candidate state and limits.
// Returns: bounded state.
func clamp(s domain.MetricsState, limits Limits) domain.MetricsState {
	slMax := limits.ServiceLevelMax
	if slMax <= 0 {
		slMax = 100
	}
	aiMax := limits.AIHandlingPercentMax
	if aiMax <= 0 {
		aiMax = 100
	}
	s.ServiceLevels.Billing = bound(s.ServiceLevels.Billing, 0, slMax)
	s.ServiceLevels.CustomerSuccess = bound(s.ServiceLevels.CustomerSuccess, 0, slMax)
	s.ServiceLevels.Technical = bound(s.ServiceLevels.Technical, 0, slMax)
	s.ServiceLevels.Sales = bound(s.ServiceLevels.Sales, 0, slMax)
	s.Volumes.Billing = max(0, s.Volumes.Billing)
	s.Volumes.Cancellations = max(0, s.Volumes.Cancellations)
	s.Volumes.AIHandling = bound(s.Volumes.AIHandling, 0, aiMax)
	return s
}

func bound(value, lo, hi int) int {
	return min(max(value, lo), hi)
}
