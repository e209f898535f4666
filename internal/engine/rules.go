package engine

import (
	"time"

	"wfmassist/internal/domain"
)

// Thresholds holds numeric trigger points of alert predicates.
// Params: billing SL upper bound, AI share lower bound, cancellation lower bound.
// Returns: predicate tuning for DefaultRules.
type Thresholds struct {
	BillingSLBelow     int
	AIHandlingAbove    int
	CancellationsAbove int
}

// DefaultThresholds returns demo trigger points.
// Params: none.
// Returns: 80 / 40 / 150 thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{BillingSLBelow: 80, AIHandlingAbove: 40, CancellationsAbove: 150}
}

// Delays holds per-alert confirmation delays.
// Params: one delay per alert kind.
// Returns: timer tuning for DefaultRules.
type Delays struct {
	BillingSpike     time.Duration
	AIPerformance    time.Duration
	Churn            time.Duration
	ReportGeneration time.Duration
}

// DefaultDelays returns demo confirmation delays.
// Params: none.
// Returns: 2000 / 3000 / 2500 / 3500 ms delays.
func DefaultDelays() Delays {
	return Delays{
		BillingSpike:     2000 * time.Millisecond,
		AIPerformance:    3000 * time.Millisecond,
		Churn:            2500 * time.Millisecond,
		ReportGeneration: 3500 * time.Millisecond,
	}
}

// Rule binds one alert kind to its predicate, delay, and flag side effects.
// Params: kind, state predicate, confirmation delay, flags cleared on fire.
// Returns: rule evaluated by Monitor.
type Rule struct {
	Kind        domain.AlertKind
	Predicate   func(domain.MetricsState) bool
	Delay       time.Duration
	ResetsFlags []domain.AlertFlag
}

// Holds evaluates rule predicate against state.
// Params: metrics snapshot.
// Returns: true when rule condition is met.
func (r Rule) Holds(state domain.MetricsState) bool {
	return r.Predicate != nil && r.Predicate(state)
}

// DefaultRules builds the four dashboard alert rules in evaluation order.
// Params: thresholds and delays.
// Returns: rule set for Monitor.
func DefaultRules(thresholds Thresholds, delays Delays) []Rule {
	return []Rule{
		{
			Kind: domain.AlertBillingSpike,
			Predicate: func(s domain.MetricsState) bool {
				return s.ServiceLevels.Billing < thresholds.BillingSLBelow && s.Alerts.BillingSpike
			},
			Delay:       delays.BillingSpike,
			ResetsFlags: []domain.AlertFlag{domain.FlagBillingSpike},
		},
		{
			Kind: domain.AlertAIPerformance,
			Predicate: func(s domain.MetricsState) bool {
				return s.Volumes.AIHandling > thresholds.AIHandlingAbove
			},
			Delay: delays.AIPerformance,
		},
		{
			Kind: domain.AlertChurn,
			Predicate: func(s domain.MetricsState) bool {
				return s.Volumes.Cancellations > thresholds.CancellationsAbove && s.Alerts.ChurnRisk
			},
			Delay:       delays.Churn,
			ResetsFlags: []domain.AlertFlag{domain.FlagChurnRisk},
		},
		{
			Kind: domain.AlertReportGeneration,
			Predicate: func(s domain.MetricsState) bool {
				return s.Alerts.PaymentFailures
			},
			Delay:       delays.ReportGeneration,
			ResetsFlags: []domain.AlertFlag{domain.FlagPaymentFailures},
		},
	}
}
