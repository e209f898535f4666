package domain

// AlertKind identifies one scripted alert.
// Params: alert kind constants.
// Returns: kind used by monitor rules and message kinds.
type AlertKind string

const (
	// AlertBillingSpike reports a billing queue service level drop.
	AlertBillingSpike AlertKind = "billingSpike"
	// AlertAIPerformance reports AI handling share above threshold.
	AlertAIPerformance AlertKind = "aiPerformance"
	// AlertChurn reports elevated cancellations.
	AlertChurn AlertKind = "churnAlert"
	// AlertReportGeneration reports the hourly metrics report after payment failures.
	AlertReportGeneration AlertKind = "reportGeneration"
)

// AlertKinds lists kinds in rule evaluation order.
// Params: none.
// Returns: alert kinds.
func AlertKinds() []AlertKind {
	return []AlertKind{AlertBillingSpike, AlertAIPerformance, AlertChurn, AlertReportGeneration}
}

// Priority is display urgency attached to alert messages.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityNormal Priority = "normal"
)

// Priority maps alert kind to display urgency.
// Params: none.
// Returns: high for churn, medium for billing spike, normal otherwise.
func (k AlertKind) Priority() Priority {
	switch k {
	case AlertChurn:
		return PriorityHigh
	case AlertBillingSpike:
		return PriorityMedium
	default:
		return PriorityNormal
	}
}

// AlertState tracks whether the assistant awaits a user reaction.
// Params: waiting marker and the last fired alert kind.
// Returns: monitor gating state.
type AlertState struct {
	Waiting   bool      `json:"waiting"`
	LastAlert AlertKind `json:"lastAlert,omitempty"`
}
