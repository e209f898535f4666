// Package views projects metrics state into display-ready rows and series.
// Every builder is a pure function of its input snapshot.
package views

import "wfmassist/internal/domain"

// Queue status and service level classes shared by queue rows and indicators.
const (
	StatusGood     = "good"
	StatusWarning  = "warning"
	StatusCritical = "critical"
	StatusInfo     = "info"
	StatusNormal   = "normal"
)

const (
	serviceLevelTarget = 85
	queueGoodFrom      = 85
	queueWarningFrom   = 75
	aiHandledFloor     = 20
	humanContacts      = 411
	aiContacts         = 274
	paymentFailuresHi  = 95
	paymentFailuresLo  = 61
	indicatorBillingSL = 80
	indicatorCancel    = 150
	indicatorAIShare   = 40
)

// VolumePoint is one half-hour sample of contact volume.
type VolumePoint struct {
	Time         string `json:"time"`
	Actual       int    `json:"actual"`
	Forecast     int    `json:"forecast"`
	Handled      int    `json:"handled"`
	HumanHandled int    `json:"humanHandled"`
	AIHandled    int    `json:"aiHandled"`
}

// ServiceLevelPoint is one half-hour sample of billing service level.
type ServiceLevelPoint struct {
	Time         string `json:"time"`
	ServiceLevel int    `json:"serviceLevel"`
	Target       int    `json:"target"`
}

// Slice is one named share of a breakdown chart.
type Slice struct {
	Name       string `json:"name"`
	Value      int    `json:"value"`
	Percentage int    `json:"percentage"`
	Color      string `json:"color"`
}

// ContactType is one contact category row with its relative bar fill.
type ContactType struct {
	Name        string  `json:"name"`
	Value       int     `json:"value"`
	Color       string  `json:"color"`
	FillPercent float64 `json:"fillPercent"`
}

// QueueRow is one routing queue with its live service level class.
type QueueRow struct {
	Queue        string `json:"queue"`
	Volume       int    `json:"volume"`
	WaitTimeSec  int    `json:"waitTime"`
	Agents       int    `json:"agents"`
	ServiceLevel int    `json:"serviceLevel"`
	Type         string `json:"type"`
	Status       string `json:"status"`
}

// KPICard is one headline metric card.
type KPICard struct {
	Label  string `json:"label"`
	Value  string `json:"value"`
	Change string `json:"change"`
	Trend  string `json:"trend"`
	Target string `json:"target"`
}

// StatusIndicator is one simulation panel state badge.
type StatusIndicator struct {
	Label  string `json:"label"`
	Value  int    `json:"value"`
	Unit   string `json:"unit,omitempty"`
	Status string `json:"status"`
}

// Dashboard bundles every derived view for one snapshot.
type Dashboard struct {
	KPIs                 []KPICard           `json:"kpis"`
	VolumeSeries         []VolumePoint       `json:"volumeSeries"`
	ServiceLevelSeries   []ServiceLevelPoint `json:"serviceLevelSeries"`
	HandlingDistribution []Slice             `json:"handlingDistribution"`
	ContactTypes         []ContactType       `json:"contactTypes"`
	Staffing             []Slice             `json:"staffing"`
	Queues               []QueueRow          `json:"queues"`
	StatusIndicators     []StatusIndicator   `json:"statusIndicators"`
}

// Build derives the full dashboard from one metrics snapshot.
func Build(state domain.MetricsState) Dashboard {
	return Dashboard{
		KPIs:                 KPICards(),
		VolumeSeries:         VolumeSeries(state),
		ServiceLevelSeries:   ServiceLevelSeries(state),
		HandlingDistribution: HandlingDistribution(state),
		ContactTypes:         ContactTypes(state),
		Staffing:             Staffing(),
		Queues:               QueueRows(state),
		StatusIndicators:     StatusIndicators(state),
	}
}

// VolumeSeries returns volume vs forecast with the human/AI split.
// Only the latest point follows AI handling, never below 20.
func VolumeSeries(state domain.MetricsState) []VolumePoint {
	return []VolumePoint{
		{Time: "09:00", Actual: 85, Forecast: 80, Handled: 82, HumanHandled: 52, AIHandled: 30},
		{Time: "09:30", Actual: 120, Forecast: 90, Handled: 115, HumanHandled: 68, AIHandled: 47},
		{Time: "10:00", Actual: 156, Forecast: 110, Handled: 140, HumanHandled: 84, AIHandled: 56},
		{Time: "10:30", Actual: 180, Forecast: 120, Handled: 165, HumanHandled: 95, AIHandled: 70},
		{Time: "11:00", Actual: 95, Forecast: 100, Handled: 95, HumanHandled: 58, AIHandled: 37},
		{Time: "11:30", Actual: 88, Forecast: 90, Handled: 88, HumanHandled: 54, AIHandled: max(aiHandledFloor, state.Volumes.AIHandling)},
	}
}

// ServiceLevelSeries returns billing service level against the 85% target.
func ServiceLevelSeries(state domain.MetricsState) []ServiceLevelPoint {
	points := []ServiceLevelPoint{
		{Time: "09:00", ServiceLevel: 95},
		{Time: "09:30", ServiceLevel: 82},
		{Time: "10:00", ServiceLevel: 76},
		{Time: "10:30", ServiceLevel: 68},
		{Time: "11:00", ServiceLevel: 89},
		{Time: "11:30", ServiceLevel: state.ServiceLevels.Billing},
	}
	for i := range points {
		points[i].Target = serviceLevelTarget
	}
	return points
}

// HandlingDistribution splits contacts between human and AI agents.
func HandlingDistribution(state domain.MetricsState) []Slice {
	ai := state.Volumes.AIHandling
	return []Slice{
		{Name: "Human Agents", Value: humanContacts, Percentage: 100 - ai, Color: "#3b82f6"},
		{Name: "AI Agents", Value: aiContacts, Percentage: ai, Color: "#8b5cf6"},
	}
}

// ContactTypes returns the subscription contact breakdown.
// Payment failures show the elevated count while the flag is armed.
func ContactTypes(state domain.MetricsState) []ContactType {
	paymentFailures := paymentFailuresLo
	if state.Alerts.PaymentFailures {
		paymentFailures = paymentFailuresHi
	}
	rows := []ContactType{
		{Name: "Billing Issues", Value: state.Volumes.Billing, Color: "#ef4444"},
		{Name: "Cancellations", Value: state.Volumes.Cancellations, Color: "#f59e0b"},
		{Name: "Upgrades/Downgrades", Value: 124, Color: "#10b981"},
		{Name: "Technical Support", Value: 98, Color: "#3b82f6"},
		{Name: "New Subscriptions", Value: 76, Color: "#8b5cf6"},
		{Name: "Payment Failures", Value: paymentFailures, Color: "#ef4444"},
	}
	largest := 0
	for _, row := range rows {
		largest = max(largest, row.Value)
	}
	if largest > 0 {
		for i := range rows {
			rows[i].FillPercent = float64(rows[i].Value) / float64(largest) * 100
		}
	}
	return rows
}

// Staffing returns static agent availability.
func Staffing() []Slice {
	return []Slice{
		{Name: "Available", Value: 45, Color: "#10b981"},
		{Name: "On Call", Value: 38, Color: "#3b82f6"},
		{Name: "Break/Lunch", Value: 12, Color: "#f59e0b"},
		{Name: "Absent", Value: 8, Color: "#ef4444"},
	}
}

// QueueRows returns the four subscription queues.
// Billing volume and all four service levels come from state; the
// remaining columns are fixed reference values.
func QueueRows(state domain.MetricsState) []QueueRow {
	sl := state.ServiceLevels
	rows := []QueueRow{
		{Queue: "Billing & Payments", Volume: state.Volumes.Billing, WaitTimeSec: 45, Agents: 12, ServiceLevel: sl.Billing, Type: "critical"},
		{Queue: "Customer Success", Volume: 89, WaitTimeSec: 23, Agents: 15, ServiceLevel: sl.CustomerSuccess, Type: "retention"},
		{Queue: "Technical Support", Volume: 67, WaitTimeSec: 67, Agents: 8, ServiceLevel: sl.Technical, Type: "technical"},
		{Queue: "Sales & Upgrades", Volume: 34, WaitTimeSec: 12, Agents: 10, ServiceLevel: sl.Sales, Type: "revenue"},
	}
	for i := range rows {
		rows[i].Status = QueueStatus(rows[i].ServiceLevel)
	}
	return rows
}

// QueueStatus classifies a service level percentage.
func QueueStatus(serviceLevel int) string {
	switch {
	case serviceLevel >= queueGoodFrom:
		return StatusGood
	case serviceLevel >= queueWarningFrom:
		return StatusWarning
	default:
		return StatusCritical
	}
}

// KPICards returns the static headline cards.
func KPICards() []KPICard {
	return []KPICard{
		{Label: "Service Level", Value: "89%", Change: "+5%", Trend: "positive", Target: "Target: 85%"},
		{Label: "Total Volume", Value: "2,847", Change: "+18%", Trend: "warning", Target: "Today"},
		{Label: "Available Agents", Value: "45", Change: "-3", Trend: "negative", Target: "of 48 scheduled"},
		{Label: "Avg Wait Time", Value: "28s", Change: "-12s", Trend: "positive", Target: "Target: 30s"},
	}
}

// StatusIndicators returns the simulation panel badges.
func StatusIndicators(state domain.MetricsState) []StatusIndicator {
	billing := StatusIndicator{Label: "Billing SL", Value: state.ServiceLevels.Billing, Unit: "%", Status: StatusNormal}
	if state.ServiceLevels.Billing < indicatorBillingSL {
		billing.Status = StatusCritical
	}
	cancellations := StatusIndicator{Label: "Cancellations", Value: state.Volumes.Cancellations, Status: StatusNormal}
	if state.Volumes.Cancellations > indicatorCancel {
		cancellations.Status = StatusWarning
	}
	ai := StatusIndicator{Label: "AI Handling", Value: state.Volumes.AIHandling, Unit: "%", Status: StatusNormal}
	if state.Volumes.AIHandling > indicatorAIShare {
		ai.Status = StatusInfo
	}
	return []StatusIndicator{billing, cancellations, ai}
}
