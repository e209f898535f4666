package domain

// ServiceLevels holds per-queue service level percentages.
// Params: integer percentages in 0..100.
// Returns: service level section of metrics state.
type ServiceLevels struct {
	Billing         int `json:"billing"`
	CustomerSuccess int `json:"customerSuccess"`
	Technical       int `json:"technical"`
	Sales           int `json:"sales"`
}

// Volumes holds contact volume counters.
// Params: non-negative counts; AIHandling is a percentage.
// Returns: volume section of metrics state.
type Volumes struct {
	Billing       int `json:"billing"`
	Cancellations int `json:"cancellations"`
	AIHandling    int `json:"aiHandling"`
}

// AlertFlags holds armed condition markers observed by the monitor.
// Params: true means armed and unacknowledged.
// Returns: alert flag section of metrics state.
type AlertFlags struct {
	BillingSpike    bool `json:"billingSpike"`
	ChurnRisk       bool `json:"churnRisk"`
	PaymentFailures bool `json:"paymentFailures"`
}

// MetricsState is the whole mutable simulation state of the dashboard.
// Params: service levels, volumes, and alert flags.
// Returns: value snapshot; copies never alias.
type MetricsState struct {
	ServiceLevels ServiceLevels `json:"serviceLevels"`
	Volumes       Volumes       `json:"volumes"`
	Alerts        AlertFlags    `json:"alerts"`
}

// AlertFlag names one boolean in AlertFlags.
// Params: flag constants.
// Returns: typed flag identifier.
type AlertFlag string

const (
	// FlagBillingSpike arms the billing spike rule.
	FlagBillingSpike AlertFlag = "billingSpike"
	// FlagChurnRisk arms the churn alert rule.
	FlagChurnRisk AlertFlag = "churnRisk"
	// FlagPaymentFailures arms the report generation rule.
	FlagPaymentFailures AlertFlag = "paymentFailures"
)

// Valid reports whether flag is one of the known alert flags.
func (f AlertFlag) Valid() bool {
	switch f {
	case FlagBillingSpike, FlagChurnRisk, FlagPaymentFailures:
		return true
	default:
		return false
	}
}

// Flag reads one alert flag.
// Params: flag name.
// Returns: flag value; unknown flags read as false.
func (a AlertFlags) Flag(flag AlertFlag) bool {
	switch flag {
	case FlagBillingSpike:
		return a.BillingSpike
	case FlagChurnRisk:
		return a.ChurnRisk
	case FlagPaymentFailures:
		return a.PaymentFailures
	default:
		return false
	}
}

// With returns a copy with one flag replaced.
// Params: flag name and value.
// Returns: updated flags; unknown flags leave the copy unchanged.
func (a AlertFlags) With(flag AlertFlag, value bool) AlertFlags {
	switch flag {
	case FlagBillingSpike:
		a.BillingSpike = value
	case FlagChurnRisk:
		a.ChurnRisk = value
	case FlagPaymentFailures:
		a.PaymentFailures = value
	}
	return a
}
