package domain

// Status is the externally visible condition of a dashboard session.
// Params: metrics snapshot, waiting state, typing marker, panel flag, timers.
// Returns: payload of the dashboard endpoint and scenario reports.
type Status struct {
	State     MetricsState `json:"state"`
	Revision  uint64       `json:"revision"`
	Alert     AlertState   `json:"alert"`
	Typing    bool         `json:"typing"`
	PanelOpen bool         `json:"panelOpen"`
	Pending   []AlertKind  `json:"pendingAlerts"`
	Messages  int          `json:"messages"`
}
