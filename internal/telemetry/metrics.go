// Package telemetry exposes dashboard activity as Prometheus metrics.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics holds Prometheus collectors for the assistant dashboard.
// All metrics use the wfmassist_ namespace. A nil *Metrics is a valid no-op.
type Metrics struct {
	TransitionsTotal     *prometheus.CounterVec
	AlertsFiredTotal     *prometheus.CounterVec
	AlertsSuppressed     *prometheus.CounterVec
	MessagesTotal        *prometheus.CounterVec
	CommandsTotal        *prometheus.CounterVec
	PendingAlertTimers   prometheus.Gauge
	StreamSubscribers    prometheus.Gauge
	FeedPublishFailures  prometheus.Counter
	FeedEventsDropped    prometheus.Counter
	BillingServiceLevel  prometheus.Gauge
	AIHandlingPercentage prometheus.Gauge
}

// NewMetrics creates and registers dashboard metrics on the given registry.
// Returns nil if reg is nil.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		return nil
	}

	m := &Metrics{
		TransitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wfmassist",
			Subsystem: "state",
			Name:      "transitions_total",
			Help:      "Applied metrics store transitions by operation.",
		}, []string{"op"}),

		AlertsFiredTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wfmassist",
			Subsystem: "monitor",
			Name:      "alerts_fired_total",
			Help:      "Alerts appended to the transcript by kind.",
		}, []string{"alert"}),

		AlertsSuppressed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wfmassist",
			Subsystem: "monitor",
			Name:      "alerts_suppressed_total",
			Help:      "Elapsed alert timers rejected at fire time by kind.",
		}, []string{"alert"}),

		MessagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wfmassist",
			Subsystem: "conversation",
			Name:      "messages_total",
			Help:      "Transcript messages by sender and kind.",
		}, []string{"sender", "kind"}),

		CommandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wfmassist",
			Subsystem: "ingest",
			Name:      "commands_total",
			Help:      "Input commands by transport and result.",
		}, []string{"transport", "result"}),

		PendingAlertTimers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "wfmassist",
			Subsystem: "monitor",
			Name:      "pending_alert_timers",
			Help:      "Alert timers armed in the current generation.",
		}),

		StreamSubscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "wfmassist",
			Subsystem: "feed",
			Name:      "stream_subscribers",
			Help:      "Connected transcript stream subscribers.",
		}),

		FeedPublishFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wfmassist",
			Subsystem: "feed",
			Name:      "publish_failures_total",
			Help:      "Transcript messages that failed to publish to NATS.",
		}),

		FeedEventsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wfmassist",
			Subsystem: "feed",
			Name:      "events_dropped_total",
			Help:      "Feed events discarded before publish because the forward buffer was full.",
		}),

		BillingServiceLevel: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "wfmassist",
			Subsystem: "state",
			Name:      "billing_service_level_percent",
			Help:      "Current billing queue service level.",
		}),

		AIHandlingPercentage: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "wfmassist",
			Subsystem: "state",
			Name:      "ai_handling_percent",
			Help:      "Current share of contacts handled by AI agents.",
		}),
	}

	reg.MustRegister(
		m.TransitionsTotal,
		m.AlertsFiredTotal,
		m.AlertsSuppressed,
		m.MessagesTotal,
		m.CommandsTotal,
		m.PendingAlertTimers,
		m.StreamSubscribers,
		m.FeedPublishFailures,
		m.FeedEventsDropped,
		m.BillingServiceLevel,
		m.AIHandlingPercentage,
	)

	return m
}

// NewRegistry returns a registry with process and Go runtime collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// ObserveTransition counts one applied transition and records headline gauges.
func (m *Metrics) ObserveTransition(op string, billingSL, aiHandling int) {
	if m == nil {
		return
	}
	m.TransitionsTotal.WithLabelValues(op).Inc()
	m.BillingServiceLevel.Set(float64(billingSL))
	m.AIHandlingPercentage.Set(float64(aiHandling))
}

// AlertFired counts one appended alert.
func (m *Metrics) AlertFired(alert string) {
	if m == nil {
		return
	}
	m.AlertsFiredTotal.WithLabelValues(alert).Inc()
}

// AlertSuppressed counts one stale or blocked alert timer.
func (m *Metrics) AlertSuppressed(alert string) {
	if m == nil {
		return
	}
	m.AlertsSuppressed.WithLabelValues(alert).Inc()
}

// MessageAppended counts one transcript message.
func (m *Metrics) MessageAppended(sender, kind string) {
	if m == nil {
		return
	}
	m.MessagesTotal.WithLabelValues(sender, kind).Inc()
}

// CommandHandled counts one input command.
func (m *Metrics) CommandHandled(transport, result string) {
	if m == nil {
		return
	}
	m.CommandsTotal.WithLabelValues(transport, result).Inc()
}

// SetPendingTimers records armed alert timer count.
func (m *Metrics) SetPendingTimers(n int) {
	if m == nil {
		return
	}
	m.PendingAlertTimers.Set(float64(n))
}

// SubscriberDelta adjusts connected stream subscriber count.
func (m *Metrics) SubscriberDelta(delta int) {
	if m == nil {
		return
	}
	m.StreamSubscribers.Add(float64(delta))
}

// PublishFailed counts one failed feed publish.
func (m *Metrics) PublishFailed() {
	if m == nil {
		return
	}
	m.FeedPublishFailures.Inc()
}

// EventsDropped counts feed events lost to a full forward buffer.
func (m *Metrics) EventsDropped(n uint64) {
	if m == nil || n == 0 {
		return
	}
	m.FeedEventsDropped.Add(float64(n))
}
