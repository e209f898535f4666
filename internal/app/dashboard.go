package app

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"text/template"
	"time"

	"wfmassist/internal/clock"
	"wfmassist/internal/conversation"
	"wfmassist/internal/domain"
	"wfmassist/internal/engine"
	"wfmassist/internal/feed"
	"wfmassist/internal/state"
	"wfmassist/internal/telemetry"
	"wfmassist/internal/views"
)

// Options configures one dashboard session.
// Params: clock, simulation limits, monitor tuning, reply tuning, and observers.
// Returns: dashboard construction settings; zero values select defaults.
type Options struct {
	Clock            clock.Clock
	Limits           state.Limits
	InitialState     *domain.MetricsState
	Thresholds       engine.Thresholds
	Delays           engine.Delays
	TypingDelay      time.Duration
	ActionDelay      time.Duration
	ReplyTemplate    *template.Template
	FallbackTemplate *template.Template
	NewID            func() string
	Logger           *slog.Logger
	Metrics          *telemetry.Metrics
}

// Dashboard is the single owner of metrics, monitor, and conversation.
// Every input and every timer callback runs under one mutex, so state
// transitions, alert firing, and transcript appends are totally ordered.
type Dashboard struct {
	mu        sync.Mutex
	clock     clock.Clock
	store     *state.Store
	monitor   *engine.Monitor
	conv      *conversation.Engine
	hub       *feed.Hub
	logger    *slog.Logger
	metrics   *telemetry.Metrics
	panelOpen bool
	closed    bool
}

// NewDashboard creates a session, appends the welcome message, and arms
// the monitor against the startup snapshot.
// Params: session options.
// Returns: running dashboard.
func NewDashboard(opts Options) *Dashboard {
	if opts.Clock == nil {
		opts.Clock = clock.RealClock{}
	}
	if opts.Limits == (state.Limits{}) {
		opts.Limits = state.DefaultLimits()
	}
	if opts.Thresholds == (engine.Thresholds{}) {
		opts.Thresholds = engine.DefaultThresholds()
	}
	if opts.Delays == (engine.Delays{}) {
		opts.Delays = engine.DefaultDelays()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	store := state.NewStore(opts.Limits)
	if opts.InitialState != nil {
		store = state.NewStoreWithState(*opts.InitialState, opts.Limits)
	}

	d := &Dashboard{
		clock:   opts.Clock,
		store:   store,
		monitor: engine.NewMonitor(opts.Clock, engine.DefaultRules(opts.Thresholds, opts.Delays)),
		hub:     feed.NewHub(),
		logger:  logger,
		metrics: opts.Metrics,
	}
	d.conv = conversation.New(d.deferred, conversation.Options{
		TypingDelay:      opts.TypingDelay,
		ActionDelay:      opts.ActionDelay,
		ReplyTemplate:    opts.ReplyTemplate,
		FallbackTemplate: opts.FallbackTemplate,
		Now:              opts.Clock.Now,
		NewID:            opts.NewID,
		Logger:           logger,
		OnAppend:         d.onAppendLocked,
	})

	d.mu.Lock()
	defer d.mu.Unlock()
	snapshot := store.Snapshot()
	d.metrics.ObserveTransition("startup", snapshot.State.ServiceLevels.Billing, snapshot.State.Volumes.AIHandling)
	d.conv.Welcome()
	d.evaluateLocked()
	return d
}

// Trigger applies one named simulation trigger.
// Params: trigger name from the simulation panel.
// Returns: resulting snapshot or ErrUnknownTrigger.
func (d *Dashboard) Trigger(name string) (state.Snapshot, error) {
	transition, err := domain.ParseTrigger(name)
	if err != nil {
		return state.Snapshot{}, err
	}
	return d.Apply(transition), nil
}

// Apply runs one metrics transition and re-arms the monitor.
// Params: transition.
// Returns: resulting snapshot; a closed dashboard returns the last snapshot.
func (d *Dashboard) Apply(transition domain.Transition) state.Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return d.store.Snapshot()
	}
	snapshot := d.applyLocked(transition)
	d.evaluateLocked()
	return snapshot
}

// SubmitText forwards user free text to the conversation.
// Params: raw text.
// Returns: false when text is blank or the dashboard is closed.
func (d *Dashboard) SubmitText(text string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return false
	}
	if !d.conv.SubmitText(text) {
		return false
	}
	d.evaluateLocked()
	return true
}

// ClickAction forwards one action click to the conversation.
// Params: action label and id of the message offering it.
// Returns: echoed user message and false when the dashboard is closed.
func (d *Dashboard) ClickAction(label, messageID string) (domain.Message, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return domain.Message{}, false
	}
	echo := d.conv.ClickAction(label, messageID)
	d.evaluateLocked()
	return echo, true
}

// ToggleSimulationPanel flips simulation panel visibility.
// Params: none.
// Returns: new visibility.
func (d *Dashboard) ToggleSimulationPanel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.panelOpen = !d.panelOpen
	d.logger.Debug("simulation panel toggled", "open", d.panelOpen)
	return d.panelOpen
}

// Handle dispatches one presentation-layer command.
// Params: command payload.
// Returns: whether the command changed anything, or validation error.
func (d *Dashboard) Handle(command domain.Command) (bool, error) {
	if err := command.Validate(); err != nil {
		return false, err
	}
	switch command.Type {
	case domain.CommandSimulate:
		if _, err := d.Trigger(command.Trigger); err != nil {
			return false, err
		}
		return true, nil
	case domain.CommandText:
		return d.SubmitText(command.Text), nil
	case domain.CommandAction:
		_, ok := d.ClickAction(command.Label, command.MessageID)
		return ok, nil
	case domain.CommandTogglePanel:
		d.ToggleSimulationPanel()
		return true, nil
	default:
		return false, fmt.Errorf("%w: unsupported type %q", domain.ErrInvalidCommand, command.Type)
	}
}

// Snapshot returns current dashboard status.
// Params: none.
// Returns: status copy.
func (d *Dashboard) Snapshot() domain.Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.statusLocked()
}

// Views derives every widget from current metrics.
// Params: none.
// Returns: view bundle.
func (d *Dashboard) Views() views.Dashboard {
	return views.Build(d.store.Snapshot().State)
}

// Transcript returns detached transcript copy.
// Params: none.
// Returns: messages in append order.
func (d *Dashboard) Transcript() []domain.Message {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.conv.Transcript()
}

// SubscribeWithHistory returns transcript, snapshot, and a live subscription
// taken under one lock, so no append falls between history and live events.
// Params: subscriber buffer size.
// Returns: history, metrics, revision, and subscription.
func (d *Dashboard) SubscribeWithHistory(buffer int) ([]domain.Message, domain.MetricsState, uint64, *feed.Subscription) {
	d.mu.Lock()
	defer d.mu.Unlock()
	snapshot := d.store.Snapshot()
	return d.conv.Transcript(), snapshot.State, snapshot.Revision, d.hub.Subscribe(buffer)
}

// Subscribe returns a live subscription without history.
// Params: subscriber buffer size.
// Returns: subscription closed with the dashboard.
func (d *Dashboard) Subscribe(buffer int) *feed.Subscription {
	return d.hub.Subscribe(buffer)
}

// Close stops every timer and closes subscribers. Later inputs are ignored.
// Params: none.
// Returns: none.
func (d *Dashboard) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	d.monitor.Stop()
	d.conv.Stop()
	d.hub.Close()
	d.metrics.SetPendingTimers(0)
	d.logger.Info("dashboard closed", "messages", d.conv.Len())
}

func (d *Dashboard) applyLocked(transitions ...domain.Transition) state.Snapshot {
	snapshot := d.store.ApplyAll(transitions...)
	names := make([]string, 0, len(transitions))
	for _, transition := range transitions {
		names = append(names, transition.String())
		d.metrics.ObserveTransition(string(transition.Op), snapshot.State.ServiceLevels.Billing, snapshot.State.Volumes.AIHandling)
	}
	d.logger.Info("state transition",
		"transition", strings.Join(names, ","),
		"revision", snapshot.Revision,
		"billing_sl", snapshot.State.ServiceLevels.Billing,
		"ai_handling", snapshot.State.Volumes.AIHandling,
		"cancellations", snapshot.State.Volumes.Cancellations,
	)
	d.hub.Publish(feed.StateEvent(snapshot.State, snapshot.Revision))
	return snapshot
}

// evaluateLocked restarts monitor timers against current state.
func (d *Dashboard) evaluateLocked() {
	snapshot := d.store.Snapshot()
	generation, armed := d.monitor.Evaluate(snapshot.State, d.conv.Alert(), d.due)
	d.metrics.SetPendingTimers(len(armed))
	if len(armed) > 0 {
		d.logger.Debug("alert timers armed", "generation", generation, "revision", snapshot.Revision, "alerts", joinKinds(armed))
	}
}

func (d *Dashboard) due(kind domain.AlertKind, generation uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	snapshot := d.store.Snapshot()
	rule, ok := d.monitor.Confirm(kind, generation, snapshot.State, d.conv.Alert())
	if !ok {
		d.metrics.AlertSuppressed(string(kind))
		d.metrics.SetPendingTimers(len(d.monitor.Pending()))
		d.logger.Debug("alert timer suppressed", "alert", string(kind), "generation", generation, "revision", snapshot.Revision)
		return
	}
	message, ok := d.conv.AppendAlert(kind)
	if !ok {
		return
	}
	d.metrics.AlertFired(string(kind))
	d.logger.Info("alert fired", "alert", string(kind), "generation", generation, "message_id", message.ID)

	if len(rule.ResetsFlags) > 0 {
		clears := make([]domain.Transition, 0, len(rule.ResetsFlags))
		for _, flag := range rule.ResetsFlags {
			clears = append(clears, domain.ClearAlertFlag(flag))
		}
		d.applyLocked(clears...)
	}
	d.evaluateLocked()
}

// deferred runs conversation callbacks under the dashboard lock.
func (d *Dashboard) deferred(delay time.Duration, fn func()) clock.Timer {
	return d.clock.AfterFunc(delay, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if d.closed {
			return
		}
		before := d.conv.Len()
		fn()
		if d.conv.Len() != before {
			d.evaluateLocked()
		}
	})
}

func (d *Dashboard) onAppendLocked(message domain.Message) {
	d.metrics.MessageAppended(string(message.Sender), string(message.Kind))
	d.hub.Publish(feed.MessageEvent(message))
}

func (d *Dashboard) statusLocked() domain.Status {
	snapshot := d.store.Snapshot()
	return domain.Status{
		State:     snapshot.State,
		Revision:  snapshot.Revision,
		Alert:     d.conv.Alert(),
		Typing:    d.conv.Typing(),
		PanelOpen: d.panelOpen,
		Pending:   d.monitor.Pending(),
		Messages:  d.conv.Len(),
	}
}

func joinKinds(kinds []domain.AlertKind) string {
	parts := make([]string, len(kinds))
	for i, kind := range kinds {
		parts[i] = string(kind)
	}
	return strings.Join(parts, ",")
}
