package engine

import (
	"sort"
	"sync"

	"wfmassist/internal/clock"
	"wfmassist/internal/domain"
)

// DueFunc receives one elapsed rule timer.
// Params: alert kind and generation the timer was armed in.
// Returns: none; caller must re-check via Confirm before firing.
type DueFunc func(kind domain.AlertKind, generation uint64)

// Monitor arms one cancellable timer per eligible rule and invalidates
// every armed timer when a newer snapshot is evaluated.
// Params: clock, ordered rules, and generation-keyed timer table.
// Returns: condition monitor for the dashboard owner.
type Monitor struct {
	mu         sync.Mutex
	clock      clock.Clock
	rules      []Rule
	byKind     map[domain.AlertKind]Rule
	generation uint64
	timers     map[domain.AlertKind]clock.Timer
	stopped    bool
}

// NewMonitor creates monitor over rules.
// Params: clock for timers and rule set; nil clock uses RealClock.
// Returns: idle monitor at generation zero.
func NewMonitor(clk clock.Clock, rules []Rule) *Monitor {
	if clk == nil {
		clk = clock.RealClock{}
	}
	byKind := make(map[domain.AlertKind]Rule, len(rules))
	for _, rule := range rules {
		byKind[rule.Kind] = rule
	}
	return &Monitor{
		clock:  clk,
		rules:  append([]Rule(nil), rules...),
		byKind: byKind,
		timers: make(map[domain.AlertKind]clock.Timer),
	}
}

// Evaluate replaces the armed condition set for a new snapshot.
// Pending timers are cancelled and the generation advances; when the
// assistant is not waiting, every rule whose predicate holds is armed.
// Params: metrics snapshot, alert state, and due callback.
// Returns: new generation and kinds armed in it.
func (m *Monitor) Evaluate(state domain.MetricsState, alert domain.AlertState, onDue DueFunc) (uint64, []domain.AlertKind) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cancelLocked()
	if m.stopped || alert.Waiting {
		return m.generation, nil
	}

	generation := m.generation
	armed := make([]domain.AlertKind, 0, len(m.rules))
	for _, rule := range m.rules {
		if !rule.Holds(state) {
			continue
		}
		kind := rule.Kind
		m.timers[kind] = m.clock.AfterFunc(rule.Delay, func() {
			if onDue != nil {
				onDue(kind, generation)
			}
		})
		armed = append(armed, kind)
	}
	return generation, armed
}

// Confirm re-checks a due timer against current state before firing.
// Params: alert kind, timer generation, current metrics, current alert state.
// Returns: rule and true only when generation is current, nothing is
// awaited, and the predicate still holds.
func (m *Monitor) Confirm(kind domain.AlertKind, generation uint64, state domain.MetricsState, alert domain.AlertState) (Rule, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopped || generation != m.generation {
		return Rule{}, false
	}
	delete(m.timers, kind)
	rule, ok := m.byKind[kind]
	if !ok || alert.Waiting || !rule.Holds(state) {
		return Rule{}, false
	}
	return rule, true
}

// Stop cancels every armed timer and disables further arming.
// Params: none.
// Returns: none.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelLocked()
	m.stopped = true
}

// Pending lists alert kinds with an armed timer.
// Params: none.
// Returns: sorted alert kinds.
func (m *Monitor) Pending() []domain.AlertKind {
	m.mu.Lock()
	defer m.mu.Unlock()
	kinds := make([]domain.AlertKind, 0, len(m.timers))
	for kind := range m.timers {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Generation returns current evaluation generation.
// Params: none.
// Returns: generation counter.
func (m *Monitor) Generation() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generation
}

// Rules returns a copy of the rule set.
// Params: none.
// Returns: rules in evaluation order.
func (m *Monitor) Rules() []Rule {
	return append([]Rule(nil), m.rules...)
}

func (m *Monitor) cancelLocked() {
	for kind, timer := range m.timers {
		timer.Stop()
		delete(m.timers, kind)
	}
	m.generation++
}
