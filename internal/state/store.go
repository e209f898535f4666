package state

import (
	"sync"

	"wfmassist/internal/domain"
)

// Snapshot is one revisioned copy of metrics state.
// Params: metrics value and store revision.
// Returns: immutable view handed to monitor and views.
type Snapshot struct {
	State    domain.MetricsState `json:"state"`
	Revision uint64              `json:"revision"`
}

// Store owns the single metrics state instance of a dashboard session.
// Params: current state, revision counter, and limits.
// Returns: transition entrypoint shared by simulation inputs and the monitor.
type Store struct {
	mu       sync.RWMutex
	current  domain.MetricsState
	revision uint64
	limits   Limits
}

// NewStore creates store seeded with the startup snapshot.
// Params: transition limits.
// Returns: initialized store at revision 1.
func NewStore(limits Limits) *Store {
	return NewStoreWithState(StartupSnapshot(), limits)
}

// NewStoreWithState creates store seeded with an explicit state.
// Params: initial state (clamped) and transition limits.
// Returns: initialized store at revision 1.
func NewStoreWithState(initial domain.MetricsState, limits Limits) *Store {
	return &Store{current: clamp(initial, limits), revision: 1, limits: limits}
}

// Apply runs one transition and advances the revision.
// Every call produces a new revision, including transitions that leave
// values unchanged, so observers treat each call as a fresh snapshot.
// Params: transition.
// Returns: resulting snapshot.
func (s *Store) Apply(transition domain.Transition) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = Apply(s.current, transition, s.limits)
	s.revision++
	return Snapshot{State: s.current, Revision: s.revision}
}

// ApplyAll runs transitions in order under one revision bump.
// Params: ordered transitions.
// Returns: resulting snapshot; no revision change when list is empty.
func (s *Store) ApplyAll(transitions ...domain.Transition) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(transitions) == 0 {
		return Snapshot{State: s.current, Revision: s.revision}
	}
	for _, transition := range transitions {
		s.current = Apply(s.current, transition, s.limits)
	}
	s.revision++
	return Snapshot{State: s.current, Revision: s.revision}
}

// Snapshot returns current state copy.
// Params: none.
// Returns: current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{State: s.current, Revision: s.revision}
}

// Limits returns active transition limits.
func (s *Store) Limits() Limits {
	return s.limits
}
