package clock

import (
	"sort"
	"sync"
	"time"
)

// Manual is a hand-driven clock; timers fire only inside Advance.
// Params: start time and ordered timer queue.
// Returns: deterministic clock for tests and offline scenario replays.
type Manual struct {
	mu     sync.Mutex
	now    time.Time
	seq    uint64
	timers []*manualTimer
}

type manualTimer struct {
	owner   *Manual
	at      time.Time
	seq     uint64
	fn      func()
	stopped bool
	fired   bool
}

// NewManual creates manual clock positioned at start.
// Params: initial time.
// Returns: manual clock without pending timers.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

// Now returns current manual time.
// Params: none.
// Returns: manual timestamp.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// AfterFunc schedules fn at now+delay.
// Params: delay and callback.
// Returns: cancellable timer handle.
func (m *Manual) AfterFunc(delay time.Duration, fn func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	if delay < 0 {
		delay = 0
	}
	m.seq++
	timer := &manualTimer{owner: m, at: m.now.Add(delay), seq: m.seq, fn: fn}
	m.timers = append(m.timers, timer)
	return timer
}

// Advance moves time forward and runs due callbacks in deadline order.
// Callbacks run on the caller goroutine without the clock lock held, so
// they may schedule or stop other timers; newly scheduled timers that fall
// inside the window fire in the same call.
// Params: duration to advance.
// Returns: none.
func (m *Manual) Advance(step time.Duration) {
	m.mu.Lock()
	target := m.now.Add(step)
	m.mu.Unlock()

	for {
		m.mu.Lock()
		next := m.nextDueLocked(target)
		if next == nil {
			m.now = target
			m.mu.Unlock()
			return
		}
		next.fired = true
		if next.at.After(m.now) {
			m.now = next.at
		}
		m.removeLocked(next)
		fn := next.fn
		m.mu.Unlock()

		fn()
	}
}

// Pending returns number of armed timers.
// Params: none.
// Returns: count of scheduled, unstopped, unfired timers.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.timers)
}

func (m *Manual) nextDueLocked(target time.Time) *manualTimer {
	if len(m.timers) == 0 {
		return nil
	}
	sort.SliceStable(m.timers, func(i, j int) bool {
		if m.timers[i].at.Equal(m.timers[j].at) {
			return m.timers[i].seq < m.timers[j].seq
		}
		return m.timers[i].at.Before(m.timers[j].at)
	})
	first := m.timers[0]
	if first.at.After(target) {
		return nil
	}
	return first
}

func (m *Manual) removeLocked(timer *manualTimer) {
	for i, candidate := range m.timers {
		if candidate == timer {
			m.timers = append(m.timers[:i], m.timers[i+1:]...)
			return
		}
	}
}

// Stop cancels timer when it has not fired yet.
// Params: none.
// Returns: true when callback was prevented.
func (t *manualTimer) Stop() bool {
	t.owner.mu.Lock()
	defer t.owner.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	t.owner.removeLocked(t)
	return true
}
