package clock

import "time"

// Clock provides current time and deferred callbacks for deterministic tests.
// Params: none.
// Returns: current wall-clock time and cancellable timers.
type Clock interface {
	Now() time.Time
	AfterFunc(delay time.Duration, fn func()) Timer
}

// Timer is one cancellable deferred callback.
// Params: none.
// Returns: Stop reports whether the callback was prevented from running.
type Timer interface {
	Stop() bool
}

// RealClock reads current UTC time from system clock and uses runtime timers.
// Params: none.
// Returns: system-backed clock.
type RealClock struct{}

// Now returns current UTC time.
// Params: none.
// Returns: current UTC timestamp.
func (RealClock) Now() time.Time {
	return time.Now().UTC()
}

// AfterFunc runs fn on its own goroutine once delay elapses.
// Params: delay before callback and callback function.
// Returns: runtime timer handle.
func (RealClock) AfterFunc(delay time.Duration, fn func()) Timer {
	return time.AfterFunc(delay, fn)
}
