// Package scheduler abstracts delayed callbacks so simulated latency can be
// driven by a real clock in production and by virtual time in tests.
package scheduler

import "time"

// Timer is a handle to a scheduled callback.
type Timer interface {
	// Stop cancels the callback. It reports false when the callback has
	// already run or was stopped before.
	Stop() bool
}

// Scheduler runs callbacks after a delay and reports the current time.
type Scheduler interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn func()) Timer
}

// Real schedules callbacks on the runtime timer heap. Callbacks run on their
// own goroutine.
type Real struct{}

// NewReal returns the wall-clock scheduler.
func NewReal() Real {
	return Real{}
}

// Now returns the current UTC time.
func (Real) Now() time.Time {
	return time.Now().UTC()
}

// AfterFunc wraps time.AfterFunc.
func (Real) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}
