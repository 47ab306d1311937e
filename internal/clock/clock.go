// Package clock abstracts wall time and one-shot timers so that the
// heartbeat, notification and debounce schedules can be driven by tests.
package clock

import "time"

type Timer interface {
	Stop() bool
}

type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// New returns the process wall clock.
func New() Clock {
	return realClock{}
}
