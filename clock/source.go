// Package clock measures elapsed time. Clock is a resettable stopwatch and
// PausableClock is one that can be paused and resumed.
//
// Every primitive in this module reads time from a Source: the clocks here,
// waiter.Waiter, and the executors. A nil Source means the process clock.
package clock

import "time"

// Source is where Clock, PausableClock, Waiter and the executors read the
// current instant and arm their wake-ups.
type Source interface {
	// AfterFunc runs f on its own goroutine once d has passed on this source.
	AfterFunc(d time.Duration, f func()) Timer
	Now() time.Time
}

// Timer is an armed AfterFunc. Stop disarms it and reports whether f was
// still pending.
type Timer interface {
	Stop() bool
}

// RealSource is the process clock. Its Now readings are monotonic, so
// elapsed times survive wall clock jumps.
type RealSource struct{}

func NewRealSource() *RealSource {
	return &RealSource{}
}

func (s *RealSource) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

func (s *RealSource) Now() time.Time {
	return time.Now()
}

var processClock Source = &RealSource{}

// OrReal returns src, or the shared RealSource when src is nil.
func OrReal(src Source) Source {
	if src == nil {
		return processClock
	}
	return src
}
