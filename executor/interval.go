package executor

import (
	"time"

	"github.com/Baduit/Timer/internal/logger"
)

// Interval runs a callback repeatedly on its own goroutine, waiting a full
// period before each invocation. It can't be paused.
//
// A callback error or panic is passed to the error handler (see
// WithErrorHandler) and the loop keeps going.
type Interval struct {
	loop
}

// NewInterval returns an idle Interval.
func NewInterval(opts ...Option) *Interval {
	i := &Interval{}
	i.init(kindInterval, opts)
	return i
}

// Every creates an Interval and starts it with period and fn.
func Every(period time.Duration, fn func() error, opts ...Option) *Interval {
	i := NewInterval(opts...)
	i.Start(period, fn)
	return i
}

// Start launches the loop: wait period, invoke fn, repeat until stopped.
// The period is measured from the end of the previous invocation.
//
// Start panics if period is not positive or if the Interval is already
// running. A stopped Interval can be started again.
func (i *Interval) Start(period time.Duration, fn func() error) {
	if period <= 0 {
		panic("executor: non-positive period for Interval")
	}
	logger.Debugf("%s: starting with period %s", i.opts.name, period)
	i.start(func(time.Time) (time.Duration, bool) {
		return period, true
	}, fn)
}
