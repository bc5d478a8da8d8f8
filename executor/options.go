// Package executor runs user callbacks on dedicated background goroutines:
// once after a delay (Deadline), repeatedly at a fixed period (Interval) or
// on a cron schedule (Schedule).
//
// Every executor owns exactly one goroutine while running. Stopping an
// executor blocks until that goroutine has exited, so once a stop call
// returns the callback will not run again. Calling a stop method from inside
// the executor's own callback deadlocks and must not be done.
//
// Go has no destructors: call Close (or the relevant stop method) when an
// executor is no longer needed.
package executor

import (
	"github.com/google/uuid"

	"github.com/Baduit/Timer/clock"
	"github.com/Baduit/Timer/internal/logger"
	"github.com/Baduit/Timer/metrics"
)

const (
	kindDeadline = "deadline"
	kindInterval = "interval"
	kindSchedule = "schedule"
)

// Option configures an executor.
type Option func(*options)

type options struct {
	name    string
	source  clock.Source
	metrics *metrics.Collector
	onError func(error)
}

// WithName sets the name used in log messages.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithSource sets the time source used for waiting and measuring callbacks.
func WithSource(src clock.Source) Option {
	return func(o *options) {
		o.source = src
	}
}

// WithMetrics records executor activity in c.
func WithMetrics(c *metrics.Collector) Option {
	return func(o *options) {
		o.metrics = c
	}
}

// WithErrorHandler sets the function receiving errors and recovered panics
// from Interval and Schedule callbacks. It runs on the executor goroutine.
// Without a handler, failures are logged at ERROR level.
func WithErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.onError = fn
	}
}

func newOptions(kind string, opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.name == "" {
		o.name = kind + "-" + uuid.NewString()[:8]
	}
	o.source = clock.OrReal(o.source)
	return o
}

func (o *options) reportError(err error) {
	if o.onError != nil {
		o.onError(err)
		return
	}
	logger.Errorf("%s: callback failed: %v", o.name, err)
}
