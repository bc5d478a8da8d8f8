package executor

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Baduit/Timer/internal/logger"
)

// Schedule runs a callback on its own goroutine at the activation times of a
// cron schedule. Stopping and error handling work exactly as for Interval.
type Schedule struct {
	loop
}

// NewSchedule returns an idle Schedule.
func NewSchedule(opts ...Option) *Schedule {
	s := &Schedule{}
	s.init(kindSchedule, opts)
	return s
}

// Start parses a standard cron expression ("*/5 * * * *") or descriptor
// ("@hourly", "@every 90s") and starts invoking fn at each activation.
func (s *Schedule) Start(expr string, fn func() error) error {
	sched, err := cron.ParseStandard(expr)
	if err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	logger.Debugf("%s: starting with schedule %q", s.opts.name, expr)
	s.StartSchedule(sched, fn)
	return nil
}

// StartSchedule starts invoking fn at each activation of sched. The loop
// exits on its own if sched has no next activation.
//
// StartSchedule panics if the Schedule is already running.
func (s *Schedule) StartSchedule(sched cron.Schedule, fn func() error) {
	s.start(func(now time.Time) (time.Duration, bool) {
		next := sched.Next(now)
		if next.IsZero() {
			return 0, false
		}
		return next.Sub(now), true
	}, fn)
}
