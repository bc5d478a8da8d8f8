package clock

import "time"

// PausableClock measures active time since its last reset, excluding the
// time spent paused. A new PausableClock is running.
//
// All fields are values, so assigning a PausableClock makes a deep copy:
// pausing or resuming the copy never affects the original.
//
// PausableClock is not safe for concurrent use.
type PausableClock struct {
	run Clock
	// pause is only meaningful while paused is true.
	pause  Clock
	paused bool
	// accumulated holds the length of every finished pause interval.
	accumulated time.Duration
}

// NewPausable returns a running PausableClock reading the real time source.
func NewPausable() PausableClock {
	return NewPausableWithSource(nil)
}

// NewPausableWithSource returns a running PausableClock reading src.
func NewPausableWithSource(src Source) PausableClock {
	return PausableClock{run: NewWithSource(src)}
}

// Reset restarts the clock in the running state and forgets every pause.
func (c *PausableClock) Reset() {
	c.run.Reset()
	c.pause = Clock{}
	c.paused = false
	c.accumulated = 0
}

// Elapsed returns the time elapsed since the last reset minus the total
// pause time, including a pause that is still in progress.
func (c *PausableClock) Elapsed() time.Duration {
	d := c.run.Elapsed() - c.TotalPauseTime()
	if d < 0 {
		return 0
	}
	return d
}

// ElapsedIn returns Elapsed truncated to a whole number of unit.
func (c *PausableClock) ElapsedIn(unit time.Duration) int64 {
	return in(c.Elapsed(), unit)
}

// Pause starts a pause interval. It does nothing if the clock is already paused.
func (c *PausableClock) Pause() {
	if c.paused {
		return
	}
	c.pause = NewWithSource(c.run.source())
	c.paused = true
}

// Start resumes a paused clock, adding the finished pause interval to the
// total pause time. It does nothing if the clock is running.
func (c *PausableClock) Start() {
	if !c.paused {
		return
	}
	c.accumulated += c.pause.Elapsed()
	c.pause = Clock{}
	c.paused = false
}

// Paused reports whether the clock is currently paused.
func (c *PausableClock) Paused() bool {
	return c.paused
}

// TotalPauseTime returns the time spent paused since the last reset.
func (c *PausableClock) TotalPauseTime() time.Duration {
	if c.paused {
		return c.accumulated + c.pause.Elapsed()
	}
	return c.accumulated
}
