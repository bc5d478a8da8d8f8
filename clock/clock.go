package clock

import "time"

// Clock measures the time elapsed since its last reset. It can't be paused.
//
// Clock is a plain value: assigning it copies the origin, and the copy
// evolves independently of the original.
type Clock struct {
	src    Source
	origin time.Time
}

// New returns a Clock reading the real time source, started now.
func New() Clock {
	return NewWithSource(nil)
}

// NewWithSource returns a Clock reading src, started now.
// A nil src means the real time source.
func NewWithSource(src Source) Clock {
	c := Clock{src: OrReal(src)}
	c.Reset()
	return c
}

// Reset moves the origin to the current instant.
func (c *Clock) Reset() {
	c.origin = c.source().Now()
}

// Elapsed returns the duration since the last reset. It never returns a
// negative value.
func (c *Clock) Elapsed() time.Duration {
	d := c.source().Now().Sub(c.origin)
	if d < 0 {
		return 0
	}
	return d
}

// ElapsedIn returns Elapsed truncated to a whole number of unit,
// e.g. ElapsedIn(time.Millisecond).
func (c *Clock) ElapsedIn(unit time.Duration) int64 {
	return in(c.Elapsed(), unit)
}

// Origin returns the instant of the last reset.
func (c *Clock) Origin() time.Time {
	return c.origin
}

func (c *Clock) source() Source {
	return OrReal(c.src)
}

func in(d, unit time.Duration) int64 {
	if unit <= 0 {
		unit = time.Nanosecond
	}
	return int64(d / unit)
}
