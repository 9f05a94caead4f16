// Package frametime measures frame durations for the host loop.
package frametime

import "time"

// Time is the timing of one frame, in seconds.
type Time struct {
	Delta float64
	Total float64
}

// Clock marks frame boundaries. The first Mark measures from construction.
type Clock struct {
	start time.Time
	last  time.Time
	now   func() time.Time
}

func New() *Clock {
	return newClock(time.Now)
}

func newClock(now func() time.Time) *Clock {
	t := now()
	return &Clock{start: t, last: t, now: now}
}

// Mark ends the current frame and returns its timing.
func (c *Clock) Mark() Time {
	t := c.now()
	d := t.Sub(c.last)
	c.last = t
	return Time{Delta: d.Seconds(), Total: t.Sub(c.start).Seconds()}
}
