package testfixtures

import (
	"sync"
	"time"
)

// ReferenceTime is the instant fixtures are stamped with unless a test
// chooses otherwise. It falls a couple of weeks before the default candidate
// dates.
func ReferenceTime() time.Time {
	return time.Date(2024, time.May, 20, 10, 0, 0, 0, time.UTC)
}

// Clock is a controllable time source. A ticking clock moves forward by its
// step after every reading so successive writes get distinct timestamps.
type Clock struct {
	mu      sync.Mutex
	current time.Time
	step    time.Duration
}

// NewClock returns a frozen clock. The zero start uses ReferenceTime.
func NewClock(start time.Time) *Clock {
	return NewTickingClock(start, 0)
}

// NewTickingClock returns a clock that advances by step after each Now call.
func NewTickingClock(start time.Time, step time.Duration) *Clock {
	if start.IsZero() {
		start = ReferenceTime()
	}
	return &Clock{current: start, step: step}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.current
	c.current = c.current.Add(c.step)
	return now
}

// Peek returns the next reading without advancing a ticking clock.
func (c *Clock) Peek() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// NowFunc exposes Now for injection. A nil clock falls back to time.Now.
func (c *Clock) NowFunc() func() time.Time {
	if c == nil {
		return time.Now
	}
	return c.Now
}

// Advance moves the clock forward and returns the new reading.
func (c *Clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
	return c.current
}
