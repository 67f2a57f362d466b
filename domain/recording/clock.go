package recording

import (
	"sync"
	"time"
)

// Clock measures recorded time as wall time since start minus paused
// intervals. It has a single writer (the session controller) and any number
// of readers. Elapsed never decreases and freezes once stopped.
type Clock struct {
	mu          sync.Mutex
	now         func() time.Time
	started     time.Time
	pausedAt    time.Time
	pausedTotal time.Duration
	stoppedAt   time.Time
	last        time.Duration
}

// NewClock returns a clock reading time from now; nil uses time.Now.
func NewClock(now func() time.Time) *Clock {
	if now == nil {
		now = time.Now
	}
	return &Clock{now: now}
}

// Start begins measuring and returns the start instant. Restarting a
// running clock is ignored.
func (c *Clock) Start() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started.IsZero() {
		c.started = c.now()
	}
	return c.started
}

// Pause stops accumulating time until Resume.
func (c *Clock) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started.IsZero() || !c.stoppedAt.IsZero() || !c.pausedAt.IsZero() {
		return
	}
	c.pausedAt = c.now()
}

// Resume continues accumulating time.
func (c *Clock) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pausedAt.IsZero() || !c.stoppedAt.IsZero() {
		return
	}
	c.pausedTotal += c.now().Sub(c.pausedAt)
	c.pausedAt = time.Time{}
}

// Stop freezes the clock. A clock stopped while paused does not count the
// trailing pause.
func (c *Clock) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started.IsZero() || !c.stoppedAt.IsZero() {
		return
	}
	c.stoppedAt = c.now()
	if !c.pausedAt.IsZero() {
		c.pausedTotal += c.stoppedAt.Sub(c.pausedAt)
		c.pausedAt = time.Time{}
	}
}

// Paused reports whether the clock is paused.
func (c *Clock) Paused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.pausedAt.IsZero()
}

// Elapsed returns recorded time.
func (c *Clock) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started.IsZero() {
		return 0
	}
	end := c.stoppedAt
	if end.IsZero() {
		end = c.now()
	}
	if !c.pausedAt.IsZero() {
		end = c.pausedAt
	}
	d := end.Sub(c.started) - c.pausedTotal
	// A wall clock stepping backwards must not make the display go back.
	if d < c.last {
		d = c.last
	}
	c.last = d
	return d
}

// Seconds returns whole recorded seconds.
func (c *Clock) Seconds() int { return int(c.Elapsed() / time.Second) }
