// Package recording runs capture loops that turn a frame source into video.
package recording

import (
	"context"
	"sync/atomic"
)

// Control carries the stop and pause signals of one session. Stop is a
// context cancellation and can never be undone; pause is a toggle. Both
// capture loops of a session share one Control.
type Control struct {
	ctx    context.Context
	cancel context.CancelFunc
	paused atomic.Bool
}

// NewControl derives a session control from parent.
func NewControl(parent context.Context) *Control {
	ctx, cancel := context.WithCancel(parent)
	return &Control{ctx: ctx, cancel: cancel}
}

// Context is cancelled when the session stops.
func (c *Control) Context() context.Context { return c.ctx }

// Done is closed once the session is stopped.
func (c *Control) Done() <-chan struct{} { return c.ctx.Done() }

// Stop sets the stop signal. Safe to call repeatedly.
func (c *Control) Stop() { c.cancel() }

// Stopped reports whether Stop was called or the parent context ended.
func (c *Control) Stopped() bool { return c.ctx.Err() != nil }

// Pause sets the pause signal and reports whether it changed.
func (c *Control) Pause() bool { return c.paused.CompareAndSwap(false, true) }

// Resume clears the pause signal and reports whether it changed.
func (c *Control) Resume() bool { return c.paused.CompareAndSwap(true, false) }

// Paused reports the pause signal.
func (c *Control) Paused() bool { return c.paused.Load() }
