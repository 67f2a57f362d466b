package capture

import (
	"sync/atomic"
	"time"
)

// Meter accumulates capture timings. The zero value is ready to use and all
// methods are safe for concurrent use.
type Meter struct {
	captures     atomic.Uint64
	skipped      atomic.Uint64
	captureNanos atomic.Uint64
	sequence     atomic.Uint64
	lastNanos    atomic.Int64
}

// Observe records one successful capture that took d and returns its
// sequence number.
func (m *Meter) Observe(d time.Duration, at time.Time) uint64 {
	if m == nil {
		return 0
	}
	m.captureNanos.Add(uint64(d.Nanoseconds()))
	m.captures.Add(1)
	m.lastNanos.Store(at.UnixNano())
	return m.sequence.Add(1)
}

// Skip records a capture attempt that produced no usable frame.
func (m *Meter) Skip() {
	if m == nil {
		return
	}
	m.skipped.Add(1)
}

// Stats returns a snapshot of the counters.
func (m *Meter) Stats() Stats {
	if m == nil {
		return Stats{}
	}
	captures := m.captures.Load()
	total := m.captureNanos.Load()
	var avg time.Duration
	if captures > 0 && total > 0 {
		avg = time.Duration(total / captures)
	}
	var last time.Time
	if n := m.lastNanos.Load(); n != 0 {
		last = time.Unix(0, n)
	}
	return Stats{
		Captures:    captures,
		Skipped:     m.skipped.Load(),
		AvgCapture:  avg,
		LastCapture: last,
		Sequence:    m.sequence.Load(),
	}
}
