package capture

import (
	"sync"
	"time"
)

// Reusable BGR24 frame buffers. A full virtual desktop frame is several
// megabytes and the loops produce ten per second per stream, so frames are
// returned here once written to the encoder.
//
// Usage: AcquireFrame(w, h) returns a *Frame whose Pix length is exactly
// w*h*3. After the consumer is done it calls RecycleFrame. Frames that are
// never recycled are simply collected.

var framePool sync.Pool // stores *Frame

// AcquireFrame returns a reusable frame sized w x h.
func AcquireFrame(w, h int) *Frame {
	if w <= 0 || h <= 0 {
		return &Frame{Width: w, Height: h}
	}
	needed := w * h * 3
	var f *Frame
	if v := framePool.Get(); v != nil {
		f = v.(*Frame)
	}
	if f == nil || cap(f.Pix) < needed {
		f = &Frame{Pix: make([]byte, needed)}
	} else {
		f.Pix = f.Pix[:needed]
	}
	f.Width, f.Height = w, h
	f.Sequence = 0
	f.CapturedAt = time.Time{}
	return f
}

// RecycleFrame returns the frame to the pool for potential reuse. The frame
// must no longer be accessed by the caller after invoking RecycleFrame.
func RecycleFrame(f *Frame) {
	if f == nil || f.Pix == nil {
		return
	}
	framePool.Put(f)
}

// CloneFrame returns a deep copy of f that is not pool-owned.
func CloneFrame(f *Frame) *Frame {
	if f == nil {
		return nil
	}
	cp := *f
	cp.Pix = append([]byte(nil), f.Pix...)
	return &cp
}
