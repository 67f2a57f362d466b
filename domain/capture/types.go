package capture

import (
	"context"
	"errors"
	"image"
	"time"
)

var (
	// ErrNoFrame reports that a source produced no frame (end of stream).
	ErrNoFrame = errors.New("capture: no frame")
	// ErrDeviceUnavailable reports that a capture device could not be opened.
	ErrDeviceUnavailable = errors.New("capture: device unavailable")
	// ErrInvalidBounds reports an empty or degenerate capture area.
	ErrInvalidBounds = errors.New("capture: invalid bounds")
)

// Frame is one captured image in BGR24 layout: 3 bytes per pixel, rows
// packed without padding (stride = Width*3).
type Frame struct {
	Pix        []byte
	Width      int
	Height     int
	CapturedAt time.Time
	Sequence   uint64
}

// Size returns the frame dimensions.
func (f *Frame) Size() image.Point {
	if f == nil {
		return image.Point{}
	}
	return image.Pt(f.Width, f.Height)
}

// Source produces same-shaped frames. Size is fixed when the source is
// opened and never changes. Read blocks until a frame is available.
type Source interface {
	Size() image.Point
	Read(ctx context.Context) (*Frame, error)
	Close() error
}

// Opener opens a Source. Capture loops call it exactly once per run.
type Opener func(ctx context.Context) (Source, error)

// Stats summarises capture behaviour for instrumentation.
type Stats struct {
	Captures    uint64
	Skipped     uint64
	AvgCapture  time.Duration
	LastCapture time.Time
	Sequence    uint64
}
