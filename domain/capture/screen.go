package capture

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/vova616/screenshot"
)

// GrabFunc captures the given rectangle of the desktop.
type GrabFunc func(image.Rectangle) (*image.RGBA, error)

// ScreenSource captures a fixed rectangle of the desktop, by default the
// bounding box of all monitors.
type ScreenSource struct {
	bounds image.Rectangle
	grab   GrabFunc
	meter  *Meter
}

// NewScreenSource returns a source grabbing bounds with grab. A nil grab uses
// the platform screenshot backend.
func NewScreenSource(bounds image.Rectangle, grab GrabFunc, meter *Meter) (*ScreenSource, error) {
	if bounds.Empty() {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBounds, bounds)
	}
	if grab == nil {
		grab = screenshot.CaptureRect
	}
	return &ScreenSource{bounds: bounds, grab: grab, meter: meter}, nil
}

// OpenScreen returns an Opener for the full virtual desktop. Bounds are
// computed once when the loop opens the source.
func OpenScreen(meter *Meter) Opener {
	return func(ctx context.Context) (Source, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		prepareDisplay()
		bounds, err := VirtualDesktop()
		if err != nil {
			return nil, fmt.Errorf("%w: screen: %v", ErrDeviceUnavailable, err)
		}
		return NewScreenSource(bounds, nil, meter)
	}
}

// Bounds returns the captured rectangle in desktop coordinates.
func (s *ScreenSource) Bounds() image.Rectangle { return s.bounds }

// Size implements Source.
func (s *ScreenSource) Size() image.Point { return s.bounds.Size() }

// Read grabs the desktop and converts it to BGR24.
func (s *ScreenSource) Read(ctx context.Context) (*Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	img, err := s.grab(s.bounds)
	if err != nil {
		s.meter.Skip()
		return nil, fmt.Errorf("capture screen %v: %w", s.bounds, err)
	}
	if img == nil {
		s.meter.Skip()
		return nil, ErrNoFrame
	}
	f := AcquireFrame(s.bounds.Dx(), s.bounds.Dy())
	RGBAToBGR(f, img)
	f.CapturedAt = time.Now()
	f.Sequence = s.meter.Observe(f.CapturedAt.Sub(start), f.CapturedAt)
	return f, nil
}

// Close implements Source. Screen grabs hold no long-lived handle.
func (s *ScreenSource) Close() error { return nil }
