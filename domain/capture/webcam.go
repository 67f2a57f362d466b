package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"time"

	"github.com/soocke/productivity-recorder/domain/ffmpeg"
)

// WebcamConfig selects the capture device and the tools used to read it.
type WebcamConfig struct {
	FFmpeg  string
	FFprobe string
	Format  string // ffmpeg input format: v4l2, dshow, avfoundation
	Device  string
	FPS     int
}

// WebcamSource streams raw BGR24 frames from an ffmpeg process reading a
// capture device at its native resolution.
type WebcamSource struct {
	proc   *ffmpeg.Process
	stdout io.Reader
	size   image.Point
	meter  *Meter
	logger *slog.Logger
}

// OpenWebcam returns an Opener for the configured device. The native frame
// size is probed once; probing or process start failures are reported as
// ErrDeviceUnavailable.
func OpenWebcam(cfg WebcamConfig, meter *Meter, logger *slog.Logger) Opener {
	return func(ctx context.Context) (Source, error) {
		info, err := ffmpeg.ProbeDevice(ctx, cfg.FFprobe, cfg.Format, cfg.Device)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		proc, err := ffmpeg.Start(cfg.FFmpeg, ffmpeg.DeviceArgs(cfg.Format, cfg.Device, cfg.FPS), false, true)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
		}
		if logger != nil {
			logger.Debug("webcam opened", "device", cfg.Device, "format", cfg.Format, "width", info.Width, "height", info.Height)
		}
		return &WebcamSource{
			proc:   proc,
			stdout: proc.Stdout(),
			size:   image.Pt(info.Width, info.Height),
			meter:  meter,
			logger: logger,
		}, nil
	}
}

// NewWebcamSource wraps an already running frame stream; used by tests and
// alternative backends.
func NewWebcamSource(r io.Reader, size image.Point, meter *Meter) *WebcamSource {
	return &WebcamSource{stdout: r, size: size, meter: meter}
}

// Size implements Source.
func (s *WebcamSource) Size() image.Point { return s.size }

// Read blocks for the next full frame. A closed or truncated stream yields
// ErrNoFrame. Cancelling ctx aborts a blocked read by terminating ffmpeg.
func (s *WebcamSource) Read(ctx context.Context) (*Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.proc != nil {
		stop := context.AfterFunc(ctx, s.proc.Abort)
		defer stop()
	}
	start := time.Now()
	f := AcquireFrame(s.size.X, s.size.Y)
	if _, err := io.ReadFull(s.stdout, f.Pix); err != nil {
		RecycleFrame(f)
		s.meter.Skip()
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrNoFrame
		}
		return nil, fmt.Errorf("read webcam frame: %w", err)
	}
	f.CapturedAt = time.Now()
	f.Sequence = s.meter.Observe(f.CapturedAt.Sub(start), f.CapturedAt)
	return f, nil
}

// Close terminates the ffmpeg reader.
func (s *WebcamSource) Close() error {
	if s.proc == nil {
		return nil
	}
	err := s.proc.Kill()
	if err != nil && s.logger != nil {
		s.logger.Debug("webcam close", "error", err)
	}
	return err
}
