package recording

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/soocke/productivity-recorder/domain/capture"
	"github.com/soocke/productivity-recorder/domain/video"
)

const (
	// DefaultFPS is the capture cadence and the encoded frame rate.
	DefaultFPS = 10
	// DefaultPauseIdle bounds each sleep while paused.
	DefaultPauseIdle = 100 * time.Millisecond

	statsLogInterval = 5 * time.Second
)

// Reason tells why a loop ended.
type Reason string

const (
	ReasonStopped     Reason = "stopped"
	ReasonEndOfStream Reason = "end_of_stream"
	ReasonFailed      Reason = "failed"
)

// Result is the completion signal of one loop.
type Result struct {
	Stream  string
	Path    string
	Frames  int
	Started time.Time
	Ended   time.Time
	Reason  Reason
	Err     error
}

// OK reports whether the loop ended without failure.
func (r Result) OK() bool { return r.Reason != ReasonFailed }

// Loop records one stream. Configure the exported fields and call Run once.
type Loop struct {
	Stream    string
	Path      string
	Open      capture.Opener
	NewSink   video.Factory
	FPS       int
	PauseIdle time.Duration
	Meter     *capture.Meter
	Logger    *slog.Logger

	mu   sync.Mutex
	last *capture.Frame
}

// Run opens the source and sink, then copies frames at the configured
// cadence until ctl is stopped, ctx ends, the source runs dry, or an error
// occurs. The source and sink are closed exactly once on every path.
//
// A frame already captured when the stop signal arrives is still written.
func (l *Loop) Run(ctx context.Context, ctl *Control) (res Result) {
	res = Result{Stream: l.Stream, Path: l.Path, Started: time.Now()}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if ctl != nil {
		stop := context.AfterFunc(ctl.Context(), cancel)
		defer stop()
		if ctl.Stopped() {
			cancel()
		}
	}

	var (
		src  capture.Source
		sink video.Sink
	)
	defer func() {
		if r := recover(); r != nil {
			res.Reason = ReasonFailed
			res.Err = fmt.Errorf("%s loop panic: %v", l.Stream, r)
			if l.Logger != nil {
				l.Logger.Error("capture loop panic", "stream", l.Stream, "error", r, "stack", string(debug.Stack()))
			}
		}
		res.Err = errors.Join(res.Err, l.release(src, sink))
		if res.Err != nil && res.Reason != ReasonFailed && !errors.Is(res.Err, context.Canceled) {
			res.Reason = ReasonFailed
		}
		res.Ended = time.Now()
		l.logResult(res)
	}()

	if l.Open == nil || l.NewSink == nil {
		res.Reason, res.Err = ReasonFailed, errors.New("recording: loop not configured")
		return res
	}
	var err error
	if src, err = l.Open(ctx); err != nil {
		if ctx.Err() != nil {
			res.Reason = ReasonStopped
			return res
		}
		res.Reason, res.Err = ReasonFailed, fmt.Errorf("open %s: %w", l.Stream, err)
		return res
	}
	if sink, err = l.NewSink(l.Path, src.Size()); err != nil {
		res.Reason, res.Err = ReasonFailed, fmt.Errorf("open %s sink: %w", l.Stream, err)
		return res
	}
	if l.Logger != nil {
		l.Logger.Info("capture loop started", "stream", l.Stream, "path", l.Path, "width", src.Size().X, "height", src.Size().Y)
	}

	res.Reason, res.Err = l.pump(ctx, ctl, src, sink, &res.Frames)
	return res
}

func (l *Loop) pump(ctx context.Context, ctl *Control, src capture.Source, sink video.Sink, frames *int) (Reason, error) {
	fps := l.FPS
	if fps <= 0 {
		fps = DefaultFPS
	}
	idle := l.PauseIdle
	if idle <= 0 {
		idle = DefaultPauseIdle
	}
	limiter := rate.NewLimiter(rate.Limit(fps), 1)
	idleTimer := time.NewTimer(idle)
	defer idleTimer.Stop()
	lastStats := time.Now()

	for {
		if ctx.Err() != nil {
			return ReasonStopped, nil
		}
		if ctl != nil && ctl.Paused() {
			idleTimer.Reset(idle)
			select {
			case <-ctx.Done():
				return ReasonStopped, nil
			case <-idleTimer.C:
			}
			continue
		}
		if err := limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return ReasonStopped, nil
			}
			return ReasonFailed, err
		}
		f, err := src.Read(ctx)
		if err != nil {
			switch {
			case errors.Is(err, capture.ErrNoFrame):
				return ReasonEndOfStream, nil
			case ctx.Err() != nil:
				return ReasonStopped, nil
			default:
				return ReasonFailed, fmt.Errorf("read %s frame: %w", l.Stream, err)
			}
		}
		if err := sink.WriteFrame(f); err != nil {
			capture.RecycleFrame(f)
			return ReasonFailed, fmt.Errorf("write %s frame: %w", l.Stream, err)
		}
		*frames++
		l.publish(f)

		if now := time.Now(); now.Sub(lastStats) >= statsLogInterval {
			lastStats = now
			l.logStats(*frames)
		}
	}
}

func (l *Loop) release(src capture.Source, sink video.Sink) error {
	var errs []error
	if sink != nil {
		if err := sink.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s sink: %w", l.Stream, err))
		}
	}
	if src != nil {
		if err := src.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s source: %w", l.Stream, err))
		}
	}
	return errors.Join(errs...)
}

// publish makes f the latest frame and recycles the previous one.
func (l *Loop) publish(f *capture.Frame) {
	l.mu.Lock()
	prev := l.last
	l.last = f
	l.mu.Unlock()
	capture.RecycleFrame(prev)
}

// Snapshot returns a copy of the most recently written frame, or nil.
func (l *Loop) Snapshot() *capture.Frame {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return capture.CloneFrame(l.last)
}

func (l *Loop) logStats(frames int) {
	if l.Logger == nil || l.Meter == nil {
		return
	}
	st := l.Meter.Stats()
	l.Logger.Debug("capture.stats",
		"stream", l.Stream,
		"frames", frames,
		"captures", st.Captures,
		"skipped", st.Skipped,
		"avg_capture", st.AvgCapture,
	)
}

func (l *Loop) logResult(res Result) {
	if l.Logger == nil {
		return
	}
	attrs := []any{"stream", res.Stream, "reason", string(res.Reason), "frames", res.Frames, "duration", res.Ended.Sub(res.Started)}
	if res.Err != nil {
		l.Logger.Error("capture loop ended", append(attrs, "error", res.Err)...)
		return
	}
	l.Logger.Info("capture loop ended", attrs...)
}
