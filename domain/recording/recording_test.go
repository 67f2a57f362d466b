package recording

import (
	"context"
	"errors"
	"image"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/soocke/productivity-recorder/domain/capture"
	"github.com/soocke/productivity-recorder/domain/video"
)

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

// fakeSource yields frames of a fixed size. limit > 0 ends the stream after
// that many frames.
type fakeSource struct {
	size   image.Point
	limit  int
	reads  atomic.Int64
	closed atomic.Int32
	err    error
	panic  bool
}

func (s *fakeSource) Size() image.Point { return s.size }

func (s *fakeSource) Read(ctx context.Context) (*capture.Frame, error) {
	if s.panic {
		panic("device exploded")
	}
	if s.err != nil {
		return nil, s.err
	}
	n := s.reads.Add(1)
	if s.limit > 0 && int(n) > s.limit {
		return nil, capture.ErrNoFrame
	}
	f := capture.AcquireFrame(s.size.X, s.size.Y)
	f.Sequence = uint64(n)
	return f, nil
}

func (s *fakeSource) Close() error { s.closed.Add(1); return nil }

func opener(src *fakeSource) capture.Opener {
	return func(context.Context) (capture.Source, error) { return src, nil }
}

type sinkRecorder struct {
	mu    sync.Mutex
	sinks []*video.MemorySink
}

func (r *sinkRecorder) factory(path string, size image.Point) (video.Sink, error) {
	s := video.NewMemorySink(size)
	r.mu.Lock()
	r.sinks = append(r.sinks, s)
	r.mu.Unlock()
	return s, nil
}

func (r *sinkRecorder) only(t *testing.T) *video.MemorySink {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.sinks) != 1 {
		t.Fatalf("expected exactly one sink, got %d", len(r.sinks))
	}
	return r.sinks[0]
}

func newLoop(src *fakeSource, rec *sinkRecorder) *Loop {
	return &Loop{
		Stream:    "screen",
		Path:      "screen.mp4",
		Open:      opener(src),
		NewSink:   rec.factory,
		FPS:       200,
		PauseIdle: 10 * time.Millisecond,
		Logger:    discardLogger(),
	}
}

func runAsync(l *Loop, ctl *Control) <-chan Result {
	ch := make(chan Result, 1)
	go func() { ch <- l.Run(context.Background(), ctl) }()
	return ch
}

func waitResult(t *testing.T, ch <-chan Result, within time.Duration) Result {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(within):
		t.Fatalf("loop did not finish within %v", within)
		return Result{}
	}
}

func TestLoop_EndOfStreamIsNotAnError(t *testing.T) {
	src := &fakeSource{size: image.Pt(4, 2), limit: 3}
	rec := &sinkRecorder{}
	res := newLoop(src, rec).Run(context.Background(), NewControl(context.Background()))
	if res.Reason != ReasonEndOfStream || res.Err != nil {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.Frames != 3 || rec.only(t).Frames() != 3 {
		t.Fatalf("frames=%d sink=%d, want 3", res.Frames, rec.only(t).Frames())
	}
	if !rec.only(t).Closed() || src.closed.Load() != 1 {
		t.Fatal("source and sink must be closed exactly once")
	}
}

func TestLoop_StopBeforeFirstFrame(t *testing.T) {
	ctl := NewControl(context.Background())
	ctl.Stop()
	src := &fakeSource{size: image.Pt(2, 2)}
	rec := &sinkRecorder{}
	res := newLoop(src, rec).Run(context.Background(), ctl)
	if res.Reason != ReasonStopped || res.Err != nil {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.Frames > 1 {
		t.Fatalf("stopped loop wrote %d frames", res.Frames)
	}
}

func TestLoop_StopDuringPauseEndsWithinIdle(t *testing.T) {
	ctl := NewControl(context.Background())
	ctl.Pause()
	src := &fakeSource{size: image.Pt(2, 2)}
	l := newLoop(src, &sinkRecorder{})
	l.PauseIdle = 50 * time.Millisecond
	ch := runAsync(l, ctl)
	time.Sleep(20 * time.Millisecond)
	stopAt := time.Now()
	ctl.Stop()
	res := waitResult(t, ch, time.Second)
	if took := time.Since(stopAt); took > l.PauseIdle {
		t.Fatalf("stop while paused took %v, want <= %v", took, l.PauseIdle)
	}
	if res.Reason != ReasonStopped || res.Frames != 0 || src.reads.Load() != 0 {
		t.Fatalf("paused loop consumed frames: %+v reads=%d", res, src.reads.Load())
	}
}

func TestLoop_PauseStopsConsumingFrames(t *testing.T) {
	ctl := NewControl(context.Background())
	src := &fakeSource{size: image.Pt(2, 2)}
	ch := runAsync(newLoop(src, &sinkRecorder{}), ctl)
	time.Sleep(30 * time.Millisecond)
	ctl.Pause()
	time.Sleep(30 * time.Millisecond) // let an in-flight iteration drain
	before := src.reads.Load()
	time.Sleep(60 * time.Millisecond)
	after := src.reads.Load()
	ctl.Stop()
	waitResult(t, ch, time.Second)
	if after != before {
		t.Fatalf("reads advanced while paused: %d -> %d", before, after)
	}
	if before == 0 {
		t.Fatal("expected frames before pausing")
	}
}

func TestLoop_OpenFailureIsReported(t *testing.T) {
	l := &Loop{
		Stream: "webcam",
		Open: func(context.Context) (capture.Source, error) {
			return nil, capture.ErrDeviceUnavailable
		},
		NewSink: (&sinkRecorder{}).factory,
	}
	res := l.Run(context.Background(), NewControl(context.Background()))
	if res.Reason != ReasonFailed || !errors.Is(res.Err, capture.ErrDeviceUnavailable) {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestLoop_SinkFailureClosesSource(t *testing.T) {
	src := &fakeSource{size: image.Pt(2, 2)}
	l := newLoop(src, nil)
	l.NewSink = func(string, image.Point) (video.Sink, error) { return nil, errors.New("disk full") }
	res := l.Run(context.Background(), nil)
	if res.Reason != ReasonFailed || src.closed.Load() != 1 {
		t.Fatalf("unexpected result %+v closed=%d", res, src.closed.Load())
	}
}

func TestLoop_ReadErrorFails(t *testing.T) {
	src := &fakeSource{size: image.Pt(2, 2), err: errors.New("bus error")}
	res := newLoop(src, &sinkRecorder{}).Run(context.Background(), nil)
	if res.Reason != ReasonFailed || res.Err == nil {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestLoop_PanicBecomesFailure(t *testing.T) {
	src := &fakeSource{size: image.Pt(2, 2), panic: true}
	rec := &sinkRecorder{}
	res := newLoop(src, rec).Run(context.Background(), nil)
	if res.Reason != ReasonFailed || res.Err == nil {
		t.Fatalf("unexpected result %+v", res)
	}
	if !rec.only(t).Closed() || src.closed.Load() != 1 {
		t.Fatal("resources not released after panic")
	}
}

func TestLoop_SnapshotCopiesLatestFrame(t *testing.T) {
	src := &fakeSource{size: image.Pt(3, 3), limit: 2}
	l := newLoop(src, &sinkRecorder{})
	if l.Snapshot() != nil {
		t.Fatal("expected nil snapshot before run")
	}
	l.Run(context.Background(), nil)
	snap := l.Snapshot()
	if snap == nil || snap.Sequence != 2 || len(snap.Pix) != 27 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

func TestControl_StopIsMonotonic(t *testing.T) {
	ctl := NewControl(context.Background())
	if ctl.Stopped() {
		t.Fatal("fresh control stopped")
	}
	ctl.Stop()
	ctl.Stop()
	if !ctl.Stopped() {
		t.Fatal("stop not observed")
	}
	if !ctl.Pause() || ctl.Pause() || !ctl.Paused() {
		t.Fatal("pause toggle")
	}
	if !ctl.Resume() || ctl.Resume() || ctl.Paused() {
		t.Fatal("resume toggle")
	}
}

type fakeNow struct{ t time.Time }

func newFakeNow() *fakeNow { return &fakeNow{t: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)} }

func (f *fakeNow) now() time.Time          { return f.t }
func (f *fakeNow) advance(d time.Duration) { f.t = f.t.Add(d) }
func (f *fakeNow) back(d time.Duration)    { f.t = f.t.Add(-d) }
func (f *fakeNow) clock() *Clock           { return NewClock(f.now) }

func TestClock_PauseDoesNotAdvance(t *testing.T) {
	fn := newFakeNow()
	c := fn.clock()
	c.Start()
	fn.advance(3 * time.Second)
	c.Pause()
	fn.advance(10 * time.Second)
	if got := c.Elapsed(); got != 3*time.Second {
		t.Fatalf("elapsed while paused = %v, want 3s", got)
	}
	c.Resume()
	fn.advance(2 * time.Second)
	if got := c.Seconds(); got != 5 {
		t.Fatalf("elapsed after resume = %d, want 5", got)
	}
	c.Stop()
	fn.advance(time.Minute)
	if got := c.Seconds(); got != 5 {
		t.Fatalf("stopped clock moved: %d", got)
	}
}

func TestClock_StopWhilePaused(t *testing.T) {
	fn := newFakeNow()
	c := fn.clock()
	c.Start()
	fn.advance(time.Second)
	c.Pause()
	fn.advance(time.Hour)
	c.Stop()
	if got := c.Elapsed(); got != time.Second {
		t.Fatalf("elapsed = %v, want 1s", got)
	}
}

func TestClock_NeverDecreases(t *testing.T) {
	fn := newFakeNow()
	c := fn.clock()
	c.Start()
	fn.advance(5 * time.Second)
	first := c.Elapsed()
	fn.back(3 * time.Second)
	if got := c.Elapsed(); got < first {
		t.Fatalf("elapsed decreased from %v to %v", first, got)
	}
}

// Elapsed equals wall time minus paused time for any sequence of steps.
func TestClock_PropertyPausedTimeExcluded(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		fn := newFakeNow()
		c := fn.clock()
		c.Start()
		var want, prev time.Duration
		paused := false
		steps := rapid.IntRange(1, 40).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			d := time.Duration(rapid.IntRange(0, 5000).Draw(t, "ms")) * time.Millisecond
			fn.advance(d)
			if !paused {
				want += d
			}
			if rapid.Bool().Draw(t, "toggle") {
				if paused {
					c.Resume()
				} else {
					c.Pause()
				}
				paused = !paused
			}
			got := c.Elapsed()
			if got != want {
				t.Fatalf("step %d: elapsed %v, want %v", i, got, want)
			}
			if got < prev {
				t.Fatalf("step %d: elapsed decreased %v -> %v", i, prev, got)
			}
			prev = got
		}
	})
}
