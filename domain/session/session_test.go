package session

import (
	"context"
	"errors"
	"image"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/soocke/productivity-recorder/config"
	"github.com/soocke/productivity-recorder/domain/capture"
	"github.com/soocke/productivity-recorder/domain/recording"
	"github.com/soocke/productivity-recorder/domain/video"
)

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

type endlessSource struct{ size image.Point }

func (s endlessSource) Size() image.Point { return s.size }
func (s endlessSource) Close() error      { return nil }
func (s endlessSource) Read(ctx context.Context) (*capture.Frame, error) {
	return capture.AcquireFrame(s.size.X, s.size.Y), nil
}

type fakeDevices struct {
	mu       sync.Mutex
	sinks    map[string]*video.MemorySink
	noWebcam bool
}

func (d *fakeDevices) factory(cfg *config.Config, logger *slog.Logger) Sources {
	d.mu.Lock()
	if d.sinks == nil {
		d.sinks = map[string]*video.MemorySink{}
	}
	d.mu.Unlock()
	s := Sources{
		Screen: func(context.Context) (capture.Source, error) { return endlessSource{image.Pt(8, 6)}, nil },
		Webcam: func(context.Context) (capture.Source, error) { return endlessSource{image.Pt(4, 4)}, nil },
		Sink:   video.MemoryFactory(d.sinks, &d.mu),
	}
	if d.noWebcam {
		s.Webcam = func(context.Context) (capture.Source, error) {
			return nil, capture.ErrDeviceUnavailable
		}
	}
	return s
}

func (d *fakeDevices) frames(path string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if s := d.sinks[path]; s != nil {
		return s.Frames()
	}
	return 0
}

type manualNow struct {
	mu sync.Mutex
	t  time.Time
}

func (m *manualNow) now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.t
}

func (m *manualNow) advance(d time.Duration) {
	m.mu.Lock()
	m.t = m.t.Add(d)
	m.mu.Unlock()
}

func testConfig(t *testing.T) *config.Config {
	cfg := config.DefaultConfig()
	cfg.OutputDir = filepath.Join(t.TempDir(), "output")
	cfg.FPS = 50
	cfg.PauseIdleMillis = 10
	return cfg
}

func newTestController(t *testing.T, dev *fakeDevices, opts ...Option) *Controller {
	t.Helper()
	c := NewController(testConfig(t), discardLogger(), append([]Option{WithSources(dev.factory)}, opts...)...)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.Close(ctx); err != nil {
			t.Errorf("close: %v", err)
		}
	})
	return c
}

func waitOutcome(t *testing.T, c *Controller) Outcome {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	out, err := c.Wait(ctx)
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	return out
}

func TestController_StartWritesMetadataFirst(t *testing.T) {
	dev := &fakeDevices{}
	c := newTestController(t, dev)
	req, err := ParseRequest("write report", "2024-05-01 09:00:00", "2024-05-01 10:00:00", "")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	sess, err := c.Start(req)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	m, err := LoadMetadata(sess.MetadataPath)
	if err != nil {
		t.Fatalf("metadata not written synchronously: %v", err)
	}
	if m != sess.Metadata() {
		t.Fatalf("metadata mismatch: got %+v want %+v", m, sess.Metadata())
	}
	if m.DatetimeStart != "2024-05-01 09:00:00" || m.SessionID == "" {
		t.Fatalf("unexpected metadata %+v", m)
	}
	if filepath.Base(filepath.Dir(sess.ScreenPath)) != filepath.Base(sess.Dir) {
		t.Fatalf("screen file outside session dir: %s", sess.ScreenPath)
	}
	_ = c.Stop()
	waitOutcome(t, c)
}

func TestController_SecondStartRejected(t *testing.T) {
	c := newTestController(t, &fakeDevices{})
	if _, err := c.Start(Request{Task: "a"}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := c.Start(Request{Task: "b"}); !errors.Is(err, ErrSessionActive) {
		t.Fatalf("expected ErrSessionActive, got %v", err)
	}
	_ = c.Stop()
	waitOutcome(t, c)
	if _, err := c.Start(Request{Task: "c"}); err != nil {
		t.Fatalf("start after finish: %v", err)
	}
	_ = c.Stop()
	waitOutcome(t, c)
}

func TestController_ImmediateStop(t *testing.T) {
	c := newTestController(t, &fakeDevices{})
	if _, err := c.Start(Request{}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := c.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	out := waitOutcome(t, c)
	if out.Err() != nil {
		t.Fatalf("unexpected outcome error: %v", out.Err())
	}
	for _, r := range out.Results {
		if r.Reason != recording.ReasonStopped {
			t.Fatalf("%s ended with %s", r.Stream, r.Reason)
		}
	}
	if c.State() != StateFinished {
		t.Fatalf("state = %v", c.State())
	}
}

func TestController_WebcamFailureDoesNotStopScreen(t *testing.T) {
	dev := &fakeDevices{noWebcam: true}
	c := newTestController(t, dev)
	sess, err := c.Start(Request{Task: "no camera"})
	if err != nil {
		t.Fatalf("start must succeed without webcam: %v", err)
	}
	time.Sleep(100 * time.Millisecond)
	if c.State() != StateRecording {
		t.Fatalf("screen stopped after webcam failure, state=%v", c.State())
	}
	_ = c.Stop()
	out := waitOutcome(t, c)
	cam, _ := out.Result(StreamWebcam)
	if cam.Reason != recording.ReasonFailed || !errors.Is(cam.Err, capture.ErrDeviceUnavailable) {
		t.Fatalf("webcam result %+v", cam)
	}
	scr, _ := out.Result(StreamScreen)
	if scr.Reason != recording.ReasonStopped || scr.Frames == 0 || dev.frames(sess.ScreenPath) != scr.Frames {
		t.Fatalf("screen result %+v sink frames %d", scr, dev.frames(sess.ScreenPath))
	}
	if !errors.Is(out.Err(), capture.ErrDeviceUnavailable) {
		t.Fatalf("outcome must surface webcam failure, got %v", out.Err())
	}
}

func TestController_PauseFreezesElapsed(t *testing.T) {
	clock := &manualNow{t: time.Date(2024, 5, 1, 9, 0, 0, 0, time.Local)}
	c := newTestController(t, &fakeDevices{}, WithNow(clock.now))
	if _, err := c.Start(Request{}); err != nil {
		t.Fatalf("start: %v", err)
	}
	clock.advance(4 * time.Second)
	if err := c.Pause(); err != nil {
		t.Fatalf("pause: %v", err)
	}
	clock.advance(30 * time.Second)
	if got := c.ElapsedSeconds(); got != 4 {
		t.Fatalf("elapsed while paused = %d, want 4", got)
	}
	if err := c.Resume(); err != nil {
		t.Fatalf("resume: %v", err)
	}
	clock.advance(2 * time.Second)
	if got := c.ElapsedSeconds(); got != 6 {
		t.Fatalf("elapsed after resume = %d, want 6", got)
	}
	_ = c.Stop()
	out := waitOutcome(t, c)
	if out.Elapsed != 6*time.Second {
		t.Fatalf("outcome elapsed = %v", out.Elapsed)
	}
}

func TestController_DurationStopsSession(t *testing.T) {
	c := newTestController(t, &fakeDevices{})
	const d = 200 * time.Millisecond
	if _, err := c.Start(Request{Duration: d}); err != nil {
		t.Fatalf("start: %v", err)
	}
	out := waitOutcome(t, c)
	poll := c.Config().PauseIdle()
	if !out.TimedOut || out.Elapsed < d || out.Elapsed > d+poll+50*time.Millisecond {
		t.Fatalf("timed out=%v elapsed=%v, want within one poll (%v) of %v", out.TimedOut, out.Elapsed, poll, d)
	}
}

func TestController_ControlsWhenIdle(t *testing.T) {
	c := newTestController(t, &fakeDevices{})
	for name, fn := range map[string]func() error{"pause": c.Pause, "resume": c.Resume, "stop": c.Stop} {
		if err := fn(); !errors.Is(err, ErrNoSession) {
			t.Fatalf("%s when idle: %v", name, err)
		}
	}
	select {
	case <-c.Done():
	default:
		t.Fatal("Done must be closed with no session")
	}
	if c.ElapsedSeconds() != 0 {
		t.Fatal("elapsed without session")
	}
}

func TestController_ListenersSeeLifecycle(t *testing.T) {
	c := newTestController(t, &fakeDevices{})
	var (
		mu     sync.Mutex
		states []State
	)
	finished := make(chan Outcome, 1)
	c.AddStateListener(func(_, next State) {
		mu.Lock()
		states = append(states, next)
		mu.Unlock()
	})
	c.AddOutcomeListener(func(o Outcome) { finished <- o })

	if _, err := c.Start(Request{}); err != nil {
		t.Fatal(err)
	}
	_ = c.Pause()
	_ = c.Resume()
	_ = c.Stop()
	select {
	case <-finished:
	case <-time.After(5 * time.Second):
		t.Fatal("outcome listener not called")
	}
	mu.Lock()
	defer mu.Unlock()
	want := []State{StateRecording, StatePaused, StateRecording, StateStopping, StateFinished}
	if len(states) != len(want) {
		t.Fatalf("states = %v, want %v", states, want)
	}
	for i := range want {
		if states[i] != want[i] {
			t.Fatalf("states = %v, want %v", states, want)
		}
	}
}

func TestController_ReentrantListenerDoesNotBlockControls(t *testing.T) {
	c := newTestController(t, &fakeDevices{})
	c.AddStateListener(func(_, _ State) {
		_ = c.State()
		_ = c.Elapsed()
		time.Sleep(time.Millisecond)
	})
	if _, err := c.Start(Request{}); err != nil {
		t.Fatal(err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		var wg sync.WaitGroup
		for range 4 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for range 200 {
					_ = c.Pause()
					_ = c.Preview(StreamScreen)
					_ = c.Resume()
					_ = c.ElapsedSeconds()
				}
			}()
		}
		wg.Wait()
		_ = c.Stop()
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("controls blocked behind a slow listener")
	}
	waitOutcome(t, c)
}

func TestController_FlatLayoutSkipsMetadata(t *testing.T) {
	dev := &fakeDevices{}
	c := newTestController(t, dev)
	cfg := c.Config()
	cfg.Layout = config.LayoutFlat
	c.UpdateConfig(cfg)
	sess, err := c.Start(Request{})
	if err != nil {
		t.Fatal(err)
	}
	if sess.MetadataPath != "" || filepath.Dir(sess.ScreenPath) != cfg.OutputDir {
		t.Fatalf("unexpected flat paths %+v", sess.Paths)
	}
	_ = c.Stop()
	waitOutcome(t, c)
}

func TestController_ClosedRejectsStart(t *testing.T) {
	c := NewController(testConfig(t), nil, WithSources((&fakeDevices{}).factory))
	if err := c.Close(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Start(Request{}); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestParseRequest(t *testing.T) {
	cases := []struct {
		name, start, end, minutes string
		field                     string
	}{
		{name: "empty ok"},
		{name: "minutes", minutes: "25"},
		{name: "zero minutes", minutes: "0", field: "minutes"},
		{name: "negative", minutes: "-3", field: "minutes"},
		{name: "text", minutes: "ten", field: "minutes"},
		{name: "bad start", start: "tomorrow", field: "start"},
		{name: "inverted", start: "2024-05-01 10:00:00", end: "2024-05-01 09:00:00", field: "end"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseRequest("task", tc.start, tc.end, tc.minutes)
			if tc.field == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var ie *InputError
			if !errors.As(err, &ie) || ie.Field != tc.field {
				t.Fatalf("expected InputError on %s, got %v", tc.field, err)
			}
		})
	}
}

func TestParseRequest_MinutesProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(-1000, 1000).Draw(t, "minutes")
		req, err := ParseRequest("t", "", "", strconv.Itoa(n))
		if n > 0 {
			if err != nil || req.Duration != time.Duration(n)*time.Minute {
				t.Fatalf("minutes %d: req=%+v err=%v", n, req, err)
			}
			return
		}
		var ie *InputError
		if !errors.As(err, &ie) {
			t.Fatalf("minutes %d accepted", n)
		}
	})
}

func TestMetadata_RoundTripProperty(t *testing.T) {
	dir := t.TempDir()
	rapid.Check(t, func(t *rapid.T) {
		m := Metadata{
			TaskDescription: rapid.String().Draw(t, "task"),
			DatetimeStart:   rapid.String().Draw(t, "start"),
			DatetimeEnd:     rapid.String().Draw(t, "end"),
			ActualStartTime: rapid.String().Draw(t, "actual"),
			SessionID:       rapid.StringMatching(`[0-9a-f-]{0,36}`).Draw(t, "id"),
		}
		path := filepath.Join(dir, MetadataFile)
		if err := WriteMetadata(path, m); err != nil {
			t.Fatalf("write: %v", err)
		}
		got, err := LoadMetadata(path)
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if got != m {
			t.Fatalf("round trip: got %+v want %+v", got, m)
		}
	})
}

func TestMetadata_PrettyPrinted(t *testing.T) {
	path := filepath.Join(t.TempDir(), MetadataFile)
	if err := WriteMetadata(path, Metadata{TaskDescription: "x"}); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	want := "{\n  \"task_description\": \"x\",\n  \"datetime_start\": \"\",\n  \"datetime_end\": \"\",\n  \"actual_start_time\": \"\"\n}\n"
	if string(data) != want {
		t.Fatalf("unexpected file:\n%s", data)
	}
	if runtime.GOOS != "windows" {
		fi, err := os.Stat(path)
		if err != nil {
			t.Fatal(err)
		}
		if fi.Mode().Perm()&0o044 != 0o044 {
			t.Fatalf("metadata mode = %v, want group and other readable", fi.Mode().Perm())
		}
	}
	if _, err := LoadMetadata(filepath.Join(t.TempDir(), "missing.json")); !errors.Is(err, ErrNoMetadata) {
		t.Fatalf("expected ErrNoMetadata, got %v", err)
	}
}

func TestPlanPaths_SuffixWhenTaken(t *testing.T) {
	root := t.TempDir()
	ts := time.Date(2024, 5, 1, 9, 30, 0, 0, time.Local)
	first, err := PlanPaths(root, config.LayoutSession, ts)
	if err != nil {
		t.Fatal(err)
	}
	second, err := PlanPaths(root, config.LayoutSession, ts)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(first.Dir) != "task_2024-05-01_09-30-00" || filepath.Base(second.Dir) != "task_2024-05-01_09-30-00-2" {
		t.Fatalf("dirs %s, %s", first.Dir, second.Dir)
	}
	flat, err := PlanPaths(root, config.LayoutFlat, ts)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(flat.ScreenPath) != "screen_2024-05-01_09-30-00.mp4" || flat.MetadataPath != "" {
		t.Fatalf("flat paths %+v", flat)
	}
}

func TestStore_List(t *testing.T) {
	root := t.TempDir()
	older := time.Date(2024, 5, 1, 9, 0, 0, 0, time.Local)
	newer := older.Add(time.Hour)

	p, err := PlanPaths(root, config.LayoutSession, older)
	if err != nil {
		t.Fatal(err)
	}
	sess := &Session{TaskDescription: "old task", ActualStart: older, Paths: p}
	if err := WriteMetadata(p.MetadataPath, sess.Metadata()); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p.ScreenPath, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	flat, _ := PlanPaths(root, config.LayoutFlat, newer)
	for _, f := range []string{flat.ScreenPath, flat.WebcamPath} {
		if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	records, err := NewStore(root).List()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %+v", records)
	}
	if !records[0].Started.Equal(newer) || len(records[0].Files) != 2 || records[0].Metadata != nil {
		t.Fatalf("flat record %+v", records[0])
	}
	if records[1].Metadata == nil || records[1].Metadata.TaskDescription != "old task" || len(records[1].Files) != 2 {
		t.Fatalf("session record %+v", records[1])
	}

	none, err := NewStore(filepath.Join(root, "missing")).List()
	if err != nil || len(none) != 0 {
		t.Fatalf("missing root: %v %v", none, err)
	}
}
