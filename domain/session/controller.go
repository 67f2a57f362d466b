package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/soocke/productivity-recorder/config"
	"github.com/soocke/productivity-recorder/domain/capture"
	"github.com/soocke/productivity-recorder/domain/recording"
	"github.com/soocke/productivity-recorder/domain/video"
)

var (
	// ErrSessionActive is returned by Start while another session runs.
	ErrSessionActive = errors.New("session: already active")
	// ErrNoSession is returned by controls that need a running session.
	ErrNoSession = errors.New("session: none active")
	// ErrClosed is returned once the controller has been closed.
	ErrClosed = errors.New("session: controller closed")
)

// Sources are the device openers and sink factory for one session. A nil
// Webcam disables webcam recording.
type Sources struct {
	Screen      capture.Opener
	Webcam      capture.Opener
	Sink        video.Factory
	ScreenMeter *capture.Meter
	WebcamMeter *capture.Meter
}

// SourceFactory builds Sources from the configuration of a starting session.
type SourceFactory func(cfg *config.Config, logger *slog.Logger) Sources

// DeviceSources opens the real desktop and webcam and encodes with ffmpeg.
func DeviceSources(cfg *config.Config, logger *slog.Logger) Sources {
	s := Sources{
		ScreenMeter: &capture.Meter{},
		Sink: video.FFmpegFactory(video.Params{
			FFmpeg:  cfg.FFmpegPath,
			FPS:     cfg.FPS,
			Codec:   cfg.Codec,
			Tag:     cfg.CodecTag,
			Quality: cfg.Quality,
		}, logger),
	}
	s.Screen = capture.OpenScreen(s.ScreenMeter)
	if cfg.RecordWebcam {
		s.WebcamMeter = &capture.Meter{}
		s.Webcam = capture.OpenWebcam(capture.WebcamConfig{
			FFmpeg:  cfg.FFmpegPath,
			FFprobe: cfg.FFprobePath,
			Format:  cfg.WebcamFormat,
			Device:  cfg.WebcamDevice,
			FPS:     cfg.FPS,
		}, s.WebcamMeter, logger)
	}
	return s
}

// Option configures a Controller.
type Option func(*Controller)

// WithSources replaces the device sources, e.g. with fakes in tests.
func WithSources(f SourceFactory) Option { return func(c *Controller) { c.sources = f } }

// WithNow replaces the clock used for timestamps and elapsed time.
func WithNow(now func() time.Time) Option { return func(c *Controller) { c.now = now } }

// Controller runs at most one session at a time. All methods are safe for
// concurrent use. Listeners are invoked in order from a dedicated goroutine.
type Controller struct {
	mu      sync.Mutex
	cfg     *config.Config
	logger  *slog.Logger
	sources SourceFactory
	now     func() time.Time
	state   State
	current *run
	last    *Outcome
	closed  bool

	// Listener events queue here and are drained by dispatch. emit never
	// blocks, so it is safe under mu even when listeners call back in.
	qmu     sync.Mutex
	qcond   *sync.Cond
	queue   []any
	qclosed bool

	idle chan struct{}
}

type run struct {
	sess     *Session
	ctl      *recording.Control
	clock    *recording.Clock
	loops    []*recording.Loop
	done     chan struct{}
	timedOut bool
}

type (
	evtState struct{ prev, next State }
	evtDone  struct{ outcome Outcome }
	evtAddSL struct{ l StateListener }
	evtAddOL struct{ l OutcomeListener }
)

// NewController returns an idle controller using cfg for every new session.
func NewController(cfg *config.Config, logger *slog.Logger, opts ...Option) *Controller {
	c := &Controller{
		cfg:     cfg.Clone(),
		logger:  logger,
		sources: DeviceSources,
		now:     time.Now,
		idle:    make(chan struct{}),
	}
	c.qcond = sync.NewCond(&c.qmu)
	close(c.idle)
	for _, o := range opts {
		o(c)
	}
	go c.dispatch()
	return c
}

func (c *Controller) dispatch() {
	var (
		stateLs   []StateListener
		outcomeLs []OutcomeListener
	)
	for {
		c.qmu.Lock()
		for len(c.queue) == 0 && !c.qclosed {
			c.qcond.Wait()
		}
		batch := c.queue
		c.queue = nil
		closed := c.qclosed
		c.qmu.Unlock()
		if len(batch) == 0 && closed {
			return
		}
		for _, ev := range batch {
			switch e := ev.(type) {
			case evtAddSL:
				stateLs = append(stateLs, e.l)
			case evtAddOL:
				outcomeLs = append(outcomeLs, e.l)
			case evtState:
				for _, l := range stateLs {
					c.call(func() { l(e.prev, e.next) })
				}
			case evtDone:
				for _, l := range outcomeLs {
					c.call(func() { l(e.outcome) })
				}
			}
		}
	}
}

// call runs a listener, logging instead of propagating a panic.
func (c *Controller) call(fn func()) {
	defer func() {
		if r := recover(); r != nil && c.logger != nil {
			c.logger.Error("session listener panic", "error", r, "stack", string(debug.Stack()))
		}
	}()
	fn()
}

// emit queues an event for listeners without blocking.
func (c *Controller) emit(ev any) {
	c.qmu.Lock()
	defer c.qmu.Unlock()
	if c.qclosed {
		return
	}
	c.queue = append(c.queue, ev)
	c.qcond.Signal()
}

// AddStateListener registers l for state transitions.
func (c *Controller) AddStateListener(l StateListener) {
	if c == nil || l == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.emit(evtAddSL{l})
}

// AddOutcomeListener registers l for session completions.
func (c *Controller) AddOutcomeListener(l OutcomeListener) {
	if c == nil || l == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.emit(evtAddOL{l})
}

// transition changes state and notifies listeners. Callers hold c.mu.
func (c *Controller) transition(next State) {
	prev := c.state
	if prev == next {
		return
	}
	c.state = next
	if c.logger != nil {
		c.logger.Info("session state", "from", prev.String(), "to", next.String())
	}
	c.emit(evtState{prev, next})
}

// UpdateConfig applies cfg to the next session; a running one is unaffected.
func (c *Controller) UpdateConfig(cfg *config.Config) {
	if c == nil || cfg == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg = cfg.Clone()
}

// Config returns a copy of the configuration used for new sessions.
func (c *Controller) Config() *config.Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg.Clone()
}

// Start creates the output location, writes the metadata and spawns the
// screen and webcam loops. It returns without waiting for any frame.
func (c *Controller) Start(req Request) (*Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}
	if c.state.Active() {
		return nil, ErrSessionActive
	}
	cfg := c.cfg.Clone()
	started := c.now()
	paths, err := PlanPaths(cfg.OutputDir, cfg.Layout, started)
	if err != nil {
		return nil, err
	}
	sess := &Session{
		ID:              uuid.NewString(),
		TaskDescription: req.Task,
		AllowedStart:    req.AllowedStart,
		AllowedEnd:      req.AllowedEnd,
		ActualStart:     started,
		Duration:        req.Duration,
		Paths:           paths,
	}
	if sess.MetadataPath != "" {
		if err := WriteMetadata(sess.MetadataPath, sess.Metadata()); err != nil {
			return nil, err
		}
	}

	src := c.sources(cfg, c.logger)
	r := &run{
		sess:  sess,
		ctl:   recording.NewControl(context.Background()),
		clock: recording.NewClock(c.now),
		done:  make(chan struct{}),
	}
	newLoop := func(stream, path string, open capture.Opener, meter *capture.Meter) *recording.Loop {
		return &recording.Loop{
			Stream:    stream,
			Path:      path,
			Open:      open,
			NewSink:   src.Sink,
			FPS:       cfg.FPS,
			PauseIdle: cfg.PauseIdle(),
			Meter:     meter,
			Logger:    c.logger,
		}
	}
	r.loops = append(r.loops, newLoop(StreamScreen, sess.ScreenPath, src.Screen, src.ScreenMeter))
	if src.Webcam != nil {
		r.loops = append(r.loops, newLoop(StreamWebcam, sess.WebcamPath, src.Webcam, src.WebcamMeter))
	}

	r.clock.Start()
	c.current = r
	c.transition(StateRecording)
	if c.logger != nil {
		c.logger.Info("session started", "id", sess.ID, "task", sess.TaskDescription, "dir", sess.Dir, "duration", sess.Duration, "streams", len(r.loops))
	}
	go c.supervise(r, cfg.PauseIdle())
	return sess, nil
}

// supervise joins the loops of r. Loops never cancel each other: a webcam
// failure leaves the screen recording running.
func (c *Controller) supervise(r *run, idle time.Duration) {
	results := make([]recording.Result, len(r.loops))
	var loops errgroup.Group
	for i, l := range r.loops {
		loops.Go(func() error {
			results[i] = l.Run(r.ctl.Context(), r.ctl)
			return results[i].Err
		})
	}
	var g errgroup.Group
	g.Go(func() error {
		defer r.ctl.Stop()
		return loops.Wait()
	})
	if r.sess.Duration > 0 {
		g.Go(func() error {
			c.watchDuration(r, idle)
			return nil
		})
	}
	if err := g.Wait(); err != nil && c.logger != nil {
		c.logger.Warn("session finished with errors", "id", r.sess.ID, "error", err)
	}
	c.finish(r, results)
}

// watchDuration stops r once its clock reaches the requested duration.
func (c *Controller) watchDuration(r *run, every time.Duration) {
	if every <= 0 {
		every = recording.DefaultPauseIdle
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-r.ctl.Done():
			return
		case <-t.C:
			if r.clock.Elapsed() >= r.sess.Duration {
				c.mu.Lock()
				r.timedOut = true
				c.stopLocked(r)
				c.mu.Unlock()
				return
			}
		}
	}
}

func (c *Controller) finish(r *run, results []recording.Result) {
	r.clock.Stop()
	c.mu.Lock()
	defer c.mu.Unlock()
	out := Outcome{Session: r.sess, Results: results, Elapsed: r.clock.Elapsed(), TimedOut: r.timedOut}
	c.last = &out
	c.transition(StateFinished)
	if c.logger != nil {
		c.logger.Info("session finished", "id", r.sess.ID, "elapsed", out.Elapsed, "timed_out", out.TimedOut, "files", len(out.Files()))
	}
	c.emit(evtDone{out})
	close(r.done)
}

// Pause suspends both loops and the elapsed clock.
func (c *Controller) Pause() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateRecording {
		return ErrNoSession
	}
	c.current.ctl.Pause()
	c.current.clock.Pause()
	c.transition(StatePaused)
	return nil
}

// Resume continues a paused session.
func (c *Controller) Resume() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StatePaused {
		return ErrNoSession
	}
	c.current.clock.Resume()
	c.current.ctl.Resume()
	c.transition(StateRecording)
	return nil
}

// Stop signals both loops to finish and returns without waiting for them.
// Loop failures are reported through Outcome, never here.
func (c *Controller) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateRecording && c.state != StatePaused {
		return ErrNoSession
	}
	c.stopLocked(c.current)
	return nil
}

func (c *Controller) stopLocked(r *run) {
	if r != c.current || !(c.state == StateRecording || c.state == StatePaused) {
		return
	}
	r.clock.Stop()
	r.ctl.Stop()
	c.transition(StateStopping)
}

// State returns the lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Session returns the current or most recent session, or nil.
func (c *Controller) Session() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return nil
	}
	return c.current.sess
}

// Elapsed returns recorded time of the current or most recent session,
// excluding paused intervals. It never decreases within a session.
func (c *Controller) Elapsed() time.Duration {
	c.mu.Lock()
	r := c.current
	c.mu.Unlock()
	if r == nil {
		return 0
	}
	return r.clock.Elapsed()
}

// ElapsedSeconds returns Elapsed in whole seconds.
func (c *Controller) ElapsedSeconds() int { return int(c.Elapsed() / time.Second) }

// Done is closed when the current session has finished. With no session
// it returns a closed channel.
func (c *Controller) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return c.idle
	}
	return c.current.done
}

// Wait blocks until the current session finishes or ctx ends.
func (c *Controller) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-c.Done():
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
	out, ok := c.Outcome()
	if !ok {
		return Outcome{}, ErrNoSession
	}
	return out, nil
}

// Outcome returns the result of the most recently finished session.
func (c *Controller) Outcome() (Outcome, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last == nil {
		return Outcome{}, false
	}
	return *c.last, true
}

// Preview returns a copy of the last frame written for stream, or nil.
func (c *Controller) Preview(stream string) *capture.Frame {
	c.mu.Lock()
	r := c.current
	c.mu.Unlock()
	if r == nil {
		return nil
	}
	for _, l := range r.loops {
		if l.Stream == stream {
			return l.Snapshot()
		}
	}
	return nil
}

// Close stops any running session, waits for it and shuts down listener
// dispatch. Further calls to Start fail with ErrClosed.
func (c *Controller) Close(ctx context.Context) error {
	_ = c.Stop()
	select {
	case <-c.Done():
	case <-ctx.Done():
		return fmt.Errorf("close session controller: %w", ctx.Err())
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		c.qmu.Lock()
		c.qclosed = true
		c.qcond.Signal()
		c.qmu.Unlock()
	}
	return nil
}
