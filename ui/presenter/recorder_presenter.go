package presenter

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/soocke/productivity-recorder/domain/session"
)

// Recorder narrows the session controller to the user intents.
type Recorder interface {
	Start(session.Request) (*session.Session, error)
	Pause() error
	Resume() error
	Stop() error
}

// RecorderView is the form, dialogs and editable areas touched by recording.
type RecorderView interface {
	FormValues() (task, start, end, minutes string)
	ShowError(title, msg string)
	ShowInfo(title, msg string)
	PreviewReset()
	ConfigEditable(bool)
}

// RecorderPresenter forwards user intents to the controller and reports
// session completion. Outcomes may arrive on any goroutine; they are shown
// on the next Tick.
type RecorderPresenter struct {
	rec    Recorder
	view   RecorderView
	logger *slog.Logger

	mu       sync.Mutex
	outcomes []session.Outcome
}

func NewRecorderPresenter(rec Recorder, view RecorderView, logger *slog.Logger) *RecorderPresenter {
	return &RecorderPresenter{rec: rec, view: view, logger: logger}
}

// Start validates the form and starts a session. Invalid input is shown
// in a dialog and no session is started.
func (p *RecorderPresenter) Start() {
	if p == nil || p.rec == nil || p.view == nil {
		return
	}
	req, err := session.ParseRequest(p.view.FormValues())
	if err != nil {
		var ie *session.InputError
		if errors.As(err, &ie) {
			p.view.ShowError("Invalid Input", inputMessage(ie))
			return
		}
		p.view.ShowError("Invalid Input", err.Error())
		return
	}
	sess, err := p.rec.Start(req)
	switch {
	case errors.Is(err, session.ErrSessionActive):
		p.view.ShowError("Session Active", "A recording is already running.")
		return
	case err != nil:
		if p.logger != nil {
			p.logger.Error("start session", "error", err)
		}
		p.view.ShowError("Start Failed", err.Error())
		return
	}
	if p.logger != nil {
		p.logger.Info("session started from gui", "id", sess.ID, "dir", sess.Dir)
	}
	p.view.PreviewReset()
	p.view.ConfigEditable(false)
}

// Pause suspends the running session. No-op when idle.
func (p *RecorderPresenter) Pause() { p.intent("pause", p.rec.Pause) }

// Resume continues a paused session. No-op when idle.
func (p *RecorderPresenter) Resume() { p.intent("resume", p.rec.Resume) }

// Stop ends the running session without waiting for it. No-op when idle.
func (p *RecorderPresenter) Stop() { p.intent("stop", p.rec.Stop) }

func (p *RecorderPresenter) intent(name string, fn func() error) {
	if p == nil || p.rec == nil {
		return
	}
	if err := fn(); err != nil && p.logger != nil {
		p.logger.Debug("ignored intent", "intent", name, "error", err)
	}
}

// OnOutcome queues a finished session for reporting.
func (p *RecorderPresenter) OnOutcome(o session.Outcome) {
	if p == nil {
		return
	}
	p.mu.Lock()
	p.outcomes = append(p.outcomes, o)
	p.mu.Unlock()
}

// Tick reports queued outcomes.
func (p *RecorderPresenter) Tick(now time.Time) {
	if p == nil || p.view == nil {
		return
	}
	p.mu.Lock()
	queued := p.outcomes
	p.outcomes = nil
	p.mu.Unlock()
	for _, o := range queued {
		p.view.ConfigEditable(true)
		if o.Err() != nil {
			p.view.ShowError("Session Finished With Errors", OutcomeSummary(o))
			continue
		}
		p.view.ShowInfo("Session Done", OutcomeSummary(o))
	}
}

// OutcomeSummary renders an outcome for a dialog or terminal.
func OutcomeSummary(o session.Outcome) string {
	var b strings.Builder
	if o.Err() == nil {
		b.WriteString("Your session recordings have been saved.")
	} else {
		b.WriteString("Some recordings did not complete.")
	}
	fmt.Fprintf(&b, "\nElapsed: %s", formatClock(o.Elapsed))
	if o.TimedOut {
		b.WriteString(" (session length reached)")
	}
	for _, r := range o.Results {
		fmt.Fprintf(&b, "\n%s: %d frames, %s", r.Stream, r.Frames, r.Reason)
		if r.Err != nil {
			fmt.Fprintf(&b, " (%v)", r.Err)
		}
	}
	if files := o.Files(); len(files) > 0 {
		b.WriteString("\n\nFiles:")
		for _, f := range files {
			b.WriteString("\n" + f)
		}
	}
	return b.String()
}

func inputMessage(ie *session.InputError) string {
	switch ie.Field {
	case "minutes":
		return "Please enter a valid number of minutes."
	case "start", "end":
		return fmt.Sprintf("Allowed %s: %s.", ie.Field, ie.Msg)
	default:
		return ie.Error()
	}
}

func formatClock(d time.Duration) string {
	s := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", s/3600, s/60%60, s%60)
}
