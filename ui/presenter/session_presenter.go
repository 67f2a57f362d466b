package presenter

import (
	"time"

	"github.com/soocke/productivity-recorder/ui/model"
)

// ElapsedSource reports recorded time of the current session.
type ElapsedSource interface{ Elapsed() time.Duration }

// RecordingModel reports whether a session is capturing.
type RecordingModel interface{ Recording() bool }

// SessionView displays formatted session and total durations.
type SessionView interface {
	SetSession(session, total time.Duration)
}

// SessionPresenter formats session and total durations from the model to the view.
type SessionPresenter struct {
	sess    *model.SessionModel
	state   RecordingModel
	elapsed ElapsedSource
	view    SessionView
}

// NewSessionPresenter returns a new SessionPresenter.
func NewSessionPresenter(sess *model.SessionModel, state RecordingModel, elapsed ElapsedSource, view SessionView) *SessionPresenter {
	return &SessionPresenter{sess: sess, state: state, elapsed: elapsed, view: view}
}

// Tick updates the presenter: advance the session model and push values to the view.
func (p *SessionPresenter) Tick(now time.Time) {
	if p == nil || p.sess == nil || p.state == nil || p.elapsed == nil || p.view == nil {
		return
	}
	p.sess.OnTick(p.state.Recording(), p.elapsed.Elapsed())
	s, t := p.sess.Values()
	p.view.SetSession(s, t)
}
