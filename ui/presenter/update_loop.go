package presenter

import "time"

// Loop aggregates feature presenters and drives periodic updates.
//
// It calls Tick on the sub-presenters and invokes a scheduler callback.
// The zero value is usable (methods are nil-safe).
type Loop struct {
	State    *StatePresenter
	Session  *SessionPresenter
	Recorder *RecorderPresenter
	Preview  *PreviewPresenter
	Schedule func()
}

func NewLoop(state *StatePresenter, sess *SessionPresenter, rec *RecorderPresenter, preview *PreviewPresenter, schedule func()) *Loop {
	return &Loop{State: state, Session: sess, Recorder: rec, Preview: preview, Schedule: schedule}
}

func (l *Loop) Tick() {
	if l == nil {
		return
	}
	now := time.Now()
	// State first so buttons reflect transitions before completion dialogs.
	if l.State != nil {
		l.State.Tick(now)
	}
	if l.Session != nil {
		l.Session.Tick(now)
	}
	if l.Preview != nil {
		l.Preview.Tick(now)
	}
	if l.Recorder != nil {
		l.Recorder.Tick(now)
	}
	if l.Schedule != nil {
		l.Schedule()
	}
}
