package model

import (
	"time"
)

// SessionModel tracks the elapsed time of the current recording and the
// accumulated time of all recordings since the app started.
// It is decoupled from the UI; presenters should poll Values() and update views.
// The zero value is ready to use.
type SessionModel struct {
	active      bool
	current     time.Duration
	accumulated time.Duration
}

// NewSessionModel returns a pointer to a ready-to-use SessionModel.
func NewSessionModel() *SessionModel { return &SessionModel{} }

// OnTick feeds the recording state and the controller's elapsed time.
// Call periodically (for example, from a presenter tick).
func (m *SessionModel) OnTick(recording bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	if recording {
		if !m.active { // transition off -> on
			m.active = true
			m.current = 0
		}
		if elapsed > m.current {
			m.current = elapsed
		}
	} else if m.active { // transition on -> off
		if elapsed > m.current {
			m.current = elapsed
		}
		m.accumulated += m.current
		m.active = false
	}
}

// Values returns the current session duration and the total accumulated duration.
// The total includes the ongoing session when active.
func (m *SessionModel) Values() (session, total time.Duration) {
	if m == nil {
		return 0, 0
	}
	session = m.current
	total = m.accumulated
	if m.active {
		total += session
	}
	return
}
