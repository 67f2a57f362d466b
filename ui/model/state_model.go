package model

import (
	"sync/atomic"

	"github.com/soocke/productivity-recorder/domain/session"
)

// StateModel mirrors the controller state for the UI thread. The zero value
// is idle and usable. Concurrency-safe via atomics because controller
// listeners and presenter ticks run on different goroutines.
type StateModel struct{ state atomic.Int32 }

// State returns the stored state.
func (m *StateModel) State() session.State {
	if m == nil {
		return session.StateIdle
	}
	return session.State(m.state.Load())
}

// SetState stores s and reports whether it changed.
func (m *StateModel) SetState(s session.State) bool {
	if m == nil {
		return false
	}
	return m.state.Swap(int32(s)) != int32(s)
}

// Recording reports whether frames are being captured (recording or paused).
func (m *StateModel) Recording() bool {
	s := m.State()
	return s == session.StateRecording || s == session.StatePaused
}
