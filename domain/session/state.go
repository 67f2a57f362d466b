package session

// State enumerates the controller lifecycle.
type State int

const (
	StateIdle State = iota
	StateRecording
	StatePaused
	StateStopping
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StatePaused:
		return "paused"
	case StateStopping:
		return "stopping"
	case StateFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Active reports whether a session is running in this state.
func (s State) Active() bool {
	return s == StateRecording || s == StatePaused || s == StateStopping
}

// StateListener is called on each state transition.
type StateListener func(prev, next State)

// OutcomeListener is called once per session when both loops have finished.
type OutcomeListener func(Outcome)
