package presenter

import (
	"sync"
	"time"

	"github.com/soocke/productivity-recorder/domain/session"
)

// StateStore keeps the state mirrored for other presenters.
type StateStore interface {
	State() session.State
	SetState(session.State) bool
}

// StateView sets the state label and enables the controls valid in a state.
type StateView interface {
	SetStateLabel(string)
	SetControls(session.State)
}

// StatePresenter receives controller transitions on any goroutine and
// reflects the latest one on the UI thread.
type StatePresenter struct {
	model   StateStore
	view    StateView
	mu      sync.Mutex
	pending []session.State
	shown   bool
}

func NewStatePresenter(model StateStore, view StateView) *StatePresenter {
	return &StatePresenter{model: model, view: view}
}

// OnState queues a transitioned state from the controller listener.
//
// The latest queued state will be reflected on the next Tick.
func (p *StatePresenter) OnState(_, next session.State) {
	if p == nil {
		return
	}
	p.mu.Lock()
	p.pending = append(p.pending, next)
	p.mu.Unlock()
}

// Tick processes queued states and updates the view with the most recent state.
// It clears the pending queue after processing.
func (p *StatePresenter) Tick(now time.Time) {
	if p == nil || p.model == nil || p.view == nil {
		return
	}
	p.mu.Lock()
	var last session.State
	has := len(p.pending) > 0
	if has {
		last = p.pending[len(p.pending)-1]
		p.pending = p.pending[:0]
	}
	p.mu.Unlock()
	if !has {
		if !p.shown {
			p.shown = true
			p.render(p.model.State())
		}
		return
	}
	if p.model.SetState(last) || !p.shown {
		p.shown = true
		p.render(last)
	}
}

func (p *StatePresenter) render(s session.State) {
	p.view.SetStateLabel("State: " + s.String())
	p.view.SetControls(s)
}
