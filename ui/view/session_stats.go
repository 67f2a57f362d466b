package view

import (
	"fmt"
	"time"

	"github.com/soocke/productivity-recorder/ui/theme"

	//lint:ignore ST1001 Dot import for concise Tk widget DSL.
	. "modernc.org/tk9.0"
)

// SessionStats shows the elapsed seconds of the current session and the
// recorded total since the app started.
type SessionStats interface {
	SetSession(d time.Duration)
	SetTotal(d time.Duration)
}

type sessionStats struct {
	sessionLbl *TLabelWidget
	totalLbl   *TLabelWidget
}

// NewSessionStats creates the session label at (row, startCol) and the total
// label at (row, startCol+1) inside parent, or the App root when parent is nil.
func NewSessionStats(parent *FrameWidget, row, startCol int) SessionStats {
	s := &sessionStats{
		sessionLbl: TLabel(Width(16), Style(theme.StyleAccentLabel)),
		totalLbl:   TLabel(Width(16), Style(theme.StyleAccentLabel)),
	}
	place := func(w Widget, col int) {
		if parent != nil {
			Grid(w, In(parent), Row(row), Column(col), Sticky("w"), Padx("0.2m"))
			return
		}
		Grid(w, Row(row), Column(col), Sticky("w"), Padx("0.2m"))
	}
	place(s.sessionLbl, startCol)
	place(s.totalLbl, startCol+1)
	s.SetSession(0)
	s.SetTotal(0)
	return s
}

// SetSession shows the recorded seconds of the current session.
func (s *sessionStats) SetSession(d time.Duration) {
	if s == nil || s.sessionLbl == nil {
		return
	}
	s.sessionLbl.Configure(Txt(fmt.Sprintf("Elapsed: %d s", int(d/time.Second))))
}

// SetTotal shows the recorded time of all sessions.
func (s *sessionStats) SetTotal(d time.Duration) {
	if s == nil || s.totalLbl == nil {
		return
	}
	sec := int(d / time.Second)
	s.totalLbl.Configure(Txt(fmt.Sprintf("Total: %02d:%02d:%02d", sec/3600, sec/60%60, sec%60)))
}
