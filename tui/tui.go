// Package tui provides a Bubble Tea front end for the session controller.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/soocke/productivity-recorder/domain/session"
	"github.com/soocke/productivity-recorder/ui/presenter"
)

// ── Styles ────────────

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 2)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("33")).
			Bold(true).
			Width(34)

	stateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("36")).
			Padding(0, 1)

	elapsedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("178")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	infoStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	hintStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// Recorder is the controller surface driven by the TUI.
type Recorder interface {
	presenter.Recorder
	State() session.State
	Elapsed() time.Duration
}

// ── Messages ────────────

type tickMsg time.Time

// OutcomeMsg delivers a finished session to the program.
type OutcomeMsg session.Outcome

const (
	fieldTask = iota
	fieldStart
	fieldEnd
	fieldMinutes
	fieldCount
)

var fieldLabels = [fieldCount]string{
	"Task Description",
	"Allowed Start (" + session.TimeLayout + ")",
	"Allowed End (" + session.TimeLayout + ")",
	"Session Minutes (optional)",
}

// ── Model ────────────────────

// Model is the root Bubble Tea model.
type Model struct {
	rec     Recorder
	refresh time.Duration
	inputs  [fieldCount]textinput.Model
	focus   int
	state   session.State
	elapsed time.Duration
	info    string
	err     string
	width   int
}

// New creates the model with the allowed window prefilled from now.
func New(rec Recorder, refresh time.Duration, now time.Time) Model {
	if refresh <= 0 {
		refresh = 500 * time.Millisecond
	}
	m := Model{rec: rec, refresh: refresh}
	values := [fieldCount]string{
		"",
		now.Format(session.TimeLayout),
		now.Add(time.Hour).Format(session.TimeLayout),
		"",
	}
	for i := range m.inputs {
		in := textinput.New()
		in.CharLimit = 256
		in.Width = 40
		in.SetValue(values[i])
		m.inputs[i] = in
	}
	m.inputs[fieldMinutes].Placeholder = "no limit"
	m.inputs[fieldTask].Focus()
	return m
}

// ── Bubble Tea interface ───────────────

func (m Model) Init() tea.Cmd { return tea.Batch(textinput.Blink, m.tick()) }

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.refresh, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case tickMsg:
		m.sync()
		return m, m.tick()
	case OutcomeMsg:
		o := session.Outcome(msg)
		m.sync()
		if o.Err() != nil {
			m.err, m.info = presenter.OutcomeSummary(o), ""
		} else {
			m.info, m.err = presenter.OutcomeSummary(o), ""
		}
		m.setFocus(m.focus)
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			_ = m.rec.Stop()
			return m, tea.Quit
		}
		if m.state.Active() {
			return m.updateRecording(msg)
		}
		return m.updateForm(msg)
	}
	return m, nil
}

func (m Model) updateRecording(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var err error
	switch msg.String() {
	case "p":
		err = m.rec.Pause()
	case "r":
		err = m.rec.Resume()
	case "s":
		err = m.rec.Stop()
	case "q", "esc":
		_ = m.rec.Stop()
		return m, tea.Quit
	}
	if err != nil && !errors.Is(err, session.ErrNoSession) {
		m.err = err.Error()
	}
	m.sync()
	return m, nil
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return m, tea.Quit
	case "tab", "down":
		m.setFocus((m.focus + 1) % fieldCount)
		return m, nil
	case "shift+tab", "up":
		m.setFocus((m.focus - 1 + fieldCount) % fieldCount)
		return m, nil
	case "enter":
		m.start()
		return m, nil
	}
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m *Model) start() {
	req, err := session.ParseRequest(
		m.inputs[fieldTask].Value(),
		m.inputs[fieldStart].Value(),
		m.inputs[fieldEnd].Value(),
		m.inputs[fieldMinutes].Value(),
	)
	if err != nil {
		m.err, m.info = err.Error(), ""
		return
	}
	sess, err := m.rec.Start(req)
	if err != nil {
		m.err, m.info = err.Error(), ""
		return
	}
	m.err, m.info = "", "Recording to "+sess.Dir
	m.sync()
	for i := range m.inputs {
		m.inputs[i].Blur()
	}
}

func (m *Model) setFocus(i int) {
	m.focus = i
	for j := range m.inputs {
		if j == i {
			m.inputs[j].Focus()
		} else {
			m.inputs[j].Blur()
		}
	}
}

// sync pulls state and elapsed time from the controller.
func (m *Model) sync() {
	m.state = m.rec.State()
	m.elapsed = m.rec.Elapsed()
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Productivity Recorder"))
	b.WriteString("\n\n")
	for i, in := range m.inputs {
		b.WriteString(labelStyle.Render(fieldLabels[i]))
		b.WriteString(in.View())
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(stateStyle.Render("State: " + m.state.String()))
	b.WriteString("  ")
	b.WriteString(elapsedStyle.Render(fmt.Sprintf("Elapsed: %d s", int(m.elapsed/time.Second))))
	b.WriteString("\n\n")
	if m.err != "" {
		b.WriteString(errorStyle.Render(m.err) + "\n\n")
	}
	if m.info != "" {
		b.WriteString(infoStyle.Render(m.info) + "\n\n")
	}
	if m.state.Active() {
		b.WriteString(hintStyle.Render("p pause • r resume • s stop • q stop and quit"))
	} else {
		b.WriteString(hintStyle.Render("tab next field • enter start recording • esc quit"))
	}
	b.WriteString("\n")
	return b.String()
}

// Run drives ctrl from the terminal until the user quits or ctx ends.
func Run(ctx context.Context, ctrl *session.Controller, refresh time.Duration) error {
	p := tea.NewProgram(New(ctrl, refresh, time.Now()), tea.WithContext(ctx))
	ctrl.AddOutcomeListener(func(o session.Outcome) { p.Send(OutcomeMsg(o)) })
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
