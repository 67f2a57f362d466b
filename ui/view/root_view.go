package view

import (
	"image"
	"log/slog"
	"time"

	"github.com/soocke/productivity-recorder/config"
	"github.com/soocke/productivity-recorder/domain/session"
	"github.com/soocke/productivity-recorder/ui/theme"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// Handlers are the user intents wired by the app.
type Handlers struct {
	Start    func()
	Pause    func()
	Resume   func()
	Stop     func()
	Exit     func()
	OnConfig func(*config.Config)
}

// RootView composes the top-level application layout and wires UI callbacks.
// It implements the view contracts of the presenters.
type RootView struct {
	cfg     *config.Config
	cfgPath string
	logger  *slog.Logger
	now     func() time.Time

	// Subviews
	Session     SessionStats
	ConfigPanel ConfigPanel
	CapturePrev CapturePreview

	// Widgets
	StateLabel *TLabelWidget
	taskText   *TextWidget
	startText  *TextWidget
	endText    *TextWidget
	minText    *TextWidget
	startBtn   *TButtonWidget
	pauseBtn   *ButtonWidget
	resumeBtn  *ButtonWidget
	stopBtn    *TButtonWidget
}

func NewRootView(cfg *config.Config, cfgPath string, logger *slog.Logger) *RootView {
	return &RootView{cfg: cfg, cfgPath: cfgPath, logger: logger, now: time.Now}
}

// Build constructs the layout. The allowed window is prefilled with the
// next hour.
func (rv *RootView) Build(h Handlers) {
	if rv == nil {
		return
	}
	// Row 0: stats, state label
	rv.Session = NewSessionStats(nil, 0, 0)
	rv.StateLabel = TLabel(Txt("State: idle"), Style(theme.StateBadge(session.StateIdle)))
	Grid(rv.StateLabel, Row(0), Column(2), Columnspan(2), Sticky("we"), Padx("0.4m"), Pady("0.3m"))

	// Rows 1-4: session form
	row := 1
	field := func(label, value string) *TextWidget {
		Grid(Label(Txt(label), Anchor("w")), Row(row), Column(0), Sticky("w"), Padx("0.4m"), Pady("0.15m"))
		w := Text(Height(1), Width(32))
		Grid(w, Row(row), Column(1), Columnspan(3), Sticky("we"), Padx("0.4m"), Pady("0.15m"))
		w.Insert("1.0", value)
		row++
		return w
	}
	now := rv.now()
	rv.taskText = field("Task Description", "")
	rv.startText = field("Allowed Start ("+session.TimeLayout+")", now.Format(session.TimeLayout))
	rv.endText = field("Allowed End ("+session.TimeLayout+")", now.Add(time.Hour).Format(session.TimeLayout))
	rv.minText = field("Session Minutes (optional)", "")

	// Buttons column
	btnFrame := Frame()
	Grid(btnFrame, Row(0), Column(4), Rowspan(row), Sticky("ne"), Padx("0.3m"), Pady("0.3m"))
	place := func(w Widget, r int) {
		Grid(w, In(btnFrame), Row(r), Column(0), Sticky("we"), Padx("0.2m"), Pady("0.2m"))
	}
	rv.startBtn = TButton(Txt("Start Recording"), Style(theme.StylePrimaryButton), Command(h.Start))
	place(rv.startBtn, 0)
	rv.pauseBtn = Button(Txt("Pause"), Command(h.Pause))
	place(rv.pauseBtn, 1)
	rv.resumeBtn = Button(Txt("Resume"), Command(h.Resume))
	place(rv.resumeBtn, 2)
	rv.stopBtn = TButton(Txt("Stop Recording"), Style(theme.StyleDangerButton), Command(h.Stop))
	place(rv.stopBtn, 3)
	place(Button(Txt("Dark Mode"), Command(func() { theme.ToggleDark() })), 4)
	place(Button(Txt("Exit"), Command(h.Exit)), 5)

	// Settings then preview
	rv.ConfigPanel = NewConfigPanel(rv.cfg, rv.cfgPath, rv.logger, h.OnConfig)
	endRow := rv.ConfigPanel.Build(row)
	rv.CapturePrev = NewCapturePreview(endRow)
	rv.SetControls(session.StateIdle)
}

// FormValues returns the raw text of the session form.
func (rv *RootView) FormValues() (task, start, end, minutes string) {
	if rv == nil {
		return "", "", "", ""
	}
	return textValue(rv.taskText), textValue(rv.startText), textValue(rv.endText), textValue(rv.minText)
}

// SetStateLabel updates the state label text.
func (rv *RootView) SetStateLabel(text string) {
	if rv != nil && rv.StateLabel != nil {
		rv.StateLabel.Configure(Txt(text))
	}
}

// SetControls enables the buttons valid in s and colors the state badge.
func (rv *RootView) SetControls(s session.State) {
	if rv == nil || rv.startBtn == nil {
		return
	}
	enable := func(w interface{ Configure(...Opt) *Window }, on bool) {
		if on {
			w.Configure(State("normal"))
			return
		}
		w.Configure(State("disabled"))
	}
	if rv.StateLabel != nil {
		rv.StateLabel.Configure(Style(theme.StateBadge(s)))
	}
	enable(rv.startBtn, !s.Active())
	enable(rv.pauseBtn, s == session.StateRecording)
	enable(rv.resumeBtn, s == session.StatePaused)
	enable(rv.stopBtn, s == session.StateRecording || s == session.StatePaused)
	for _, w := range []*TextWidget{rv.taskText, rv.startText, rv.endText, rv.minText} {
		enable(w, !s.Active())
	}
}

// SetConfigEditable toggles config panel editability.
func (rv *RootView) SetConfigEditable(enabled bool) {
	if rv != nil && rv.ConfigPanel != nil {
		rv.ConfigPanel.SetEditable(enabled)
	}
}

// ConfigEditable redirects to SetConfigEditable to satisfy RecorderView.
func (rv *RootView) ConfigEditable(b bool) { rv.SetConfigEditable(b) }

// UpdatePreview proxies to the capture preview.
func (rv *RootView) UpdatePreview(img image.Image) {
	if rv != nil && rv.CapturePrev != nil {
		rv.CapturePrev.Update(img)
	}
}

// PreviewReset clears the capture preview.
func (rv *RootView) PreviewReset() {
	if rv != nil && rv.CapturePrev != nil {
		rv.CapturePrev.Reset()
	}
}

// SetSession updates both session and total durations.
func (rv *RootView) SetSession(d, total time.Duration) {
	if rv == nil || rv.Session == nil {
		return
	}
	rv.Session.SetSession(d)
	rv.Session.SetTotal(total)
}

// ShowError shows a modal error dialog.
func (rv *RootView) ShowError(title, msg string) {
	MessageBox(Title(title), Msg(msg), Icon("error"))
}

// ShowInfo shows a modal information dialog.
func (rv *RootView) ShowInfo(title, msg string) {
	MessageBox(Title(title), Msg(msg), Icon("info"))
}

// PreviewSize is the box the presenter scales previews into.
func PreviewSize() (w, h int) { return maxPreviewW, maxPreviewH }
