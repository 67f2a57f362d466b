// Package theme holds the recorder palette and ttk style setup.
package theme

import (
	"github.com/soocke/productivity-recorder/domain/session"

	tk "modernc.org/tk9.0"
)

// Palette is one set of semantic colors.
type Palette struct {
	Bg      string // window background
	Surface string // panels, stat labels
	Primary string // start button, accents
	Danger  string // stop button, recording badge
	Warn    string // paused badge
	Accent  string // finished badge
	Text    string
	Muted   string // idle and stopping badges
}

var (
	Light = Palette{
		Bg:      "#f7f9fb",
		Surface: "#ffffff",
		Primary: "#2563eb",
		Danger:  "#dc2626",
		Warn:    "#d97706",
		Accent:  "#10b981",
		Text:    "#1e293b",
		Muted:   "#64748b",
	}
	Dark = Palette{
		Bg:      "#0f172a",
		Surface: "#1e293b",
		Primary: "#3b82f6",
		Danger:  "#ef4444",
		Warn:    "#f59e0b",
		Accent:  "#34d399",
		Text:    "#f1f5f9",
		Muted:   "#94a3b8",
	}
)

// Style names used with Style(...).
const (
	StylePrimaryButton  = "primary.TButton"
	StyleDangerButton   = "danger.TButton"
	StyleAccentLabel    = "accent.TLabel"
	StyleIdleBadge      = "idle.TLabel"
	StyleRecordingBadge = "recording.TLabel"
	StylePausedBadge    = "paused.TLabel"
	StyleFinishedBadge  = "finished.TLabel"
)

var darkMode bool

// Current returns the palette for the active mode.
func Current() Palette { return paletteFor(darkMode) }

func paletteFor(dark bool) Palette {
	if dark {
		return Dark
	}
	return Light
}

// StateBadge returns the label style for s. Stopping shares the idle look
// since no frames are being taken.
func StateBadge(s session.State) string {
	switch s {
	case session.StateRecording:
		return StyleRecordingBadge
	case session.StatePaused:
		return StylePausedBadge
	case session.StateFinished:
		return StyleFinishedBadge
	default:
		return StyleIdleBadge
	}
}

// InitStyles (re)applies styles for the current mode.
func InitStyles() { applyStyles(paletteFor(darkMode)) }

// SetDark switches mode and reapplies styles. Returns the new mode.
func SetDark(dark bool) bool {
	darkMode = dark
	applyStyles(paletteFor(dark))
	return darkMode
}

// ToggleDark flips dark mode.
func ToggleDark() bool { return SetDark(!darkMode) }

// IsDark reports the current mode.
func IsDark() bool { return darkMode }

func applyStyles(p Palette) {
	_ = tk.ActivateTheme("azure light") // baseline metrics
	tk.App.Configure(tk.Background(p.Bg))

	button := func(name, bg string) {
		tk.StyleConfigure(name,
			tk.Background(bg),
			tk.Foreground("white"),
			tk.Padding("4p 3p"),
			tk.Borderwidth(1),
			tk.Relief("ridge"),
		)
	}
	button(StylePrimaryButton, p.Primary)
	button(StyleDangerButton, p.Danger)

	tk.StyleConfigure(StyleAccentLabel,
		tk.Foreground(p.Primary),
		tk.Background(p.Surface),
		tk.Padding("2p 1p"),
	)

	badge := func(name, bg, fg string) {
		tk.StyleConfigure(name,
			tk.Foreground(fg),
			tk.Background(bg),
			tk.Padding("4p 2p"),
			tk.Borderwidth(1),
			tk.Relief("groove"),
		)
	}
	badge(StyleIdleBadge, p.Surface, p.Muted)
	badge(StyleRecordingBadge, p.Danger, "white")
	badge(StylePausedBadge, p.Warn, p.Text)
	badge(StyleFinishedBadge, p.Accent, "white")
}
