package view

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/soocke/productivity-recorder/config"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// ConfigPanel encapsulates the recording settings form and apply logic.
// It owns its widgets and writes back into *config.Config on ApplyChanges.
type ConfigPanel interface {
	Build(startRow int) (endRow int) // constructs widgets starting at startRow, returns next free row
	SetEditable(enabled bool)
	ApplyChanges() // parses widget text into underlying config and persists
}

type configPanel struct {
	cfg      *config.Config
	cfgPath  string
	logger   *slog.Logger
	onApply  func(*config.Config)
	applyBtn *ButtonWidget
	widgets  map[string]*TextWidget // keyed by config json name
}

// NewConfigPanel creates the view bound to cfg. onApply receives a copy of
// every successfully applied configuration.
func NewConfigPanel(cfg *config.Config, cfgPath string, logger *slog.Logger, onApply func(*config.Config)) ConfigPanel {
	return &configPanel{cfg: cfg, cfgPath: cfgPath, logger: logger, onApply: onApply, widgets: make(map[string]*TextWidget)}
}

func (v *configPanel) Build(startRow int) (row int) {
	c := v.cfg
	row = startRow
	makeRow := func(id, label, value string) {
		lbl := Label(Txt(label), Anchor("w"))
		Grid(lbl, Row(row), Column(0), Sticky("w"), Padx("0.4m"), Pady("0.15m"))
		w := Text(Height(1), Width(32))
		Grid(w, Row(row), Column(1), Columnspan(3), Sticky("we"), Padx("0.4m"), Pady("0.15m"))
		w.Delete("1.0", END)
		w.Insert("1.0", value)
		v.widgets[id] = w
		row++
	}
	makeRow("output_dir", "Output Folder", c.OutputDir)
	makeRow("layout", "Layout (session/flat)", c.Layout)
	makeRow("fps", "Frames Per Second", strconv.Itoa(c.FPS))
	makeRow("quality", "Quality (1-31, lower is better)", strconv.Itoa(c.Quality))
	makeRow("record_webcam", "Record Webcam (true/false)", strconv.FormatBool(c.RecordWebcam))
	makeRow("webcam_format", "Webcam Input Format", c.WebcamFormat)
	makeRow("webcam_device", "Webcam Device", c.WebcamDevice)
	makeRow("ffmpeg_path", "ffmpeg Path", c.FFmpegPath)
	v.applyBtn = Button(Txt("Apply Settings"), Command(func() { v.ApplyChanges() }))
	Grid(v.applyBtn, Row(row), Column(0), Columnspan(4), Sticky("we"), Padx("0.4m"), Pady("0.3m"))
	row++
	return row
}

func (v *configPanel) SetEditable(enabled bool) {
	state := "disabled"
	if enabled {
		state = "normal"
	}
	for _, w := range v.widgets {
		if w != nil {
			w.Configure(State(state))
		}
	}
	if v.applyBtn != nil {
		v.applyBtn.Configure(State(state))
	}
}

func (v *configPanel) ApplyChanges() {
	if v.cfg == nil {
		return
	}
	values := make(map[string]string, len(v.widgets))
	for id, w := range v.widgets {
		values[id] = textValue(w)
	}
	cfg := applyFields(*v.cfg, values)
	_ = cfg.Validate()
	*v.cfg = cfg
	if v.cfgPath != "" {
		if err := v.cfg.Save(v.cfgPath); err != nil {
			if v.logger != nil {
				v.logger.Error("config save failed", "error", err)
			}
		} else if v.logger != nil {
			v.logger.Info("config saved", "path", v.cfgPath)
		}
	}
	if v.onApply != nil {
		v.onApply(v.cfg.Clone())
	}
}

// applyFields copies parseable form values into cfg. Unparseable or empty
// values keep the current setting.
func applyFields(cfg config.Config, values map[string]string) config.Config {
	assignString := func(id string, dst *string) {
		if s := strings.TrimSpace(values[id]); s != "" {
			*dst = s
		}
	}
	assignInt := func(id string, dst *int) {
		if i, ok := parseIntField(values[id]); ok {
			*dst = i
		}
	}
	assignString("output_dir", &cfg.OutputDir)
	assignString("layout", &cfg.Layout)
	assignInt("fps", &cfg.FPS)
	assignInt("quality", &cfg.Quality)
	if b, ok := parseBoolLoose(values["record_webcam"]); ok {
		cfg.RecordWebcam = b
	}
	assignString("webcam_format", &cfg.WebcamFormat)
	assignString("webcam_device", &cfg.WebcamDevice)
	assignString("ffmpeg_path", &cfg.FFmpegPath)
	return cfg
}

func textValue(w *TextWidget) string {
	if w == nil {
		return ""
	}
	return strings.TrimSpace(strings.Join(w.Get("1.0", END), ""))
}

func parseIntField(s string) (int, bool) {
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return i, true
}

func parseBoolLoose(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "y", "on", "t":
		return true, true
	case "false", "0", "no", "n", "off", "f":
		return false, true
	default:
		return false, false
	}
}
