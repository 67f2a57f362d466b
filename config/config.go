package config

import (
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"
)

// Output layouts.
const (
	// LayoutSession writes output/task_<ts>/{screen,webcam}.mp4 plus metadata.json.
	LayoutSession = "session"
	// LayoutFlat writes output/screen_<ts>.mp4 and output/webcam_<ts>.mp4 without metadata.
	LayoutFlat = "flat"
)

// Config holds runtime configuration for capture, encoding and the front ends.
// Fields may be loaded from a JSON file and overridden by environment variables.
type Config struct {
	Debug    bool   `json:"debug"`
	LogLevel string `json:"log_level"`

	// Output
	OutputDir string `json:"output_dir"`
	Layout    string `json:"layout"`

	// Encoding parameters
	FPS      int    `json:"fps"`
	Codec    string `json:"codec"`
	CodecTag string `json:"codec_tag"`
	Quality  int    `json:"quality"` // ffmpeg -q:v, 1 (best) .. 31

	// Loop timing
	PauseIdleMillis int `json:"pause_idle_ms"`
	RefreshMillis   int `json:"refresh_ms"`

	// External tools and devices
	FFmpegPath   string `json:"ffmpeg_path"`
	FFprobePath  string `json:"ffprobe_path"`
	WebcamFormat string `json:"webcam_format"`
	WebcamDevice string `json:"webcam_device"`
	RecordWebcam bool   `json:"record_webcam"`

	// Control API
	ListenAddr string `json:"listen_addr"`
}

// DefaultConfig returns a Config populated with standard defaults.
func DefaultConfig() *Config {
	format, device := defaultWebcam(runtime.GOOS)
	return &Config{
		Debug:           false,
		LogLevel:        "info",
		OutputDir:       "output",
		Layout:          LayoutSession,
		FPS:             10,
		Codec:           "mpeg4",
		CodecTag:        "mp4v",
		Quality:         5,
		PauseIdleMillis: 100,
		RefreshMillis:   500,
		FFmpegPath:      "ffmpeg",
		FFprobePath:     "ffprobe",
		WebcamFormat:    format,
		WebcamDevice:    device,
		RecordWebcam:    true,
		ListenAddr:      "127.0.0.1:8765",
	}
}

func defaultWebcam(goos string) (format, device string) {
	switch goos {
	case "windows":
		return "dshow", "video=Integrated Camera"
	case "darwin":
		return "avfoundation", "0"
	default:
		return "v4l2", "/dev/video0"
	}
}

// Validate clamps/normalizes values to safe ranges.
func (c *Config) Validate() error {
	def := DefaultConfig()
	if strings.TrimSpace(c.OutputDir) == "" {
		c.OutputDir = def.OutputDir
	}
	switch c.Layout {
	case LayoutSession, LayoutFlat:
	default:
		c.Layout = LayoutSession
	}
	if c.FPS <= 0 || c.FPS > 60 {
		c.FPS = def.FPS
	}
	if c.Codec == "" {
		c.Codec = def.Codec
	}
	if c.Quality < 1 || c.Quality > 31 {
		c.Quality = def.Quality
	}
	if c.PauseIdleMillis <= 0 {
		c.PauseIdleMillis = def.PauseIdleMillis
	}
	if c.RefreshMillis <= 0 {
		c.RefreshMillis = def.RefreshMillis
	}
	if c.FFmpegPath == "" {
		c.FFmpegPath = def.FFmpegPath
	}
	if c.FFprobePath == "" {
		c.FFprobePath = def.FFprobePath
	}
	if c.WebcamFormat == "" || c.WebcamDevice == "" {
		c.WebcamFormat, c.WebcamDevice = def.WebcamFormat, def.WebcamDevice
	}
	if c.ListenAddr == "" {
		c.ListenAddr = def.ListenAddr
	}
	if _, err := c.Level(); err != nil {
		c.LogLevel = def.LogLevel
	}
	return nil
}

// PauseIdle is the bounded sleep a paused capture loop takes between checks.
func (c *Config) PauseIdle() time.Duration {
	return time.Duration(c.PauseIdleMillis) * time.Millisecond
}

// Refresh is the cadence at which front ends poll elapsed time.
func (c *Config) Refresh() time.Duration {
	return time.Duration(c.RefreshMillis) * time.Millisecond
}

// Level parses LogLevel into a slog level. Debug forces slog.LevelDebug.
func (c *Config) Level() (slog.Level, error) {
	if c.Debug {
		return slog.LevelDebug, nil
	}
	var lvl slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	err := lvl.UnmarshalText([]byte(c.LogLevel))
	return lvl, err
}

// Clone returns a copy safe to hand to another goroutine.
func (c *Config) Clone() *Config {
	if c == nil {
		return DefaultConfig()
	}
	cp := *c
	return &cp
}

// Load attempts to read configuration from the given JSON file path. If the file does not
// exist it returns DefaultConfig(). On JSON error it returns defaults with a *ParseError.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, err
	}
	defer f.Close()
	dec := json.NewDecoder(f)
	if err := dec.Decode(cfg); err != nil {
		return DefaultConfig(), &ParseError{Path: path, Err: err}
	}
	_ = cfg.Validate()
	return cfg, nil
}

// Save writes the configuration to the given path in JSON format.
func (c *Config) Save(path string) error {
	_ = c.Validate()
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(c)
}

// ParseError is returned when a config file exists but cannot be parsed.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return "failed to parse config file " + e.Path + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
