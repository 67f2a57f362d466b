package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "RECORDER_"

// LoadDotEnv loads KEY=VALUE pairs from the given files into the process
// environment. Missing files are skipped; variables already set win.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var present []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			present = append(present, f)
		}
	}
	if len(present) == 0 {
		return nil
	}
	if err := godotenv.Load(present...); err != nil {
		return fmt.Errorf("loading env files: %w", err)
	}
	return nil
}

// ApplyEnv overrides cfg fields from RECORDER_* variables using lookup
// (os.LookupEnv when nil). Invalid numeric or boolean values are reported
// together; valid ones are still applied.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if cfg == nil {
		return nil
	}
	if lookup == nil {
		lookup = os.LookupEnv
	}
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	num := func(key string, dst *int) {
		v, ok := lookup(EnvPrefix + key)
		if !ok || strings.TrimSpace(v) == "" {
			return
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
			return
		}
		*dst = n
	}
	flag := func(key string, dst *bool) {
		v, ok := lookup(EnvPrefix + key)
		if !ok || strings.TrimSpace(v) == "" {
			return
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
			return
		}
		*dst = b
	}
	flag("DEBUG", &cfg.Debug)
	str("LOG_LEVEL", &cfg.LogLevel)
	str("OUTPUT_DIR", &cfg.OutputDir)
	str("LAYOUT", &cfg.Layout)
	num("FPS", &cfg.FPS)
	str("CODEC", &cfg.Codec)
	str("CODEC_TAG", &cfg.CodecTag)
	num("QUALITY", &cfg.Quality)
	num("PAUSE_IDLE_MS", &cfg.PauseIdleMillis)
	num("REFRESH_MS", &cfg.RefreshMillis)
	str("FFMPEG_PATH", &cfg.FFmpegPath)
	str("FFPROBE_PATH", &cfg.FFprobePath)
	str("WEBCAM_FORMAT", &cfg.WebcamFormat)
	str("WEBCAM_DEVICE", &cfg.WebcamDevice)
	flag("RECORD_WEBCAM", &cfg.RecordWebcam)
	str("LISTEN_ADDR", &cfg.ListenAddr)
	_ = cfg.Validate()
	return errors.Join(errs...)
}

// Resolve loads the JSON file at path, then .env files, then applies
// environment overrides.
func Resolve(path string, envFiles ...string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return cfg, err
	}
	if err := LoadDotEnv(envFiles...); err != nil {
		return cfg, err
	}
	if err := ApplyEnv(cfg, nil); err != nil {
		return cfg, err
	}
	return cfg, nil
}
