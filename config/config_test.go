package config

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_ParseErrorIsTyped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	cfg, err := Load(path)
	var pe *ParseError
	require.True(t, errors.As(err, &pe), "expected *ParseError, got %T", err)
	assert.Equal(t, path, pe.Path)
	assert.Equal(t, 10, cfg.FPS, "defaults returned alongside parse error")
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	cfg := DefaultConfig()
	cfg.OutputDir = "recordings"
	cfg.Layout = LayoutFlat
	cfg.FPS = 15
	cfg.RecordWebcam = false
	require.NoError(t, cfg.Save(path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestValidate_ClampsInvalidValues(t *testing.T) {
	cfg := &Config{FPS: -3, Quality: 99, Layout: "weird", LogLevel: "loud"}
	require.NoError(t, cfg.Validate())
	def := DefaultConfig()
	assert.Equal(t, def.FPS, cfg.FPS)
	assert.Equal(t, def.Quality, cfg.Quality)
	assert.Equal(t, LayoutSession, cfg.Layout)
	assert.Equal(t, def.OutputDir, cfg.OutputDir)
	assert.Equal(t, def.LogLevel, cfg.LogLevel)
	assert.Equal(t, 100*time.Millisecond, cfg.PauseIdle())
	assert.Equal(t, 500*time.Millisecond, cfg.Refresh())
}

func TestLevel_DebugOverrides(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogLevel = "warn"
	lvl, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, lvl)

	cfg.Debug = true
	lvl, err = cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, lvl)
}

func TestApplyEnv_OverridesAndReportsBadValues(t *testing.T) {
	env := map[string]string{
		"RECORDER_OUTPUT_DIR":    "/tmp/rec",
		"RECORDER_FPS":           "twelve",
		"RECORDER_RECORD_WEBCAM": "false",
		"RECORDER_LAYOUT":        "flat",
	}
	lookup := func(k string) (string, bool) { v, ok := env[k]; return v, ok }

	cfg := DefaultConfig()
	err := ApplyEnv(cfg, lookup)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RECORDER_FPS")
	assert.Equal(t, "/tmp/rec", cfg.OutputDir)
	assert.False(t, cfg.RecordWebcam)
	assert.Equal(t, LayoutFlat, cfg.Layout)
	assert.Equal(t, 10, cfg.FPS)
}

func TestLoadDotEnv_SkipsMissingFiles(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("RECORDER_TEST_DOTENV=yes\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("RECORDER_TEST_DOTENV") })

	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env"), envFile))
	assert.Equal(t, "yes", os.Getenv("RECORDER_TEST_DOTENV"))
}

func TestValidate_Idempotent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cfg := &Config{
			FPS:             rapid.IntRange(-100, 200).Draw(t, "fps"),
			Quality:         rapid.IntRange(-5, 50).Draw(t, "quality"),
			PauseIdleMillis: rapid.IntRange(-1000, 1000).Draw(t, "idle"),
			RefreshMillis:   rapid.IntRange(-1000, 1000).Draw(t, "refresh"),
			Layout:          rapid.SampledFrom([]string{"", LayoutFlat, LayoutSession, "x"}).Draw(t, "layout"),
		}
		_ = cfg.Validate()
		once := *cfg
		_ = cfg.Validate()
		if once != *cfg {
			t.Fatalf("validate not idempotent: %+v vs %+v", once, *cfg)
		}
		if cfg.FPS <= 0 || cfg.PauseIdleMillis <= 0 || cfg.RefreshMillis <= 0 {
			t.Fatalf("non-positive timing after validate: %+v", *cfg)
		}
	})
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, DefaultConfig().Save(path))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	got := make(chan *Config, 4)
	done := make(chan error, 1)
	go func() { done <- Watch(ctx, path, nil, func(c *Config) { got <- c }) }()

	// Give the watcher a moment to register the directory.
	time.Sleep(100 * time.Millisecond)
	cfg := DefaultConfig()
	cfg.FPS = 24
	require.NoError(t, cfg.Save(path))

	select {
	case c := <-got:
		assert.Equal(t, 24, c.FPS)
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for config reload")
	}
	cancel()
	require.NoError(t, <-done)
}
