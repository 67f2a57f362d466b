package config

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce coalesces the burst of events editors emit on save.
const watchDebounce = 200 * time.Millisecond

// Watch reloads the config file at path whenever it is written or replaced
// and passes the freshly loaded config to onChange, until ctx is cancelled.
// The parent directory is watched so atomic rename-on-save is observed.
// Parse failures are logged and the previous config stays in effect.
func Watch(ctx context.Context, path string, logger *slog.Logger, onChange func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return err
	}

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				pending = time.After(watchDebounce)
			}

		case <-pending:
			pending = nil
			cfg, err := Load(abs)
			if err != nil {
				if logger != nil {
					logger.Warn("config reload failed", "path", abs, "error", err)
				}
				continue
			}
			if err := ApplyEnv(cfg, nil); err != nil && logger != nil {
				logger.Warn("config env override", "error", err)
			}
			if logger != nil {
				logger.Info("config reloaded", "path", abs)
			}
			if onChange != nil {
				onChange(cfg)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			if logger != nil {
				logger.Warn("config watcher", "error", err)
			}
		}
	}
}
