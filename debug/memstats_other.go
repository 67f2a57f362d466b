//go:build !windows

package debug

import (
	"context"
	"log/slog"
	"runtime"
	"time"
)

// StartMemLogger logs Go heap stats every interval until ctx ends. The
// working set is only queried on Windows.
func StartMemLogger(ctx context.Context, interval time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			var ms runtime.MemStats
			runtime.ReadMemStats(&ms)
			logger.Info("memstats", memFields(&ms)...)
		}
	}()
}
