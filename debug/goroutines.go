// Package debug holds periodic runtime loggers started when config.Debug is set.
package debug

import (
	"context"
	"log/slog"
	"runtime"
	"runtime/metrics"
	"time"
)

// StartGoroutineLogger logs goroutine count and stack memory every interval
// until ctx ends. Capture loops and encoders each hold goroutines, so a count
// that grows across sessions points at a leaked loop.
func StartGoroutineLogger(ctx context.Context, interval time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		interval = time.Second
	}
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		samples := []metrics.Sample{{Name: "/sched/goroutines:goroutines"}}
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
			}
			metrics.Read(samples)
			var ms runtime.MemStats
			runtime.ReadMemStats(&ms)
			logger.Info("goroutine-stacks",
				slog.Uint64("goroutines", goroutineCount(samples[0])),
				slog.Uint64("stack_inuse", ms.StackInuse),
				slog.Uint64("stack_sys", ms.StackSys),
				slog.Uint64("heap_alloc", ms.HeapAlloc),
			)
		}
	}()
}

func goroutineCount(s metrics.Sample) uint64 {
	if s.Value.Kind() == metrics.KindUint64 {
		return s.Value.Uint64()
	}
	return uint64(runtime.NumGoroutine())
}

// memFields are the Go heap attributes shared by every platform's memstats line.
func memFields(ms *runtime.MemStats) []any {
	return []any{
		slog.Int("goroutines", runtime.NumGoroutine()),
		slog.Uint64("heap_alloc", ms.HeapAlloc),
		slog.Uint64("heap_inuse", ms.HeapInuse),
		slog.Uint64("heap_idle", ms.HeapIdle),
		slog.Uint64("heap_sys", ms.HeapSys),
		slog.Uint64("next_gc", ms.NextGC),
		slog.Uint64("num_gc", uint64(ms.NumGC)),
	}
}
