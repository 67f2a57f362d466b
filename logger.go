package main

import (
	"log/slog"
	"os"
)

// NewLogger returns a structured slog.Logger with the given level. Output
// goes to stderr so the record command's stdout stays readable.
func NewLogger(level slog.Leveler) *slog.Logger {
	h := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(h)
}
