package logger

import (
	"log/slog"
	"os"
)

// New returns the process logger. JSON output keeps audit-tagged lines
// machine-filterable alongside the store-backed audit trail.
func New() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}
