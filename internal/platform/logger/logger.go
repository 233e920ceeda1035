package logger

import (
	"log/slog"
	"os"
)

// New returns the service's structured logger: JSON to stdout, with the
// level taken from COPPICE_LOG_LEVEL (info by default).
func New() *slog.Logger {
	level := slog.LevelInfo
	switch os.Getenv("COPPICE_LOG_LEVEL") {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
