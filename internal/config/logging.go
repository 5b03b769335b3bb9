package config

import (
	"io"
	"log/slog"
	"strings"
)

// NewLogger returns the JSON logger used by the functions, writing at level.
func NewLogger(w io.Writer, level slog.Leveler) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// LogLevel parses LOG_LEVEL, defaulting to info for unset or unknown values.
func (s *Store) LogLevel() slog.Level {
	switch strings.ToLower(s.Get(LogLevel, "info")) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
