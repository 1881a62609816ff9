// Package logging configures colored structured logging with tint.
//
// Environment variables:
//
//	LOG_LEVEL: debug, info, warn, error (default: info)
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// Setup configures colored logging to stderr at the level from LOG_LEVEL
func Setup() *slog.Logger {
	return SetupWriter(os.Stderr, LevelFromEnv(), false)
}

// SetupWriter installs a tint handler writing to w as the default logger.
// noColor is used when w is not a terminal, such as the console log pane.
func SetupWriter(w io.Writer, level slog.Level, noColor bool) *slog.Logger {
	logger := slog.New(NewHandler(w, level, noColor))
	slog.SetDefault(logger)
	return logger
}

// NewHandler builds the tint handler used by every logger in the agent
func NewHandler(w io.Writer, level slog.Level, noColor bool) slog.Handler {
	return tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
		NoColor:    noColor,
	})
}

// LevelFromEnv reads LOG_LEVEL
func LevelFromEnv() slog.Level {
	return ParseLevel(os.Getenv("LOG_LEVEL"))
}

// ParseLevel maps a level name to a slog level, defaulting to info
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

// Discard returns a logger that drops everything
func Discard() *slog.Logger {
	return slog.New(tint.NewHandler(io.Discard, &tint.Options{Level: slog.LevelError + 1}))
}
