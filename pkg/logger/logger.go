package logger

import (
	"log/slog"
	"os"
	"strings"
)

// Log is the global logger instance
var Log *slog.Logger

// Setup initializes the global logger based on the environment. LOG_LEVEL
// (debug, info, warn, error) overrides the default info level.
func Setup(env string) {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLevel(os.Getenv("LOG_LEVEL")),
	}

	if env == "production" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	Log = slog.New(handler)
	slog.SetDefault(Log)
}

// L returns the configured logger, or the slog default before Setup runs
func L() *slog.Logger {
	if Log == nil {
		return slog.Default()
	}
	return Log
}

// Info logs an info message
func Info(msg string, args ...any) {
	L().Info(msg, args...)
}

// Error logs an error message
func Error(msg string, args ...any) {
	L().Error(msg, args...)
}

// Debug logs a debug message
func Debug(msg string, args ...any) {
	L().Debug(msg, args...)
}

// Warn logs a warning message
func Warn(msg string, args ...any) {
	L().Warn(msg, args...)
}

func parseLevel(s string) slog.Level {
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
