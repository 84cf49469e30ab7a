// Package logger provides leveled printf-style logging for the bot.
// It is a thin package-level facade over log/slog, so call sites stay terse
// while output can be either text or JSON lines.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

var defaultLogger *slog.Logger

// Init initializes the default logger with the specified level and format ("text" or "json").
func Init(level string, format string) {
	initWriter(os.Stderr, level, format)
}

func initWriter(w io.Writer, level, format string) {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var h slog.Handler
	if strings.ToLower(format) == "json" {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	defaultLogger = slog.New(h)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func logf(level slog.Level, format string, args ...interface{}) {
	if defaultLogger == nil || !defaultLogger.Enabled(context.Background(), level) {
		return
	}
	defaultLogger.Log(context.Background(), level, fmt.Sprintf(format, args...))
}

// Debug logs a message at debug level
func Debug(format string, args ...interface{}) {
	logf(slog.LevelDebug, format, args...)
}

// Info logs a message at info level
func Info(format string, args ...interface{}) {
	logf(slog.LevelInfo, format, args...)
}

// Warn logs a message at warn level
func Warn(format string, args ...interface{}) {
	logf(slog.LevelWarn, format, args...)
}

// Error logs a message at error level
func Error(format string, args ...interface{}) {
	logf(slog.LevelError, format, args...)
}

// Fatal logs a message at error level and exits
func Fatal(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if defaultLogger != nil {
		defaultLogger.Error(msg, "fatal", true)
	} else {
		fmt.Fprintln(os.Stderr, "FATAL "+msg)
	}
	os.Exit(1)
}
