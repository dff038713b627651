package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

var current atomic.Pointer[slog.Logger]

func init() {
	current.Store(newLogger(os.Stdout, slog.LevelInfo))
}

// Init installs the process logger at the given level ("debug", "info",
// "warn", "error"). Unknown levels fall back to info.
func Init(level string) {
	current.Store(newLogger(os.Stdout, parseLevel(level)))
	Info("logger initialized", map[string]any{"level": strings.ToLower(level)})
}

// SetOutput redirects log output, mainly for tests.
func SetOutput(w io.Writer, level string) {
	current.Store(newLogger(w, parseLevel(level)))
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With("service", "handyman-auth")
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

func Debug(msg string, fields map[string]any) {
	write(slog.LevelDebug, msg, fields)
}

func Info(msg string, fields map[string]any) {
	write(slog.LevelInfo, msg, fields)
}

func Warn(msg string, fields map[string]any) {
	write(slog.LevelWarn, msg, fields)
}

func Error(msg string, fields map[string]any) {
	write(slog.LevelError, msg, fields)
}

func Fatal(msg string, fields map[string]any) {
	write(slog.LevelError, msg, fields)
	os.Exit(1)
}

func write(level slog.Level, msg string, fields map[string]any) {
	l := current.Load()
	if !l.Enabled(context.Background(), level) {
		return
	}

	attrs := make([]slog.Attr, 0, len(fields))
	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	l.LogAttrs(context.Background(), level, msg, attrs...)
}
