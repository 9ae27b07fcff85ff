// Package log is the structured logger used across the server.
//
// Loggers are built on log/slog and travel on context.Context. Records are
// enriched with the active OpenTelemetry trace/span ids, a stack trace at or
// above StacktraceLevel, and for errors the unwrap chain with the call sites
// recorded by internal/xerrors.
package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

type Logger interface {
	With(kv ...any) Logger

	Debug(ctx context.Context, msg string, kv ...any)
	Info(ctx context.Context, msg string, kv ...any)
	Warn(ctx context.Context, msg string, kv ...any)
	Error(ctx context.Context, err error, msg string, kv ...any)

	Sync() error
}

type Options struct {
	App               string
	Version           string
	Level             slog.Level
	StacktraceLevel   slog.Level // zero means slog.LevelError
	JSON              bool
	IncludeErrorLinks bool
	MaxErrorLinks     int // zero means 8
	Writer            io.Writer
}

func New(opts Options) (Logger, error) { return newSlog(opts) }

// ParseLevel maps debug|info|warn|error (any case) to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q (valid levels are debug|info|warn|error)", s)
}
