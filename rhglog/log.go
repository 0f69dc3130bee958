// Package rhglog wraps log/slog the way the ingest core's ambient logging
// concern is carried: a custom below-Debug Trace level, an Off level that
// disables the handler outright, and a per-stage timing helper.
package rhglog

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"
)

// LogLevel is the ingest core's configuration-facing level, matching
// ConvertOptions.logLevel values exactly.
type LogLevel int

const (
	Trace LogLevel = iota
	Debug
	Info
	Warn
	Error
	Off
)

// LevelTrace sits below slog.LevelDebug: ingest trace output (one line per
// expression node lowered) is higher-volume than the simulator-style debug
// output slog ships with, so it needs its own rung underneath.
const LevelTrace slog.Level = slog.LevelDebug - 4

func (l LogLevel) slogLevel() slog.Level {
	switch l {
	case Trace:
		return LevelTrace
	case Debug:
		return slog.LevelDebug
	case Info:
		return slog.LevelInfo
	case Warn:
		return slog.LevelWarn
	case Error:
		return slog.LevelError
	default:
		return slog.LevelError + 100 // effectively unreachable; Off is handled separately
	}
}

// Logger is the ingest core's logging facade. A disabled or Off-level
// Logger is always safe to call — every method becomes a no-op.
type Logger struct {
	handler *slog.Logger
	enabled bool
	level   LogLevel
}

// New creates a Logger writing JSON lines to w at the given level. Pass
// enabled=false (or level=Off) to silence it entirely without branching at
// every call site — ConvertOptions.EnableLogging maps directly onto enabled.
func New(w io.Writer, level LogLevel, enabled bool) *Logger {
	if w == nil {
		w = os.Stderr
	}
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level.slogLevel()})
	return &Logger{handler: slog.New(h), enabled: enabled && level != Off, level: level}
}

// Discard returns a Logger that never emits anything, the default for
// ConvertOptions.EnableLogging == false.
func Discard() *Logger {
	return &Logger{handler: slog.New(slog.NewJSONHandler(io.Discard, nil)), enabled: false}
}

func (l *Logger) log(ctx context.Context, level slog.Level, msg string, args ...any) {
	if l == nil || !l.enabled {
		return
	}
	l.handler.Log(ctx, level, msg, args...)
}

// Trace emits a trace-level record.
func (l *Logger) Trace(msg string, args ...any) { l.log(context.Background(), LevelTrace, msg, args...) }

// Debug emits a debug-level record.
func (l *Logger) Debug(msg string, args ...any) { l.log(context.Background(), slog.LevelDebug, msg, args...) }

// Info emits an info-level record.
func (l *Logger) Info(msg string, args ...any) { l.log(context.Background(), slog.LevelInfo, msg, args...) }

// Warn emits a warn-level record.
func (l *Logger) Warn(msg string, args ...any) { l.log(context.Background(), slog.LevelWarn, msg, args...) }

// Error emits an error-level record.
func (l *Logger) Error(msg string, args ...any) { l.log(context.Background(), slog.LevelError, msg, args...) }

// Timing emits a timing record for one pipeline stage, gated on
// ConvertOptions.EnableTiming by the caller (this method always emits when
// the logger itself is enabled; the driver only calls it when timing is on).
func (l *Logger) Timing(stage string, d time.Duration) {
	l.log(context.Background(), slog.LevelInfo, "stage timing",
		slog.Group("timing", slog.String("stage", stage), slog.Duration("elapsed", d)))
}
