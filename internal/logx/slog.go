package logx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// ParseLevel maps a LOG_LEVEL value onto a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// NewJSON returns a Logger writing JSON lines to w. Every entry carries the
// service name so that dispatch-core and dispatchctl output can be told apart.
func NewJSON(w io.Writer, level slog.Level, service string) Logger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	l := slog.New(h)
	if service != "" {
		l = l.With(slog.String("service", service))
	}
	return FromSlog(l)
}

// FromSlog wraps an existing *slog.Logger.
func FromSlog(l *slog.Logger) Logger {
	return &slogLogger{l: l}
}

type slogLogger struct {
	l *slog.Logger
}

func (s *slogLogger) Debug(msg string, fields ...Field) { s.log(slog.LevelDebug, msg, fields) }
func (s *slogLogger) Info(msg string, fields ...Field)  { s.log(slog.LevelInfo, msg, fields) }
func (s *slogLogger) Warn(msg string, fields ...Field)  { s.log(slog.LevelWarn, msg, fields) }
func (s *slogLogger) Error(msg string, fields ...Field) { s.log(slog.LevelError, msg, fields) }

func (s *slogLogger) With(fields ...Field) Logger {
	return &slogLogger{l: s.l.With(attrs(fields)...)}
}

// Sync is a no-op: slog handlers write through.
func (s *slogLogger) Sync() error { return nil }

func (s *slogLogger) log(level slog.Level, msg string, fields []Field) {
	s.l.Log(context.Background(), level, msg, attrs(fields)...)
}

func attrs(fields []Field) []any {
	out := make([]any, 0, len(fields))
	for _, f := range fields {
		out = append(out, slog.Any(f.Key, f.Value))
	}
	return out
}

// Nop discards everything. Components fall back to it when no logger is wired.
func Nop() Logger { return discard{} }

type discard struct{}

func (discard) Debug(string, ...Field) {}
func (discard) Info(string, ...Field)  {}
func (discard) Warn(string, ...Field)  {}
func (discard) Error(string, ...Field) {}
func (d discard) With(...Field) Logger { return d }
func (discard) Sync() error            { return nil }
