package mylogger

import (
	"log/slog"
	"os"
)

// Logger is the structured logger handed through every service. Each call
// site tags its log lines with an action name before emitting.
type Logger interface {
	Action(action string) Logger
	With(args ...any) Logger
	WithGroup(name string) Logger
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, err error, args ...any)
}

type logger struct {
	sl *slog.Logger
}

// New creates a JSON logger for the named service, writing to stdout.
func New(service string, debug bool) Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	sl := slog.New(handler).With("service", service)

	hostname, err := os.Hostname()
	if err == nil {
		sl = sl.With("hostname", hostname)
	}

	return &logger{sl: sl}
}

func (l *logger) Action(action string) Logger {
	return &logger{sl: l.sl.With("action", action)}
}

func (l *logger) With(args ...any) Logger {
	return &logger{sl: l.sl.With(args...)}
}

func (l *logger) WithGroup(name string) Logger {
	return &logger{sl: l.sl.WithGroup(name)}
}

func (l *logger) Debug(msg string, args ...any) {
	l.sl.Debug(msg, args...)
}

func (l *logger) Info(msg string, args ...any) {
	l.sl.Info(msg, args...)
}

func (l *logger) Warn(msg string, args ...any) {
	l.sl.Warn(msg, args...)
}

func (l *logger) Error(msg string, err error, args ...any) {
	if err != nil {
		args = append(args, "error", err.Error())
	}
	l.sl.Error(msg, args...)
}

// Nop returns a logger that discards everything. Used in tests.
func Nop() Logger {
	handler := slog.NewTextHandler(discard{}, &slog.HandlerOptions{Level: slog.LevelError + 1})
	return &logger{sl: slog.New(handler)}
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
