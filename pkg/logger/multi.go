package logger

import (
	"context"
	"errors"
	"log/slog"
)

// Multi returns a logger that hands every record to each of the given
// loggers. serve uses it to keep console output while also appending JSON to
// a log file. Nil loggers are skipped.
func Multi(loggers ...*slog.Logger) *slog.Logger {
	fan := make(fanout, 0, len(loggers))
	for _, l := range loggers {
		if l != nil {
			fan = append(fan, l.Handler())
		}
	}
	if len(fan) == 1 {
		return slog.New(fan[0])
	}
	return slog.New(fan)
}

type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle delivers to every enabled handler even when one of them fails.
func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f {
		if h.Enabled(ctx, r.Level) {
			errs = append(errs, h.Handle(ctx, r.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	return f.each(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (f fanout) WithGroup(name string) slog.Handler {
	return f.each(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (f fanout) each(fn func(slog.Handler) slog.Handler) fanout {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = fn(h)
	}
	return out
}
