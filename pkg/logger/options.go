package logger

import (
	"io"
	"log/slog"
)

// Option configures New.
type Option func(*config)

// WithDebug lowers the level to Debug.
func WithDebug(debug bool) Option {
	return func(c *config) {
		c.level = slog.LevelInfo
		if debug {
			c.level = slog.LevelDebug
		}
	}
}

// WithFormat picks the handler. See Format.
func WithFormat(f Format) Option {
	return func(c *config) {
		if f != "" {
			c.format = f
		}
	}
}

// WithWriter redirects output. A nil writer is ignored.
func WithWriter(w io.Writer) Option {
	return func(c *config) {
		if w != nil {
			c.w = w
		}
	}
}
