// Package logger builds the *slog.Logger used by wikiart commands and the
// serve process.
package logger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	charmlog "github.com/charmbracelet/log"
	"golang.org/x/term"
)

// Format selects the handler New builds.
type Format string

const (
	// FormatAuto is pretty on a terminal and JSON everywhere else.
	FormatAuto   Format = "auto"
	FormatText   Format = "text"
	FormatJSON   Format = "json"
	FormatPretty Format = "pretty"
)

// ErrUnknownFormat is returned by ParseFormat for names it does not know.
var ErrUnknownFormat = errors.New("unknown log format")

// ParseFormat accepts auto, text, json or pretty, case-insensitively. The
// empty string is auto.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatAuto, nil
	case FormatAuto, FormatText, FormatJSON, FormatPretty:
		return f, nil
	default:
		return "", fmt.Errorf("%w %q: want auto, text, json or pretty", ErrUnknownFormat, s)
	}
}

type config struct {
	level  slog.Level
	format Format
	w      io.Writer
}

// New builds a *slog.Logger. Without options it logs text at Info level to
// os.Stderr.
func New(opts ...Option) *slog.Logger {
	c := &config{
		level:  slog.LevelInfo,
		format: FormatText,
		w:      os.Stderr,
	}
	for _, opt := range opts {
		opt(c)
	}

	format := c.format
	if format == FormatAuto {
		format = FormatJSON
		if isTerminal(c.w) {
			format = FormatPretty
		}
	}

	switch format {
	case FormatJSON:
		return slog.New(slog.NewJSONHandler(c.w, &slog.HandlerOptions{Level: c.level}))

	case FormatPretty:
		return slog.New(charmlog.NewWithOptions(c.w, charmlog.Options{
			Level:           charmlog.Level(c.level),
			ReportTimestamp: true,
		}))

	default:
		return slog.New(slog.NewTextHandler(c.w, &slog.HandlerOptions{Level: c.level}))
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Component tags every record from the returned logger with the component
// that emitted it.
func Component(l *slog.Logger, name string) *slog.Logger {
	return l.With("component", name)
}

// Nop returns a logger that discards everything.
func Nop() *slog.Logger {
	return slog.New(nopHandler{})
}

type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (h nopHandler) WithAttrs([]slog.Attr) slog.Handler      { return h }
func (h nopHandler) WithGroup(string) slog.Handler           { return h }
