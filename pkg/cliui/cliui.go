// Package cliui provides reusable terminal UI helpers (spinners, step indicators,
// markdown rendering) for wikiart CLI commands.
package cliui

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"charm.land/bubbles/v2/spinner"
	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

var (
	SuccessMark  = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Render("✓")
	FailMark     = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render("✗")
	StepStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	KeyStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	DimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	ValueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	PromptStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("213")).Bold(true)
	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
)

// Step prints an animated spinner while fn runs, then replaces it with
// a ✓ or ✗ checkmark and elapsed time.
func Step(w io.Writer, msg string, fn func() error) error {
	done := make(chan struct{})
	stopped := make(chan struct{})
	var mu sync.Mutex

	frames := spinner.Dot.Frames

	// Run spinner animation in background
	go func() {
		defer close(stopped)
		frame := 0
		ticker := time.NewTicker(spinner.Dot.FPS)
		defer ticker.Stop()

		for {
			mu.Lock()
			fmt.Fprintf(w, "\r  %s %s",
				spinnerStyle.Render(frames[frame%len(frames)]),
				msg,
			)
			mu.Unlock()

			select {
			case <-done:
				return
			case <-ticker.C:
				frame++
			}
		}
	}()

	start := time.Now()
	err := fn()
	elapsed := time.Since(start)

	close(done)
	<-stopped

	// Clear the spinner line and print final result
	mu.Lock()
	fmt.Fprintf(w, "\r%s\r  %s %s %s\n",
		ansi.EraseEntireLine,
		Mark(err),
		msg,
		StepStyle.Render(fmt.Sprintf("(%s)", FormatDuration(elapsed))),
	)
	mu.Unlock()

	return err
}

// Mark returns a ✓ for nil errors or ✗ for non-nil errors.
func Mark(err error) string {
	if err != nil {
		return FailMark
	}
	return SuccessMark
}

// FormatDuration formats a duration for display (e.g. "12ms" or "3.2s").
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

// Truncate shortens s to width display cells, ANSI sequences included,
// ending with an ellipsis when cut.
func Truncate(s string, width int) string {
	return ansi.Truncate(s, width, "…")
}

// TermWidth is the width of stdout, or 80 when it is not a terminal.
func TermWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return 80
}

// IsInteractive reports whether stdin is a terminal.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// ColorEnabled honors NO_COLOR and CLICOLOR_FORCE and reports whether w
// can render color.
func ColorEnabled(w io.Writer) bool {
	return termenv.NewOutput(w).EnvColorProfile() != termenv.Ascii
}

// RenderMarkdown renders markdown content for terminal display using glamour.
func RenderMarkdown(content string) (string, error) {
	style := glamour.WithAutoStyle()
	if !ColorEnabled(os.Stdout) {
		style = glamour.WithStandardStyle("notty")
	}

	r, err := glamour.NewTermRenderer(
		style,
		glamour.WithWordWrap(min(TermWidth(), 100)),
	)
	if err != nil {
		return content, err
	}

	rendered, err := r.Render(content)
	if err != nil {
		return content, err
	}

	return rendered, nil
}
