package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultSettle = 500 * time.Millisecond

// Watcher reports changes to a catalog file. Editors and ETL jobs often
// replace the file through a rename, so the parent directory is watched and
// events are filtered by name.
type Watcher struct {
	path   string
	settle time.Duration
	logger *slog.Logger
}

// NewWatcher creates a watcher for the catalog at path. Bursts of events are
// collapsed into one notification after settle (defaults to 500ms).
func NewWatcher(path string, settle time.Duration, logger *slog.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving catalog path: %w", err)
	}
	if settle <= 0 {
		settle = defaultSettle
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Watcher{path: abs, settle: settle, logger: logger}, nil
}

// Run blocks until ctx is done, calling onChange once per settled burst of
// writes, creates, or renames of the catalog file. onChange runs on the
// watcher goroutine, so a slow callback delays later notifications rather
// than overlapping them.
func (w *Watcher) Run(ctx context.Context, onChange func(ctx context.Context)) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating catalog watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watching catalog dir: %w", err)
	}

	w.logger.Info("watching catalog for changes", "path", w.path)

	timer := time.NewTimer(w.settle)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.logger.Debug("catalog event", "op", event.Op.String())
			timer.Reset(w.settle)

		case <-timer.C:
			w.logger.Info("catalog changed", "path", w.path)
			onChange(ctx)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("catalog watcher error: %w", err)
		}
	}
}
