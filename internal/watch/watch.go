// Package watch re-runs an action whenever a file changes.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/hashicorp/go-hclog"
)

// DefaultDebounce is the quiet period after the last change before the
// action runs.
const DefaultDebounce = 500 * time.Millisecond

// Action is run after each burst of changes. Runs never overlap.
type Action func(ctx context.Context) error

// Watcher monitors a single file.
type Watcher struct {
	path     string
	debounce time.Duration
	logger   hclog.Logger
}

// New creates a watcher for path.
func New(path string, debounce time.Duration, logger hclog.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Watcher{path: abs, debounce: debounce, logger: logger}, nil
}

// relevant reports whether event touches the watched file with new content.
// The parent directory is watched so that editors replacing the file through
// a rename are still seen.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)
}

// Run calls action once immediately and again after every change, until ctx
// is cancelled. Action errors are logged and do not stop the watch.
func (w *Watcher) Run(ctx context.Context, action Action) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer fsw.Close()

	dir := filepath.Dir(w.path)
	if err := fsw.Add(dir); err != nil {
		return fmt.Errorf("failed to watch folder %s: %w", dir, err)
	}
	w.logger.Info("👀 watching", "path", w.path)

	w.run(ctx, action)

	// Stopped timer whose channel is drained, armed on each change
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("👋 watch stopped", "path", w.path)
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Trace("change detected", "op", event.Op.String())
			timer.Reset(w.debounce)

		case <-timer.C:
			w.run(ctx, action)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}

func (w *Watcher) run(ctx context.Context, action Action) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	if err := action(ctx); err != nil {
		w.logger.Error("❌ run failed", "path", w.path, "error", err)
		return
	}
	w.logger.Debug("run finished", "path", w.path, "duration", time.Since(start))
}
