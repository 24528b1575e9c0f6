package rules

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDebounce coalesces the burst of write events editors and atomic
// renames produce into a single reload.
const reloadDebounce = 500 * time.Millisecond

// Watcher re-imports a rule-pack file whenever it changes on disk, so rule
// updates take effect without a restart.
type Watcher struct {
	loader  *Loader
	watcher *fsnotify.Watcher
	path    string
	logger  *slog.Logger
}

// NewWatcher creates a watcher over the given rule-pack path. The path
// must exist at startup.
func NewWatcher(loader *Loader, path string, logger *slog.Logger) (*Watcher, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("rule pack %s: %w", path, err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	if err := fw.Add(path); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}

	return &Watcher{
		loader:  loader,
		watcher: fw,
		path:    path,
		logger:  logger.With("system", "rules"),
	}, nil
}

// Run blocks until ctx is cancelled, re-importing the pack after each
// write. A failed reload keeps the previously imported rules in place.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(reloadDebounce, func() {
				w.reload(ctx)
			})

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("rule pack watcher error", "error", err)
		}
	}
}

func (w *Watcher) reload(ctx context.Context) {
	result, err := w.loader.Import(ctx, w.path)
	if err != nil {
		w.logger.Error("rule pack reload failed", "path", w.path, "error", err)
		return
	}
	w.logger.Info("rule pack reloaded",
		"path", w.path, "imported", result.Imported, "errors", len(result.Errors))
}
