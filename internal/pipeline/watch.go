package pipeline

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchDebounce is the quiet window applied between a detected change and
// the next pipeline re-run, coalescing bursts of filesystem events into one
// rebuild.
const WatchDebounce = 500 * time.Millisecond

// RunFunc triggers one pipeline run. Watch calls it once at startup and
// again after every debounced change.
type RunFunc func(ctx context.Context) error

// Watch watches the parent directory of every path that contributes to a
// step's fingerprint path stamps and re-runs run whenever an entry directly
// inside one of those directories changes, debounced by WatchDebounce. The
// watch is not recursive: changes deeper inside a stamped directory do not
// trigger a run. It blocks until ctx is cancelled.
func Watch(ctx context.Context, defs []StepDefinition, run RunFunc, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	watched := map[string]bool{}
	for _, def := range defs {
		for _, key := range fingerprintPathKeys[def.Task] {
			raw := stringField(def.Element.Raw, key)
			if raw == "" {
				continue
			}
			path := raw
			if !filepath.IsAbs(path) {
				path = filepath.Join(def.Element.BaseDir, path)
			}
			dir := filepath.Dir(path)
			if watched[dir] {
				continue
			}
			if err := watcher.Add(dir); err != nil {
				logger.Warn("watch add failed", slog.String("dir", dir), slog.String("error", err.Error()))
				continue
			}
			watched[dir] = true
		}
	}

	if err := run(ctx); err != nil {
		logger.Error("initial run failed", slog.String("error", err.Error()))
	}

	var debounce *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			logger.Debug("watch event", slog.String("path", event.Name), slog.String("op", event.Op.String()))
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.NewTimer(WatchDebounce)
			fire = debounce.C

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", slog.String("error", err.Error()))

		case <-fire:
			fire = nil
			logger.Info("change detected, re-running pipeline")
			if err := run(ctx); err != nil {
				logger.Error("watch-triggered run failed", slog.String("error", err.Error()))
			}
		}
	}
}
