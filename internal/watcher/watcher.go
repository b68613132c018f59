// Package watcher watches the library directory and triggers rescans when
// files change. Bursts of filesystem events (a copy of a whole library, an
// unzip) are debounced into a single callback.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period required before the change callback
// fires.
const DefaultDebounce = 2 * time.Second

// Watcher watches a directory tree for changes.
type Watcher struct {
	root     string
	debounce time.Duration
	onChange func()
	logger   *slog.Logger

	fsw *fsnotify.Watcher
}

// New creates a watcher over root. onChange is invoked after events settle.
func New(root string, debounce time.Duration, onChange func(), logger *slog.Logger) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	return &Watcher{
		root:     root,
		debounce: debounce,
		onChange: onChange,
		logger:   logger,
		fsw:      fsw,
	}, nil
}

// Start begins watching. It blocks until the context is canceled, so run it
// in its own goroutine.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addRecursive(w.root); err != nil {
		return err
	}
	w.logger.Info("watching library for changes", "path", w.root, "debounce", w.debounce)

	var timer *time.Timer
	var lastEvent time.Time
	fire := make(chan struct{}, 1)
	sendFire := func() {
		select {
		case fire <- struct{}{}:
		default:
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return w.fsw.Close()

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}

			// New directories need their own watch before anything
			// inside them produces events.
			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addRecursive(event.Name); err != nil {
						w.logger.Warn("failed to watch new directory", "path", event.Name, "error", err)
					}
				}
			}

			w.logger.Debug("filesystem event", "op", event.Op.String(), "path", event.Name)
			lastEvent = time.Now()
			if timer == nil {
				timer = time.AfterFunc(w.debounce, sendFire)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", "error", err)

		case <-fire:
			// The token may predate events that arrived while it was
			// queued; fire only after a full quiet period, otherwise
			// re-arm for the remainder.
			if quiet := time.Since(lastEvent); quiet < w.debounce {
				timer = time.AfterFunc(w.debounce-quiet, sendFire)
				continue
			}
			timer = nil
			w.logger.Info("library changed, triggering rescan")
			w.onChange()
		}
	}
}

// relevant filters out noise: hidden paths and chmod-only events.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	base := filepath.Base(event.Name)
	return !strings.HasPrefix(base, ".")
}

// addRecursive registers root and every subdirectory with fsnotify.
func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			w.logger.Warn("cannot watch path", "path", path, "error", err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if d.Name() != "." && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}
