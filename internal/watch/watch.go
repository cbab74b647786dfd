// ABOUTME: Watches one document file and calls back when its contents change
// ABOUTME: Built on fsnotify; watches the parent directory so editor rename-saves are seen
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce collapses the burst of events a single save produces
const DefaultDebounce = 200 * time.Millisecond

// Func is called with the watched path after each settled change
type Func func(ctx context.Context, path string)

// File calls fn whenever path is written or replaced, until ctx is cancelled.
// It returns once the watch is established; fn runs on the watcher goroutine.
func File(ctx context.Context, path string, debounce time.Duration, fn Func) (<-chan struct{}, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer func() { _ = w.Close() }()

		timer := time.NewTimer(debounce)
		if !timer.Stop() {
			<-timer.C
		}

		for {
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != abs || !ev.Has(fsnotify.Write|fsnotify.Create) {
					continue
				}
				log.Debug("document changed", "path", abs, "op", ev.Op.String())
				timer.Reset(debounce)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Warn("file watcher error", "path", abs, "err", err)
			case <-timer.C:
				log.Info("re-ingesting changed document", "path", abs)
				fn(ctx, abs)
			}
		}
	}()

	return done, nil
}
