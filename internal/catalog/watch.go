package catalog

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const debounce = 200 * time.Millisecond

// Watch reloads the catalog when its file changes, until ctx is cancelled.
// The parent directory is watched rather than the file itself so editors
// that replace the file (write to temp, rename over) are still seen.
// Events are debounced; a reload failure keeps the previous catalog.
func (c *Catalog) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(c.path)); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()

		var timer *time.Timer
		var fire <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != filepath.Clean(c.path) {
					continue
				}
				if timer == nil {
					timer = time.NewTimer(debounce)
					fire = timer.C
				} else {
					timer.Reset(debounce)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Warn("catalog watcher error", "error", err)
			case <-fire:
				if err := c.reload(); err != nil {
					slog.Warn("catalog reload failed", "path", c.path, "error", err)
				} else {
					slog.Info("catalog reloaded", "path", c.path, "agents", c.Len())
				}
			}
		}
	}()
	return nil
}
