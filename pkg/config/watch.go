package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/entrhq/autorecord/pkg/logging"
)

// DefaultReloadDelay debounces bursts of writes from editors.
const DefaultReloadDelay = 500 * time.Millisecond

// Watch reloads m whenever the file at path changes and calls onReload with
// the outcome. The directory is watched so editors that replace the file are
// seen. Watch returns once the watcher is running; it stops with ctx.
func Watch(ctx context.Context, m *Manager, path string, delay time.Duration, logger *logging.Logger, onReload func(error)) error {
	if logger == nil {
		logger = logging.Nop()
	}
	if delay <= 0 {
		delay = DefaultReloadDelay
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	target := filepath.Clean(path)
	go func() {
		defer watcher.Close()

		var timer *time.Timer
		defer func() {
			if timer != nil {
				timer.Stop()
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}
				logger.Debugf("config file changed: %s (%s)", event.Name, event.Op)

				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(delay, func() {
					err := m.LoadAll()
					if err == nil {
						err = m.ValidateAll()
					}
					if err != nil {
						logger.Warnf("config reload failed: %v", err)
					} else {
						logger.Infof("config reloaded from %s", path)
					}
					if onReload != nil {
						onReload(err)
					}
				})

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Errorf("config watcher error: %v", err)
			}
		}
	}()

	return nil
}
