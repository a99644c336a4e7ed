package cli

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce collapses the burst of events a single save produces.
var watchDebounce = 150 * time.Millisecond

// watchFile calls run once, then again every time path is written or
// replaced, until ctx is canceled. Errors from run are logged and do not
// stop the watch.
func watchFile(ctx context.Context, path string, run func(context.Context) error) error {
	logger := loggerFromContext(ctx)

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	// Watch the directory: editors often save by renaming a new file over
	// the old one, which drops a watch on the file itself.
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return err
	}

	if err := run(ctx); err != nil {
		logger.Error("layout failed", "err", err)
	}
	logger.Info("watching for changes", "path", path)

	trigger := make(chan struct{}, 1)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || (!ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create)) {
				continue
			}
			if timer == nil {
				timer = time.AfterFunc(watchDebounce, func() {
					select {
					case trigger <- struct{}{}:
					default:
					}
				})
			} else {
				timer.Reset(watchDebounce)
			}
		case <-trigger:
			logger.Debug("input changed", "path", path)
			if err := run(ctx); err != nil {
				logger.Error("layout failed", "err", err)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "err", err)
		}
	}
}
