package cutlog

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.ntppool.org/common/logger"
)

const (
	reloadInterval   = 5 * time.Minute
	debounceInterval = 100 * time.Millisecond
)

// Watch calls fn whenever the state file in dir changes, and at least every
// few minutes when file events are unavailable. It blocks until ctx is done.
// fn is called once before waiting for changes.
func Watch(ctx context.Context, dir string, fn func(ctx context.Context)) error {
	log := logger.FromContext(ctx).WithGroup("cutlog-watch")

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.WarnContext(ctx, "failed to create file watcher, falling back to timer-only reloading", "err", err)
		watcher = nil
	} else if err := watcher.Add(dir); err != nil {
		log.WarnContext(ctx, "failed to watch state directory, falling back to timer-only reloading", "dir", dir, "err", err)
		watcher.Close()
		watcher = nil
	} else {
		log.DebugContext(ctx, "watching state directory", "dir", dir)
	}

	return watch(ctx, watcher, fn, reloadInterval)
}

// watch runs the reload loop and closes watcher when done. A nil watcher
// reloads on the timer only.
func watch(ctx context.Context, watcher *fsnotify.Watcher, fn func(ctx context.Context), interval time.Duration) error {
	log := logger.FromContext(ctx).WithGroup("cutlog-watch")

	defer func() {
		if watcher != nil {
			watcher.Close()
		}
	}()

	fn(ctx)

	timer := time.NewTimer(interval)
	defer timer.Stop()

	var debounceTimer *time.Timer

	for {
		var events <-chan fsnotify.Event
		var errs <-chan error
		if watcher != nil {
			events, errs = watcher.Events, watcher.Errors
		}
		var debounceC <-chan time.Time
		if debounceTimer != nil {
			debounceC = debounceTimer.C
		}

		select {
		case <-ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return nil

		case <-debounceC:
			debounceTimer = nil

		case event, ok := <-events:
			if !ok {
				log.WarnContext(ctx, "file watcher events channel closed, falling back to timer-only reloading")
				watcher.Close()
				watcher = nil
				continue
			}
			base := filepath.Base(event.Name)
			if base != StateFile && base != StateFile+".tmp" {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			log.DebugContext(ctx, "state file changed", "event", event.String())
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.NewTimer(debounceInterval)
			continue

		case err, ok := <-errs:
			if !ok {
				log.WarnContext(ctx, "file watcher error channel closed, falling back to timer-only reloading")
				watcher.Close()
				watcher = nil
				continue
			}
			log.WarnContext(ctx, "file watcher error", "err", err)

		case <-timer.C:
		}

		fn(ctx)
		timer.Reset(interval)
	}
}
