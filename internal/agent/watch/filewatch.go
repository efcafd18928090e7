package watch

import (
	"context"

	"github.com/fsnotify/fsnotify"
)

// WatchFile invokes onChange every time path is written or created,
// until ctx is cancelled. This backs an optional continuous drift-watch
// mode: instead of a caller re-invoking RunDriftTests on a timer, it can
// watch drift-tests.yml directly and only re-run tests when someone
// actually edits the file.
func WatchFile(ctx context.Context, path string, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				onChange()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			if err != nil {
				return err
			}
		}
	}
}
