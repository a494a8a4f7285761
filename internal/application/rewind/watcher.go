package rewind

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/penwyp/go-project-history/internal/util"
)

// LogWatcher reports changes to a history log file.
// It watches the parent directory so editors that replace the file atomically are seen too.
type LogWatcher struct {
	watcher  *fsnotify.Watcher
	path     string
	debounce time.Duration
}

// NewLogWatcher starts watching path
func NewLogWatcher(path string, debounce time.Duration) (*LogWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, err
	}
	return &LogWatcher{
		watcher:  watcher,
		path:     abs,
		debounce: debounce,
	}, nil
}

// Run calls onChange once per burst of writes to the log, until ctx ends or the watcher closes
func (lw *LogWatcher) Run(ctx context.Context, onChange func()) {
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-lw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != lw.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			util.LogDebugf("History log changed: %s (%s)", event.Name, event.Op)
			timer.Reset(lw.debounce)

		case <-timer.C:
			onChange()

		case err, ok := <-lw.watcher.Errors:
			if !ok {
				return
			}
			util.LogError("History log watch error: " + err.Error())
		}
	}
}

// Close stops watching
func (lw *LogWatcher) Close() error {
	return lw.watcher.Close()
}
