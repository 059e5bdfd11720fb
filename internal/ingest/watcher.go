package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Waiter blocks for a bounded time until any source may have new data.
type Waiter interface {
	// Wait returns true when new data may be available, false on timeout
	// or cancellation.
	Wait(ctx context.Context, d time.Duration) bool
	Close() error
}

// FileWatcher is a Waiter backed by one fsnotify watch over every source, so
// a quiet log never delays the others.
type FileWatcher struct {
	w *fsnotify.Watcher
}

// NewFileWatcher watches paths for writes.
func NewFileWatcher(paths []string) (*FileWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	for _, p := range paths {
		if err := w.Add(p); err != nil {
			_ = w.Close()
			return nil, fmt.Errorf("watch %s: %w", p, err)
		}
	}
	return &FileWatcher{w: w}, nil
}

// Wait implements Waiter.
func (fw *FileWatcher) Wait(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return false
		case <-timer.C:
			return false
		case ev, ok := <-fw.w.Events:
			if !ok {
				return false
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
				return true
			}
		case _, ok := <-fw.w.Errors:
			// A watcher error just means we fall back to the timeout.
			if !ok {
				return false
			}
		}
	}
}

// Close stops watching.
func (fw *FileWatcher) Close() error {
	return fw.w.Close()
}
