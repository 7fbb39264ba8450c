package dataset

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// LocalPath returns the file a source resolves to, or false for the
// builtin dataset and remote sources.
func LocalPath(source string) (string, bool) {
	loc := Resolve(source)
	if loc == Builtin || isURL(loc) {
		return "", false
	}
	abs, err := filepath.Abs(loc)
	if err != nil {
		return loc, true
	}
	return abs, true
}

// Watch calls onChange after path is written, created or replaced, at most
// once per debounce window. It watches the parent directory so editors
// that save by rename are seen. Watch blocks until ctx is canceled.
func Watch(ctx context.Context, path string, debounce time.Duration, onChange func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("dataset: creating watcher: %w", err)
	}
	defer func() { _ = w.Close() }()

	path = filepath.Clean(path)
	if err := w.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("dataset: watching %s: %w", filepath.Dir(path), err)
	}

	var (
		timer   *time.Timer
		pending <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			pending = timer.C

		case <-pending:
			pending = nil
			onChange()

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("dataset: watcher: %w", err)
		}
	}
}
