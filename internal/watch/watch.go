// Package watch reruns a callback whenever files under a directory change.
package watch

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is used when Options.Debounce is zero.
const DefaultDebounce = 300 * time.Millisecond

// Options configures Run.
type Options struct {
	// Debounce is the quiet period after the last event before triggering.
	Debounce time.Duration
	// Filter reports whether a change to path should trigger a run.
	// Nil accepts every path. Creating, removing or renaming a watched
	// directory always triggers.
	Filter func(path string) bool
	// OnReady is called once the initial watches are in place.
	OnReady func()
	Logger  *log.Logger
}

// Run watches root recursively and calls trigger after each burst of
// changes. Calls to trigger never overlap. A trigger error is logged and
// watching continues. Run returns nil when ctx is cancelled.
func Run(ctx context.Context, root string, opts Options, trigger func(context.Context) error) error {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch init: %w", err)
	}
	defer watcher.Close()

	dirs := make(map[string]struct{})
	if err := addRecursive(watcher, dirs, root); err != nil {
		return fmt.Errorf("watch %s: %w", root, err)
	}
	if opts.OnReady != nil {
		opts.OnReady()
	}

	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op == fsnotify.Chmod {
				continue
			}
			switch {
			case ev.Has(fsnotify.Create) && isDir(ev.Name):
				if err := addRecursive(watcher, dirs, ev.Name); err != nil {
					logger.Warn("Cannot watch new directory", "path", ev.Name, "err", err)
				}
			case ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename):
				// A directory moved out of the tree reports only its own
				// path, never the source files it held.
				if !forgetDir(watcher, dirs, ev.Name) && opts.Filter != nil && !opts.Filter(ev.Name) {
					continue
				}
			case opts.Filter != nil && !opts.Filter(ev.Name):
				continue
			}
			logger.Debug("Change detected", "path", ev.Name, "op", ev.Op.String())
			fire = time.After(debounce)

		case <-fire:
			fire = nil
			if err := trigger(ctx); err != nil {
				logger.Error("Run failed", "err", err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watch error", "err", err)
		}
	}
}

// addRecursive adds root and every directory below it, recording each in
// dirs. Symlinked directories are not followed.
func addRecursive(w *fsnotify.Watcher, dirs map[string]struct{}, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.Add(path); err != nil {
			return err
		}
		dirs[filepath.Clean(path)] = struct{}{}
		return nil
	})
}

// forgetDir drops path and everything below it from the watch set. It
// reports whether path was a watched directory.
func forgetDir(w *fsnotify.Watcher, dirs map[string]struct{}, path string) bool {
	path = filepath.Clean(path)
	if _, ok := dirs[path]; !ok {
		return false
	}
	prefix := path + string(filepath.Separator)
	for dir := range dirs {
		if dir == path || strings.HasPrefix(dir, prefix) {
			// Removed directories are already unwatched; renamed ones are not.
			_ = w.Remove(dir)
			delete(dirs, dir)
		}
	}
	return true
}

func isDir(path string) bool {
	info, err := os.Lstat(path)
	return err == nil && info.IsDir()
}
