// Package watch reloads debug information when the assembler rewrites its
// output files.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/retrogolib/set"
)

// DefaultDelay is the quiet period after the last change before reloading.
// An assembler run writes several files, the reload waits for all of them.
const DefaultDelay = 250 * time.Millisecond

// ReloadFunc is called after watched files changed.
type ReloadFunc func(ctx context.Context) error

// Watcher observes a set of files for changes.
type Watcher struct {
	logger *log.Logger
	w      *fsnotify.Watcher
	files  set.Set[string]
	delay  time.Duration

	// states holds the file states after the last reload. Events for files
	// that still match it are ignored, this includes the writes of the
	// reload itself.
	states map[string]fileState
}

type fileState struct {
	exists  bool
	size    int64
	modTime int64 // nanoseconds
}

func statFile(path string) fileState {
	info, err := os.Stat(path)
	if err != nil {
		return fileState{}
	}
	return fileState{
		exists:  true,
		size:    info.Size(),
		modTime: info.ModTime().UnixNano(),
	}
}

// New creates a watcher for the given files. The containing directories are
// watched so that files replaced by rename or recreated are still noticed.
func New(logger *log.Logger, delay time.Duration, files ...string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}

	watcher := &Watcher{
		logger: logger,
		w:      w,
		files:  set.New[string](),
		delay:  delay,
		states: make(map[string]fileState),
	}

	dirs := set.New[string]()
	for _, file := range files {
		if file == "" {
			continue
		}
		path, err := filepath.Abs(file)
		if err != nil {
			_ = w.Close()
			return nil, fmt.Errorf("resolving path %s: %w", file, err)
		}
		watcher.files.Add(path)
		watcher.states[path] = statFile(path)

		dir := filepath.Dir(path)
		if dirs.Contains(dir) {
			continue
		}
		dirs.Add(dir)
		if err := w.Add(dir); err != nil {
			_ = w.Close()
			return nil, fmt.Errorf("watching directory %s: %w", dir, err)
		}
	}

	return watcher, nil
}

// Run calls reload whenever watched files changed, until the context is
// cancelled or the watcher fails. Reload errors are logged and watching
// continues. Files written by reload itself do not trigger another reload.
func (w *Watcher) Run(ctx context.Context, reload ReloadFunc) error {
	defer func() { _ = w.w.Close() }()

	timer := time.NewTimer(w.delay)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()

		case ev, ok := <-w.w.Events:
			if !ok {
				return nil
			}
			path, ok := w.relevant(ev)
			if !ok || !w.changed(path) {
				continue
			}
			w.logger.Debug("Watched file changed",
				log.String("file", ev.Name),
				log.String("op", ev.Op.String()))
			timer.Reset(w.delay)

		case err, ok := <-w.w.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watching files: %w", err)

		case <-timer.C:
			if err := reload(ctx); err != nil {
				w.logger.Error("Reloading failed", log.Err(err))
			}
			w.snapshot()
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) (string, bool) {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
		return "", false
	}
	path, err := filepath.Abs(ev.Name)
	if err != nil {
		return "", false
	}
	return path, w.files.Contains(path)
}

// changed returns whether the file differs from its state after the last
// reload.
func (w *Watcher) changed(path string) bool {
	return statFile(path) != w.states[path]
}

func (w *Watcher) snapshot() {
	for path := range w.states {
		w.states[path] = statFile(path)
	}
}
