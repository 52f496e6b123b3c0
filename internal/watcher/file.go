package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// FileWatcher watches one file with fsnotify, falling back to polling.
type FileWatcher struct {
	path string
	opts Options

	fsw       *fsnotify.Watcher
	poller    *PollingWatcher
	debouncer *Debouncer
	errors    chan error

	mu      sync.Mutex
	stopCh  chan struct{}
	stopped bool
}

var _ Watcher = (*FileWatcher)(nil)

// New creates a watcher for path. The file must exist.
func New(path string, opts Options) (*FileWatcher, error) {
	opts = opts.WithDefaults()

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve absolute path: %w", err)
	}
	if info, err := os.Stat(absPath); err != nil {
		return nil, fmt.Errorf("watch %s: %w", path, err)
	} else if info.IsDir() {
		return nil, fmt.Errorf("watch %s: is a directory", path)
	}

	w := &FileWatcher{
		path:      absPath,
		opts:      opts,
		debouncer: NewDebouncer(opts.DebounceWindow),
		errors:    make(chan error, 10),
		stopCh:    make(chan struct{}),
	}

	if !opts.ForcePolling {
		if fsw, err := fsnotify.NewWatcher(); err == nil {
			w.fsw = fsw
		} else {
			slog.Warn("fsnotify unavailable, polling instead", slog.String("error", err.Error()))
		}
	}
	if w.fsw == nil {
		w.poller = NewPollingWatcher(absPath, opts.PollInterval)
	}
	return w, nil
}

// Path returns the absolute path being watched.
func (w *FileWatcher) Path() string { return w.path }

// Mode returns "fsnotify" or "polling".
func (w *FileWatcher) Mode() string {
	if w.fsw != nil {
		return "fsnotify"
	}
	return "polling"
}

// Start implements Watcher.
func (w *FileWatcher) Start(ctx context.Context) error {
	if w.fsw == nil {
		return w.startPolling(ctx)
	}

	// Watch the directory: a rename-on-save replaces the file's inode.
	if err := w.fsw.Add(filepath.Dir(w.path)); err != nil {
		_ = w.Stop()
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}

	for {
		select {
		case <-ctx.Done():
			_ = w.Stop()
			return ctx.Err()
		case <-w.stopCh:
			return nil
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.emitError(err)
		}
	}
}

func (w *FileWatcher) startPolling(ctx context.Context) error {
	go func() {
		for c := range w.poller.Changes() {
			w.debouncer.Add(c)
		}
	}()

	err := w.poller.Start(ctx)
	_ = w.Stop()
	return err
}

// handle maps an fsnotify event on the watched file to a Change.
func (w *FileWatcher) handle(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}

	var op Operation
	switch {
	case event.Op&fsnotify.Create != 0:
		op = OpCreate
	case event.Op&fsnotify.Write != 0:
		op = OpModify
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		op = OpDelete
	default:
		// Chmod alone does not change content.
		return
	}

	w.debouncer.Add(Change{Path: w.path, Operation: op, Timestamp: time.Now()})
}

func (w *FileWatcher) emitError(err error) {
	select {
	case w.errors <- err:
	default:
		slog.Warn("watcher error dropped", slog.String("error", err.Error()))
	}
}

// Stop implements Watcher.
func (w *FileWatcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return nil
	}
	w.stopped = true
	close(w.stopCh)

	var err error
	if w.fsw != nil {
		err = w.fsw.Close()
	}
	if w.poller != nil {
		_ = w.poller.Stop()
	}
	w.debouncer.Stop()
	close(w.errors)
	return err
}

// Changes implements Watcher.
func (w *FileWatcher) Changes() <-chan Change {
	return w.debouncer.Output()
}

// Errors implements Watcher.
func (w *FileWatcher) Errors() <-chan error {
	return w.errors
}
