package watcher

import (
	"log/slog"
	"sync"
	"time"
)

// Debouncer coalesces a burst of changes into one, emitted once no change
// arrived for the window. Operations merge as follows:
//   - CREATE + MODIFY = CREATE
//   - CREATE + DELETE = nothing
//   - MODIFY + DELETE = DELETE
//   - DELETE + CREATE = MODIFY (the file was replaced)
type Debouncer struct {
	window time.Duration

	mu      sync.Mutex
	pending *Change
	first   Operation
	timer   *time.Timer
	output  chan Change
	stopped bool
}

// NewDebouncer creates a debouncer with the given quiet window.
func NewDebouncer(window time.Duration) *Debouncer {
	return &Debouncer{
		window: window,
		output: make(chan Change, 1),
	}
}

// Add records a change and restarts the window.
func (d *Debouncer) Add(c Change) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	if d.pending == nil {
		d.pending = &c
		d.first = c.Operation
	} else {
		d.pending = coalesce(d.first, c)
		if d.pending == nil {
			if d.timer != nil {
				d.timer.Stop()
			}
			return
		}
	}

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.flush)
}

func coalesce(first Operation, next Change) *Change {
	switch {
	case first == OpCreate && next.Operation == OpModify:
		next.Operation = OpCreate
	case first == OpCreate && next.Operation == OpDelete:
		return nil
	case first == OpDelete && next.Operation == OpCreate:
		next.Operation = OpModify
	}
	return &next
}

func (d *Debouncer) flush() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped || d.pending == nil {
		return
	}
	c := *d.pending
	d.pending = nil

	select {
	case d.output <- c:
	default:
		// The consumer has not taken the previous change yet; replace it.
		select {
		case <-d.output:
		default:
		}
		d.output <- c
		slog.Debug("watch_change_replaced", slog.String("path", c.Path))
	}
}

// Output returns the channel of debounced changes.
func (d *Debouncer) Output() <-chan Change {
	return d.output
}

// Stop stops the debouncer and closes the output channel.
// Safe to call multiple times.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
	close(d.output)
}
