package watcher

import (
	"context"
	"time"
)

// Operation is the kind of change observed.
type Operation int

const (
	// OpModify means the file's content may have changed.
	OpModify Operation = iota
	// OpCreate means the file appeared.
	OpCreate
	// OpDelete means the file is gone.
	OpDelete
)

// String returns a human-readable representation of the operation.
func (op Operation) String() string {
	switch op {
	case OpModify:
		return "MODIFY"
	case OpCreate:
		return "CREATE"
	case OpDelete:
		return "DELETE"
	default:
		return "UNKNOWN"
	}
}

// Change is one debounced change to the watched file.
type Change struct {
	Path      string
	Operation Operation
	Timestamp time.Time
}

// Watcher watches one file.
type Watcher interface {
	// Start blocks, emitting changes until Stop is called or ctx is done.
	Start(ctx context.Context) error

	// Stop releases resources. Safe to call multiple times.
	Stop() error

	// Changes delivers debounced changes. Closed when the watcher stops.
	Changes() <-chan Change

	// Errors delivers non-fatal errors. Closed when the watcher stops.
	Errors() <-chan error
}

// Options configures the watcher behavior.
type Options struct {
	// DebounceWindow is the quiet time before a change is emitted.
	// Default: 300ms
	DebounceWindow time.Duration

	// PollInterval is the interval for polling mode.
	// Default: 1s
	PollInterval time.Duration

	// ForcePolling skips fsnotify.
	ForcePolling bool
}

// DefaultOptions returns the default watcher options.
func DefaultOptions() Options {
	return Options{
		DebounceWindow: 300 * time.Millisecond,
		PollInterval:   time.Second,
	}
}

// WithDefaults returns options with defaults applied for zero values.
func (o Options) WithDefaults() Options {
	defaults := DefaultOptions()
	if o.DebounceWindow <= 0 {
		o.DebounceWindow = defaults.DebounceWindow
	}
	if o.PollInterval <= 0 {
		o.PollInterval = defaults.PollInterval
	}
	return o
}
