package watcher

import (
	"context"
	"crypto/sha256"
	"os"
	"sync"
	"time"
)

// PollingWatcher detects changes to one file by periodic stat and hash.
type PollingWatcher struct {
	path     string
	interval time.Duration
	changes  chan Change

	mu      sync.Mutex
	last    snapshot
	stopCh  chan struct{}
	stopped bool
}

type snapshot struct {
	exists  bool
	modTime time.Time
	size    int64
	sum     [sha256.Size]byte
}

// NewPollingWatcher creates a poller for path.
func NewPollingWatcher(path string, interval time.Duration) *PollingWatcher {
	return &PollingWatcher{
		path:     path,
		interval: interval,
		changes:  make(chan Change, 16),
		stopCh:   make(chan struct{}),
	}
}

// Start polls until Stop is called or ctx is done.
func (p *PollingWatcher) Start(ctx context.Context) error {
	p.mu.Lock()
	p.last = take(p.path, snapshot{})
	p.mu.Unlock()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = p.Stop()
			return ctx.Err()
		case <-p.stopCh:
			return nil
		case <-ticker.C:
			p.poll()
		}
	}
}

func (p *PollingWatcher) poll() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return
	}

	prev := p.last
	cur := take(p.path, prev)
	p.last = cur

	var op Operation
	switch {
	case !prev.exists && cur.exists:
		op = OpCreate
	case prev.exists && !cur.exists:
		op = OpDelete
	case cur.exists && cur.sum != prev.sum:
		op = OpModify
	default:
		return
	}

	select {
	case p.changes <- Change{Path: p.path, Operation: op, Timestamp: time.Now()}:
	default:
	}
}

// take snapshots path. The file is only rehashed when size or mtime moved.
func take(path string, prev snapshot) snapshot {
	info, err := os.Stat(path)
	if err != nil {
		return snapshot{}
	}
	cur := snapshot{exists: true, modTime: info.ModTime(), size: info.Size()}
	if prev.exists && prev.modTime.Equal(cur.modTime) && prev.size == cur.size {
		cur.sum = prev.sum
		return cur
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return snapshot{}
	}
	cur.sum = sha256.Sum256(data)
	return cur
}

// Stop stops polling and closes the change channel.
func (p *PollingWatcher) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return nil
	}
	p.stopped = true
	close(p.stopCh)
	close(p.changes)
	return nil
}

// Changes returns raw, undebounced changes.
func (p *PollingWatcher) Changes() <-chan Change {
	return p.changes
}
