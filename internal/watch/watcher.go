// Package watch reports changes to the catalog documents in the data
// directory, so a running browser can pick up edits made by another
// dangerclose process.
package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"dangerclose/internal/logging"
)

// Change is one settled change to a watched file.
type Change struct {
	Path string
	Kind string // create, modify, delete, rename
}

// Stats tracks watcher activity.
type Stats struct {
	FilesCreated  int
	FilesModified int
	FilesDeleted  int
	Delivered     int
	Errors        int
	LastEventTime time.Time
	LastEventPath string
	LastEventType string
}

// Watcher watches a directory for changes to a fixed set of file names and
// delivers them, debounced, on Changes().
type Watcher struct {
	mu          sync.RWMutex
	watcher     *fsnotify.Watcher
	dir         string
	names       map[string]bool
	pending     map[string]pendingChange
	debounceDur time.Duration
	changes     chan Change
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool
	started     bool

	stats Stats
}

type pendingChange struct {
	kind string
	at   time.Time
}

// New creates a watcher over dir for the given base file names.
func New(dir string, debounce time.Duration, names ...string) (*Watcher, error) {
	if len(names) == 0 {
		return nil, errors.New("watch: no file names given")
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}

	w := &Watcher{
		watcher:     fw,
		dir:         dir,
		names:       make(map[string]bool, len(names)),
		pending:     make(map[string]pendingChange),
		debounceDur: debounce,
		changes:     make(chan Change, 16),
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}
	for _, n := range names {
		w.names[filepath.Base(n)] = true
	}
	return w, nil
}

// Changes delivers settled changes. It is closed when the watcher stops.
func (w *Watcher) Changes() <-chan Change {
	return w.changes
}

// Start begins watching. It is non-blocking; the event loop runs until ctx
// is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return nil
	}
	w.started = true
	w.running = true
	w.mu.Unlock()

	if err := os.MkdirAll(w.dir, 0755); err != nil {
		logging.Get(logging.CategoryWatch).Warn("failed to create data dir %s: %v (continuing anyway)", w.dir, err)
	}

	if err := w.watcher.Add(w.dir); err != nil {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		close(w.doneCh)
		close(w.changes)
		return err
	}
	logging.Watch("watching directory: %s", w.dir)

	go w.run(ctx)
	return nil
}

// Stop stops the event loop and waits for it to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.started {
		// Never started: end Changes() and make a later Start a no-op.
		w.started = true
		w.mu.Unlock()
		close(w.doneCh)
		close(w.changes)
		w.watcher.Close()
		return
	}
	wasRunning := w.running
	w.running = false
	w.mu.Unlock()

	if wasRunning {
		select {
		case <-w.stopCh:
		default:
			close(w.stopCh)
		}
	}
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		logging.WatchError("error closing watcher: %v", err)
	}
	logging.Watch("stopped")
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.changes)
	defer close(w.doneCh)

	tick := w.debounceDur / 5
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	debounceTicker := time.NewTicker(tick)
	defer debounceTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.WatchDebug("context cancelled")
			w.markStopped()
			return

		case <-w.stopCh:
			logging.WatchDebug("stop signal received")
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				w.markStopped()
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				w.markStopped()
				return
			}
			logging.WatchError("watcher error: %v", err)
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()

		case <-debounceTicker.C:
			if !w.flush(ctx) {
				w.markStopped()
				return
			}
		}
	}
}

func (w *Watcher) markStopped() {
	w.mu.Lock()
	w.running = false
	w.mu.Unlock()
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !w.names[filepath.Base(event.Name)] {
		return
	}

	var kind string
	switch {
	case event.Op&fsnotify.Create != 0:
		kind = "create"
	case event.Op&fsnotify.Write != 0:
		kind = "modify"
	case event.Op&fsnotify.Remove != 0:
		kind = "delete"
	case event.Op&fsnotify.Rename != 0:
		kind = "rename"
	default:
		return
	}

	logging.WatchDebug("%s event for %s", kind, event.Name)

	w.mu.Lock()
	defer w.mu.Unlock()

	w.stats.LastEventTime = time.Now()
	w.stats.LastEventPath = event.Name
	w.stats.LastEventType = kind
	switch kind {
	case "create":
		w.stats.FilesCreated++
	case "modify":
		w.stats.FilesModified++
	case "delete", "rename":
		w.stats.FilesDeleted++
	}

	w.pending[event.Name] = pendingChange{kind: kind, at: time.Now()}
}

// flush delivers changes that have settled past the debounce window.
// Returns false when the watcher is shutting down.
func (w *Watcher) flush(ctx context.Context) bool {
	w.mu.Lock()
	now := time.Now()
	var ready []Change
	for path, p := range w.pending {
		if now.Sub(p.at) >= w.debounceDur {
			ready = append(ready, Change{Path: path, Kind: p.kind})
			delete(w.pending, path)
		}
	}
	w.mu.Unlock()

	for _, c := range ready {
		select {
		case w.changes <- c:
			w.mu.Lock()
			w.stats.Delivered++
			w.mu.Unlock()
			logging.Watch("%s settled (%s)", filepath.Base(c.Path), c.Kind)
		case <-ctx.Done():
			return false
		case <-w.stopCh:
			return false
		}
	}
	return true
}

// GetStats returns the current watcher statistics.
func (w *Watcher) GetStats() Stats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stats
}

// IsWatching reports whether the event loop is running.
func (w *Watcher) IsWatching() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}
