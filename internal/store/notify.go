package store

import (
	"sync"

	"github.com/google/uuid"
)

// tableWatcher is a single registration: the tables it cares about and
// a coalescing signal channel (buffer 1, non-blocking sends).
type tableWatcher struct {
	tables map[string]struct{}
	signal chan struct{}
}

func (w *tableWatcher) wants(tables []string) bool {
	for _, t := range tables {
		if _, ok := w.tables[t]; ok {
			return true
		}
	}
	return false
}

// notifier fans table-change signals out to registered watchers.
// Write methods call broadcast after their statement (or transaction)
// has committed, so a signal never exposes an intermediate state.
type notifier struct {
	mu       sync.Mutex
	watchers map[string]*tableWatcher
}

func newNotifier() *notifier {
	return &notifier{
		watchers: make(map[string]*tableWatcher),
	}
}

// Subscribe registers interest in the named tables. It returns the
// signal channel and a release func; releasing twice is harmless.
func (n *notifier) Subscribe(tables ...string) (<-chan struct{}, func()) {
	w := &tableWatcher{
		tables: make(map[string]struct{}, len(tables)),
		signal: make(chan struct{}, 1),
	}
	for _, t := range tables {
		w.tables[t] = struct{}{}
	}

	id := uuid.New().String()

	n.mu.Lock()
	n.watchers[id] = w
	n.mu.Unlock()

	release := func() {
		n.mu.Lock()
		delete(n.watchers, id)
		n.mu.Unlock()
	}
	return w.signal, release
}

// broadcast signals every watcher interested in any of the given tables.
// Sends are non-blocking: a watcher that already has a pending signal
// coalesces with it.
func (n *notifier) broadcast(tables ...string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for _, w := range n.watchers {
		if !w.wants(tables) {
			continue
		}
		select {
		case w.signal <- struct{}{}:
		default:
		}
	}
}
