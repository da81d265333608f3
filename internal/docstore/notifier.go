package docstore

import (
	"context"
	"sync"
)

// Notifier wakes subscriptions when a collection changes.
//
// Listen returns a channel with a buffer of one; bursts of notifications coalesce into a single wakeup.
type Notifier interface {
	Notify(ctx context.Context, collPath string) error
	Listen(collPath string) (<-chan struct{}, func())
}

// LocalNotifier fans notifications out to listeners in the same process.
type LocalNotifier struct {
	mu        sync.Mutex
	listeners map[string]map[chan struct{}]struct{}
}

func NewLocalNotifier() *LocalNotifier {
	return &LocalNotifier{listeners: make(map[string]map[chan struct{}]struct{})}
}

// Notify wakes every listener of collPath without blocking.
func (n *LocalNotifier) Notify(_ context.Context, collPath string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	for ch := range n.listeners[collPath] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	return nil
}

func (n *LocalNotifier) Listen(collPath string) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	n.mu.Lock()
	if n.listeners[collPath] == nil {
		n.listeners[collPath] = make(map[chan struct{}]struct{})
	}
	n.listeners[collPath][ch] = struct{}{}
	n.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			delete(n.listeners[collPath], ch)
			if len(n.listeners[collPath]) == 0 {
				delete(n.listeners, collPath)
			}
		})
	}
}

// Listeners returns the number of active listeners on collPath.
func (n *LocalNotifier) Listeners(collPath string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.listeners[collPath])
}
