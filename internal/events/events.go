// Package events fans out data change notifications to in-process listeners
// such as the refresh worker and the SSE stream.
package events

import (
	"sync"
	"time"
)

// Tables that publish changes.
const (
	TableResponses  = "survey_responses"
	TableVisibility = "field_visibility"
)

// subscriberBuffer is the number of changes a slow listener may lag behind
// before further changes are dropped for it.
const subscriberBuffer = 16

// Change describes a committed write.
type Change struct {
	Table string    `json:"table"`
	Year  int       `json:"year"`
	At    time.Time `json:"at"`
}

// Notifier broadcasts changes to all subscribed listeners.
type Notifier struct {
	mu        sync.RWMutex
	listeners map[chan Change]struct{}
	closed    bool
}

// New creates a new Notifier instance.
func New() *Notifier {
	return &Notifier{
		listeners: make(map[chan Change]struct{}),
	}
}

// Subscribe returns a channel of changes and a function that removes the
// listener and closes the channel. The cancel function is safe to call more
// than once.
func (n *Notifier) Subscribe() (<-chan Change, func()) {
	ch := make(chan Change, subscriberBuffer)

	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	n.listeners[ch] = struct{}{}
	n.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() { n.remove(ch) })
	}
}

func (n *Notifier) remove(ch chan Change) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.listeners[ch]; ok {
		delete(n.listeners, ch)
		close(ch)
	}
}

// Publish sends c to every listener without blocking. A listener whose
// buffer is full misses the change.
func (n *Notifier) Publish(c Change) {
	if c.At.IsZero() {
		c.At = time.Now().UTC()
	}

	n.mu.RLock()
	defer n.mu.RUnlock()

	for ch := range n.listeners {
		select {
		case ch <- c:
		default:
		}
	}
}

// Len returns the number of active listeners.
func (n *Notifier) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.listeners)
}

// Close closes every listener channel. Later subscriptions receive a closed
// channel and later publishes are dropped.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	n.closed = true
	for ch := range n.listeners {
		delete(n.listeners, ch)
		close(ch)
	}
}
