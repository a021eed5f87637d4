// Package broadcast fans events out to subscriber channels without blocking
// the publisher.
package broadcast

import (
	"sync"

	"github.com/jdziat/sync-schedules/pkg/core"
)

// DefaultBuffer is the channel capacity handed to each subscriber.
const DefaultBuffer = 100

// Hub holds the subscribers of one event source. The zero value is ready to
// use.
type Hub struct {
	mu   sync.RWMutex
	subs []chan core.Event
}

// Subscribe returns a new buffered subscriber channel.
// The caller must call Unsubscribe when done to prevent resource leaks.
func (h *Hub) Subscribe() <-chan core.Event {
	ch := make(chan core.Event, DefaultBuffer)
	h.mu.Lock()
	h.subs = append(h.subs, ch)
	h.mu.Unlock()
	return ch
}

// Unsubscribe removes a channel created by Subscribe.
// The channel is not closed; callers must stop reading before calling
// Unsubscribe. After Unsubscribe returns, no further events are sent to it.
func (h *Hub) Unsubscribe(ch <-chan core.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, sub := range h.subs {
		if sub == ch {
			h.subs = append(h.subs[:i], h.subs[i+1:]...)
			return
		}
	}
}

// Emit sends e to every subscriber. Events for a full channel are dropped.
func (h *Hub) Emit(e core.Event) {
	h.mu.RLock()
	subs := make([]chan core.Event, len(h.subs))
	copy(subs, h.subs)
	h.mu.RUnlock()

	for _, ch := range subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// Len returns the number of subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
