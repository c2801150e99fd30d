package session

import "sync"

// eventChannelBuffer is the per-listener buffer; slow listeners drop
// events rather than stalling the run.
const eventChannelBuffer = 100

// Event is a push notification about a run. The core itself is pull-based
// (poll Progress/Status); events exist so a transport adapter like SSE can
// bridge to push-style delivery.
type Event struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// broadcaster provides listener management and event fan-out for a run.
type broadcaster struct {
	mu        sync.RWMutex
	listeners []chan Event
}

// AddListener registers an event listener.
func (b *broadcaster) AddListener() chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan Event, eventChannelBuffer)
	b.listeners = append(b.listeners, ch)
	return ch
}

// RemoveListener removes an event listener and closes its channel.
func (b *broadcaster) RemoveListener(ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, listener := range b.listeners {
		if listener == ch {
			b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
			close(ch)
			return
		}
	}
}

// sendEvent delivers an event to all listeners.
func (b *broadcaster) sendEvent(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, listener := range b.listeners {
		select {
		case listener <- event:
		default:
			// Listener buffer full, skip.
		}
	}
}
