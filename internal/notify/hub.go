// Package notify fans out cache change events to subscribed views.
package notify

import (
	"sync"
)

// Event describes a change of one cache entry.
type Event struct {
	Topic  string
	Reason string
}

type Subscriber struct {
	Msg chan Event
	// Empty topic receives every event.
	Topic string
}

type Hub struct {
	subscribers map[*Subscriber]bool
	mu          sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[*Subscriber]bool),
	}
}

// Subscribe registers a subscriber with a buffered channel. Slow subscribers miss events
// rather than block the publisher.
func (h *Hub) Subscribe(topic string, buffer int) *Subscriber {
	s := &Subscriber{
		Msg:   make(chan Event, buffer),
		Topic: topic,
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subscribers[s] = true
	return s
}

func (h *Hub) Unsubscribe(s *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subscribers[s]; !ok {
		return
	}
	delete(h.subscribers, s)
	close(s.Msg)
}

func (h *Hub) Broadcast(topic, reason string) {
	if h == nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.subscribers {
		if s.Topic == "" || s.Topic == topic {
			select {
			case s.Msg <- Event{Topic: topic, Reason: reason}:
			default:
			}
		}
	}
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}
