package server

import (
	"fmt"
	"log"
	"sync"
)

const defaultHistorySize = 100

// listenerBuffer is how many events a stream listener may fall behind
// before events are dropped for it.
const listenerBuffer = 16

type transmitListener struct {
	subscriber string
	events     chan transmission
}

// transmitHistory keeps the most recent transmissions and fans new ones out
// to stream listeners.
type transmitHistory struct {
	mu        sync.Mutex
	limit     int
	entries   []transmission
	listeners []transmitListener
}

type transmitNotifier interface {
	notify(subscriber string) (<-chan transmission, error)
	unNotify(subscriber string) error
}

func newHistory(limit int) *transmitHistory {
	if limit <= 0 {
		limit = defaultHistorySize
	}
	return &transmitHistory{limit: limit}
}

func (h *transmitHistory) insert(t transmission) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, t)
	if over := len(h.entries) - h.limit; over > 0 {
		h.entries = append(h.entries[:0:0], h.entries[over:]...)
	}
	if debugMode {
		log.Printf("Recorded transmission %s, history now has %d items", t.ID, len(h.entries))
	}
	for _, l := range h.listeners {
		select {
		case l.events <- t:
		default:
			log.Printf("Listener %s is not keeping up, dropped transmission %s", l.subscriber, t.ID)
		}
	}
}

// list returns the history, oldest first.
func (h *transmitHistory) list() []transmission {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]transmission, len(h.entries))
	copy(out, h.entries)
	return out
}

func (h *transmitHistory) notify(subscriber string) (<-chan transmission, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, l := range h.listeners {
		if l.subscriber == subscriber {
			return nil, fmt.Errorf("Subscriber '%s' already registered", subscriber)
		}
	}
	l := transmitListener{subscriber, make(chan transmission, listenerBuffer)}
	h.listeners = append(h.listeners, l)
	return l.events, nil
}

func (h *transmitHistory) unNotify(subscriber string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, l := range h.listeners {
		if l.subscriber == subscriber {
			h.listeners = append(h.listeners[:i], h.listeners[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("Subscriber '%s' cannot be found", subscriber)
}
