package sse

import (
	"sync"

	"github.com/gin-contrib/sse"
)

// clientBuffer bounds how many undelivered events a connection may hold
// before it is treated as dead.
const clientBuffer = 16

// Hub maps a user id to at most one live push channel. It is an injected,
// explicitly-owned object so tests can run isolated instances.
type Hub struct {
	mu      sync.Mutex
	clients map[uint64]chan sse.Event
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[uint64]chan sse.Event)}
}

// Register opens a push channel for the user. A reconnect replaces the
// previous registration and closes the superseded channel so its stream
// handler terminates instead of leaking.
func (h *Hub) Register(userID uint64) <-chan sse.Event {
	ch := make(chan sse.Event, clientBuffer)

	h.mu.Lock()
	if old, ok := h.clients[userID]; ok {
		close(old)
	}
	h.clients[userID] = ch
	h.mu.Unlock()

	return ch
}

// Unregister removes the user's registration, but only if it still refers to
// the given channel. A stream handler torn down after being replaced must
// not remove its successor.
func (h *Hub) Unregister(userID uint64, ch <-chan sse.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	current, ok := h.clients[userID]
	if !ok || current != ch {
		return
	}
	delete(h.clients, userID)
	close(current)
}

// Push delivers one event to the user's live channel, if any. A channel that
// cannot accept the event is treated as disconnected and dropped.
func (h *Hub) Push(userID uint64, event sse.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch, ok := h.clients[userID]
	if !ok {
		return
	}

	select {
	case ch <- event:
	default:
		delete(h.clients, userID)
		close(ch)
	}
}

// Connected reports whether the user currently has a live channel.
func (h *Hub) Connected(userID uint64) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.clients[userID]
	return ok
}
