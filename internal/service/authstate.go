package service

import (
	"sync"

	"github.com/msomdec/squadhub/internal/domain"
)

// AuthStateFunc receives the current identity, or nil once signed out.
type AuthStateFunc func(*domain.Identity)

// authHub fans auth-state changes out to the listeners of each session.
type authHub struct {
	mu        sync.Mutex
	next      int
	listeners map[string]map[int]AuthStateFunc
}

func newAuthHub() *authHub {
	return &authHub{listeners: make(map[string]map[int]AuthStateFunc)}
}

// subscribe registers fn for sessionID. The returned func is idempotent.
func (h *authHub) subscribe(sessionID string, fn AuthStateFunc) func() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.next++
	id := h.next
	if h.listeners[sessionID] == nil {
		h.listeners[sessionID] = make(map[int]AuthStateFunc)
	}
	h.listeners[sessionID][id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.listeners[sessionID], id)
			if len(h.listeners[sessionID]) == 0 {
				delete(h.listeners, sessionID)
			}
		})
	}
}

// publish delivers identity to every listener of sessionID. Listeners run
// outside the lock so they may unsubscribe from inside the callback.
func (h *authHub) publish(sessionID string, identity *domain.Identity) {
	h.mu.Lock()
	fns := make([]AuthStateFunc, 0, len(h.listeners[sessionID]))
	for _, fn := range h.listeners[sessionID] {
		fns = append(fns, fn)
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn(identity)
	}
}

func (h *authHub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, l := range h.listeners {
		n += len(l)
	}
	return n
}
