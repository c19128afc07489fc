// Package presence tracks which identities currently hold a live connection
// in this process. It is deliberately not persistent: after a restart every
// user appears offline until they rejoin, and presence is best effort.
package presence

import (
	"sync"

	"courier/server/internal/event"
)

// Handle is a live connection the registry can route events to. Each handle
// carries a unique id so a stale disconnect cannot evict a newer connection
// for the same identity.
type Handle interface {
	// ID returns the handle's unique connection id.
	ID() string
	// Send queues an event for delivery. It must not block; a full or dead
	// connection drops the event.
	Send(ev event.Event)
}

// Registry maps identity to its single live handle. Last join wins; the
// minimal model does not support multi-device sessions.
type Registry struct {
	mu      sync.RWMutex
	handles map[string]Handle
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{handles: make(map[string]Handle)}
}

// Join registers handle for identity, superseding any prior connection.
// The superseded handle is returned so the transport can close it; the
// registry simply stops routing to it.
func (r *Registry) Join(identity string, h Handle) (superseded Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	superseded = r.handles[identity]
	r.handles[identity] = h
	return superseded
}

// Leave removes the mapping for identity only if the registered handle is
// the one leaving. A mismatch means a newer connection already took over and
// the stale disconnect is ignored.
func (r *Registry) Leave(identity, handleID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.handles[identity]
	if !ok || h.ID() != handleID {
		return false
	}
	delete(r.handles, identity)
	return true
}

// Lookup returns the live handle for identity, if any.
func (r *Registry) Lookup(identity string) (Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.handles[identity]
	return h, ok
}

// Online reports whether identity has a live connection.
func (r *Registry) Online(identity string) bool {
	_, ok := r.Lookup(identity)
	return ok
}

// Broadcast sends ev to every live connection whose identity passes the
// predicate. A nil predicate matches everyone.
func (r *Registry) Broadcast(predicate func(identity string) bool, ev event.Event) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for identity, h := range r.handles {
		if predicate == nil || predicate(identity) {
			h.Send(ev)
		}
	}
}

// Snapshot returns the identities currently online.
func (r *Registry) Snapshot() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.handles))
	for identity := range r.handles {
		out = append(out, identity)
	}
	return out
}

// Count returns the number of live connections.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handles)
}
