package agent

import (
	"sync"
	"time"
)

// Registry tracks foreground clients by heartbeat. A client counts as
// active until its last heartbeat is older than the TTL; the reminder
// check requires at least one active client before notifying.
type Registry struct {
	mu   sync.Mutex
	ttl  time.Duration
	seen map[string]time.Time
}

func NewRegistry(ttl time.Duration) *Registry {
	return &Registry{
		ttl:  ttl,
		seen: make(map[string]time.Time),
	}
}

// Heartbeat records that a client was alive at the given instant.
func (r *Registry) Heartbeat(clientID string, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen[clientID] = now
}

// ActiveCount prunes expired clients and returns the number still active.
func (r *Registry) ActiveCount(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, last := range r.seen {
		if now.Sub(last) > r.ttl {
			delete(r.seen, id)
		}
	}
	return len(r.seen)
}
