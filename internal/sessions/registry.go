// Package sessions keeps the live cart session of every active device.
package sessions

import (
	"log/slog"
	"sync"
	"time"

	"github.com/fjod/go_shop/internal/cart"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Registry maps device ids to cart sessions. Idle sessions expire after the
// configured TTL and the least recently used are evicted at capacity; an
// evicted device starts again from its stored snapshot.
type Registry struct {
	mu       sync.Mutex
	sessions *expirable.LRU[string, *cart.Session]
	store    cart.Store
	log      *slog.Logger
}

func NewRegistry(store cart.Store, capacity int, ttl time.Duration, log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	onEvict := func(deviceID string, _ *cart.Session) {
		log.Debug("cart session evicted", "device_id", deviceID)
	}
	return &Registry{
		sessions: expirable.NewLRU[string, *cart.Session](capacity, onEvict, ttl),
		store:    store,
		log:      log,
	}
}

// Get returns the session of deviceID, creating an unbound one if needed.
func (r *Registry) Get(deviceID string) *cart.Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions.Get(deviceID); ok {
		return s
	}
	s := cart.NewSession(cart.ForDevice(r.store, deviceID), r.log.With("device_id", deviceID), cart.ResumeGuest())
	r.sessions.Add(deviceID, s)
	return s
}

// Forget drops the live session of deviceID. Stored snapshots are kept.
func (r *Registry) Forget(deviceID string) {
	r.sessions.Remove(deviceID)
}

func (r *Registry) Len() int {
	return r.sessions.Len()
}
