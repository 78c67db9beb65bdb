package cart

import (
	"context"
	"sync"

	"github.com/fjod/go_shop/internal/domain"
)

// Store persists one cart snapshot per scope key.
type Store interface {
	// Load returns the snapshot for key; found is false when none exists.
	Load(ctx context.Context, key string) (state domain.CartState, found bool, err error)
	Save(ctx context.Context, key string, state domain.CartState) error
	// Delete removes the snapshot for key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// MemoryStore keeps snapshots in process memory.
type MemoryStore struct {
	mu        sync.RWMutex
	snapshots map[string]domain.CartState
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snapshots: make(map[string]domain.CartState)}
}

func (m *MemoryStore) Load(_ context.Context, key string) (domain.CartState, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	state, ok := m.snapshots[key]
	if !ok {
		return domain.CartState{}, false, nil
	}
	return cloneState(state), true, nil
}

func (m *MemoryStore) Save(_ context.Context, key string, state domain.CartState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[key] = cloneState(state)
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.snapshots, key)
	return nil
}

// Keys returns the stored keys, for tests and diagnostics.
func (m *MemoryStore) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.snapshots))
	for k := range m.snapshots {
		keys = append(keys, k)
	}
	return keys
}

// ForDevice scopes the guest snapshot of s to one device, so that many guests
// can share a store. User keys pass through unchanged.
func ForDevice(s Store, deviceID string) Store {
	return &deviceStore{inner: s, deviceID: deviceID}
}

// DeviceGuestKey is the key the guest snapshot of deviceID is stored under.
func DeviceGuestKey(deviceID string) string {
	return GuestKey + ":" + deviceID
}

type deviceStore struct {
	inner    Store
	deviceID string
}

func (d *deviceStore) key(k string) string {
	if k == GuestKey {
		return DeviceGuestKey(d.deviceID)
	}
	return k
}

func (d *deviceStore) Load(ctx context.Context, key string) (domain.CartState, bool, error) {
	return d.inner.Load(ctx, d.key(key))
}

func (d *deviceStore) Save(ctx context.Context, key string, state domain.CartState) error {
	return d.inner.Save(ctx, d.key(key), state)
}

func (d *deviceStore) Delete(ctx context.Context, key string) error {
	return d.inner.Delete(ctx, d.key(key))
}
