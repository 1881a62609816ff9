package profiles

import (
	"context"
	"sync"
)

// MemoryStore keeps profiles in memory
type MemoryStore struct {
	mu      sync.RWMutex
	list    []Profile
	routing bool
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore(list ...Profile) *MemoryStore {
	return &MemoryStore{list: append([]Profile(nil), list...)}
}

func (m *MemoryStore) List(ctx context.Context) ([]Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Profile(nil), m.list...), nil
}

func (m *MemoryStore) Save(ctx context.Context, list []Profile) error {
	prepared, err := Prepare(list)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.list = prepared
	return nil
}

func (m *MemoryStore) Update(ctx context.Context, fn func([]Profile) ([]Profile, error)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	next, err := fn(append([]Profile(nil), m.list...))
	if err != nil {
		return err
	}
	prepared, err := Prepare(next)
	if err != nil {
		return err
	}
	m.list = prepared
	return nil
}

func (m *MemoryStore) FeatureFlag(ctx context.Context) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.routing, nil
}

func (m *MemoryStore) SetFeatureFlag(ctx context.Context, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routing = enabled
	return nil
}

func (m *MemoryStore) Close() error { return nil }
