package kvstore

import (
	"context"
	"sync"
)

// Metrics tracks store usage statistics
type Metrics struct {
	Hits   int64
	Misses int64
	Writes int64
}

// MemoryStore keeps values in process memory. It is the default backend for
// local development and the store used throughout the tests.
type MemoryStore struct {
	mu          sync.RWMutex
	values      map[string][]byte
	metrics     Metrics
	unavailable bool
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		values: make(map[string][]byte),
	}
}

// Get returns a copy of the stored value
func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.unavailable {
		return nil, ErrUnavailable
	}

	v, ok := m.values[key]
	if !ok {
		m.metrics.Misses++
		return nil, ErrKeyNotFound
	}

	m.metrics.Hits++
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

// Set stores a copy of value
func (m *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.unavailable {
		return ErrUnavailable
	}

	v := make([]byte, len(value))
	copy(v, value)
	m.values[key] = v
	m.metrics.Writes++
	return nil
}

// Remove deletes key; removing an absent key is not an error
func (m *MemoryStore) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.unavailable {
		return ErrUnavailable
	}

	delete(m.values, key)
	return nil
}

// SetUnavailable makes every subsequent call fail with ErrUnavailable until reset.
func (m *MemoryStore) SetUnavailable(unavailable bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unavailable = unavailable
}

// Metrics returns a copy of the current metrics
func (m *MemoryStore) Metrics() Metrics {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.metrics
}
