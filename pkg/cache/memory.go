package cache

import (
	"context"
	"sync"
)

// MemoryStore implements Store in process memory. Entries live as long as
// the store; there is no eviction.
type MemoryStore struct {
	data  map[string][]byte
	mutex sync.RWMutex
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	b, ok := m.data[key]
	if !ok || !usable(b) {
		return nil, false
	}
	return append([]byte(nil), b...), true
}

func (m *MemoryStore) Put(_ context.Context, key string, value []byte) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.data[key] = append([]byte(nil), value...)
	return nil
}

// Len returns the number of stored entries.
func (m *MemoryStore) Len() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.data)
}

func (m *MemoryStore) Close() error { return nil }
