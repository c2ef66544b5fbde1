// ABOUTME: Storage interface for scoped state partitions plus the in-memory implementation
// ABOUTME: Each key maps to a field-name to raw JSON value mapping

package state

import (
	"context"
	"encoding/json"
	"sync"
)

// Storage is the key-scoped persistence boundary. Read returns an empty
// mapping for keys that have never been written (first turn of a
// conversation), never an error for absence.
type Storage interface {
	Read(ctx context.Context, key string) (map[string]json.RawMessage, error)
	Write(ctx context.Context, key string, fields map[string]json.RawMessage) error
	Delete(ctx context.Context, key string) error
}

// MemoryStorage is a Storage backed by a process-local map. Suitable for
// tests and single-instance deployments; state does not survive restarts.
type MemoryStorage struct {
	mu   sync.RWMutex
	data map[string]map[string]json.RawMessage
}

// NewMemoryStorage creates an empty in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{data: make(map[string]map[string]json.RawMessage)}
}

// Read returns a copy of the stored fields for key, or an empty map.
func (m *MemoryStorage) Read(_ context.Context, key string) (map[string]json.RawMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	fields := make(map[string]json.RawMessage, len(m.data[key]))
	for name, value := range m.data[key] {
		fields[name] = value
	}
	return fields, nil
}

// Write replaces the stored fields for key.
func (m *MemoryStorage) Write(_ context.Context, key string, fields map[string]json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := make(map[string]json.RawMessage, len(fields))
	for name, value := range fields {
		stored[name] = value
	}
	m.data[key] = stored
	return nil
}

// Delete removes the stored fields for key. Deleting an absent key is a no-op.
func (m *MemoryStorage) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)
	return nil
}
