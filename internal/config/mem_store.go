package config

import (
	"encoding/json"
	"fmt"
	"sync"
)

// MemStore is an in-memory Store that never writes to disk. Values are kept
// JSON-encoded so Get never aliases what was passed to Set.
type MemStore struct {
	mu     sync.Mutex
	values map[string][]byte
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{values: make(map[string][]byte)}
}

func (m *MemStore) Get(key string, v any) error {
	m.mu.Lock()
	data, ok := m.values[key]
	m.mu.Unlock()
	if !ok {
		return ErrNotExist
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("config: decode %s: %w", key, err)
	}
	return nil
}

func (m *MemStore) Set(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("config: encode %s: %w", key, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = data
	return nil
}

// SetRaw stores undecoded bytes under key, for simulating corrupt records.
func (m *MemStore) SetRaw(key string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = append([]byte(nil), data...)
}

// Path returns ":memory:" to indicate this is an in-memory store.
func (m *MemStore) Path() string { return ":memory:" }

// Flush is a no-op for in-memory stores.
func (m *MemStore) Flush() error { return nil }

var _ Store = (*MemStore)(nil)
