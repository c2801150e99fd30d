package cache

import (
	"context"
	"sync"
)

// Memory is an in-process Cache, used when no database is configured in
// tests and for single-session reuse.
type Memory struct {
	mu      sync.RWMutex
	entries map[string][]float32
}

// NewMemory creates an empty in-memory cache.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string][]float32)}
}

func (m *Memory) Get(ctx context.Context, model, key string) ([]float32, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.entries[model+"\x00"+key], nil
}

func (m *Memory) Put(ctx context.Context, model, key string, vec []float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := model + "\x00" + key
	if _, ok := m.entries[k]; !ok {
		m.entries[k] = vec
	}
	return nil
}

func (m *Memory) Close() error {
	return nil
}

// Len returns the number of cached entries.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
