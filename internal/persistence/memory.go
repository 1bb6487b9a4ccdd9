package persistence

import (
	"context"
	"sync"
)

// MemoryBackend implements Backend with in-memory storage, for tests and
// single-process deployments.
type MemoryBackend struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		values: make(map[string]string),
	}
}

func (b *MemoryBackend) Read(_ context.Context, key string) (string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	value, exists := b.values[key]
	if !exists {
		return "", ErrNotFound
	}
	return value, nil
}

func (b *MemoryBackend) Write(_ context.Context, key, value string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.values[key] = value
	return nil
}

func (b *MemoryBackend) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.values, key)
	return nil
}
