package storage

import (
	"context"
	"sync"
)

// Backend is a flat key-value store holding raw table blobs.  Load
// reports a missing key with ok=false rather than an error.
type Backend interface {
	Load(ctx context.Context, key string) (data []byte, ok bool, err error)
	Store(ctx context.Context, key string, data []byte) error
	Remove(ctx context.Context, key string) error
	Close() error
}

// MemoryBackend keeps blobs in a map.  It is the default backend and
// gives every test an isolated store.
type MemoryBackend struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryBackend returns an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{data: make(map[string][]byte)}
}

func (m *MemoryBackend) Load(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (m *MemoryBackend) Store(_ context.Context, key string, data []byte) error {
	buf := make([]byte, len(data))
	copy(buf, data)
	m.mu.Lock()
	m.data[key] = buf
	m.mu.Unlock()
	return nil
}

func (m *MemoryBackend) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
	return nil
}

func (m *MemoryBackend) Close() error { return nil }
