// Package storage provides key/value persistence over a primary and a fallback backend.
package storage

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrNotFound is returned by a backend when a key is absent.
	ErrNotFound = errors.New("storage: key not found")
	// ErrUnavailable is returned when no backend accepted a write.
	ErrUnavailable = errors.New("storage: no backend available")
)

// RawEntry is a persisted key with its undecoded payload.
type RawEntry struct {
	Key   string
	Value []byte
}

// Backend is a raw byte key/value store.
type Backend interface {
	Name() string
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) (bool, error)
	Entries(ctx context.Context) ([]RawEntry, error)
	Close() error
}

// MemoryBackend keeps entries in process memory, in insertion order.
type MemoryBackend struct {
	mu     sync.Mutex
	keys   []string
	values map[string][]byte
}

// NewMemoryBackend returns an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{values: map[string][]byte{}}
}

// Name implements Backend.
func (m *MemoryBackend) Name() string { return "memory" }

// Get implements Backend.
func (m *MemoryBackend) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

// Set implements Backend.
func (m *MemoryBackend) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = append([]byte(nil), value...)
	return nil
}

// Delete implements Backend.
func (m *MemoryBackend) Delete(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.values[key]; !ok {
		return false, nil
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
	return true, nil
}

// Entries implements Backend.
func (m *MemoryBackend) Entries(_ context.Context) ([]RawEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]RawEntry, 0, len(m.keys))
	for _, k := range m.keys {
		out = append(out, RawEntry{Key: k, Value: append([]byte(nil), m.values[k]...)})
	}
	return out, nil
}

// Close implements Backend.
func (m *MemoryBackend) Close() error { return nil }
