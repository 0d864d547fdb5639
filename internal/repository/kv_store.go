package repository

import (
	"context"
	"sync"
)

// KVStore is a durable key-value store holding JSON documents.
type KVStore interface {
	// Load returns the value stored under key, or nil when the key is absent.
	Load(ctx context.Context, key string) ([]byte, error)

	// Save stores value under key, replacing any previous value.
	Save(ctx context.Context, key string, value []byte) error

	// Ping reports whether the store is reachable.
	Ping(ctx context.Context) error
}

// MemoryKVStore keeps values in process memory. State is lost on restart.
type MemoryKVStore struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewMemoryKVStore creates an empty MemoryKVStore.
func NewMemoryKVStore() *MemoryKVStore {
	return &MemoryKVStore{values: make(map[string][]byte)}
}

// Load implements KVStore.
func (s *MemoryKVStore) Load(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), v...), nil
}

// Save implements KVStore.
func (s *MemoryKVStore) Save(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = append([]byte(nil), value...)
	return nil
}

// Ping implements KVStore.
func (s *MemoryKVStore) Ping(context.Context) error { return nil }
