package store

import (
	"context"
	"sync"

	"github.com/XavierBriggs/Iris/pkg/contracts"
)

// MemoryStore is an in-memory KVStore.
// It is thread-safe and suitable for tests and throwaway sessions.
type MemoryStore struct {
	data map[string][]byte
	mu   sync.RWMutex
}

var _ contracts.KVStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (s *MemoryStore) Load(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.data[key]
	if !ok {
		return nil, contracts.ErrNotFound
	}
	return append([]byte(nil), value...), nil
}

func (s *MemoryStore) Save(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = append([]byte(nil), value...)
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
