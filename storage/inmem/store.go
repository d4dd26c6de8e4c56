package inmem

import (
	"context"
	"sync"

	"github.com/trezcool/studydash/core"
)

// Store is a process-scoped key-value store; it plays the part of tab-scoped storage.
type Store struct {
	mutex sync.RWMutex
	table map[string][]byte
}

var _ core.Storage = (*Store)(nil)

func New() *Store {
	return &Store{table: make(map[string][]byte)}
}

func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	v, ok := s.table[key]
	if !ok {
		return nil, core.ErrKeyNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (s *Store) Set(_ context.Context, key string, value []byte) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	v := make([]byte, len(value))
	copy(v, value)
	s.table[key] = v
	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.table, key)
	return nil
}
