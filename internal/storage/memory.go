package storage

import (
	"context"
	"sync"

	"btmad/internal/mad"
	"btmad/internal/model"
)

// MemoryStore is an in-memory implementation of mad.Store. Its data lasts
// for the life of the process.
type MemoryStore struct {
	mu   sync.RWMutex
	data *model.State
}

var _ mad.Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Name() string { return "memory" }

func (s *MemoryStore) Load(context.Context) (model.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.data == nil {
		return model.State{}, mad.ErrNotFound
	}
	return *s.data, nil
}

func (s *MemoryStore) Save(_ context.Context, st model.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st.Bundle = st.Bundle.Normalize()
	s.data = &st
	return nil
}
