package testutil

import (
	"context"
	"errors"
	"sync"

	"btmad/internal/mad"
	"btmad/internal/model"
)

// ErrStubSave is returned by StubStore.Save while FailSaves is set.
var ErrStubSave = errors.New("stub store: save failed")

// StubStore is an in-memory mad.Store that records every save and can be
// told to fail. Safe for concurrent use.
type StubStore struct {
	mu        sync.Mutex
	data      *model.State
	saves     []model.State
	failSaves bool
	loadErr   error
}

var _ mad.Store = (*StubStore)(nil)

// NewStubStore creates an empty StubStore.
func NewStubStore() *StubStore {
	return &StubStore{}
}

// NewStubStoreWith creates a StubStore holding s.
func NewStubStoreWith(s model.State) *StubStore {
	return &StubStore{data: &s}
}

func (s *StubStore) Name() string { return "stub" }

func (s *StubStore) Load(context.Context) (model.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return model.State{}, s.loadErr
	}
	if s.data == nil {
		return model.State{}, mad.ErrNotFound
	}
	return *s.data, nil
}

func (s *StubStore) Save(_ context.Context, st model.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSaves {
		return ErrStubSave
	}
	s.data = &st
	s.saves = append(s.saves, st)
	return nil
}

// FailSaves makes subsequent saves fail (or succeed again).
func (s *StubStore) FailSaves(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failSaves = fail
}

// FailLoads makes Load return err.
func (s *StubStore) FailLoads(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadErr = err
}

// Saves returns every successfully saved aggregate, oldest first.
func (s *StubStore) Saves() []model.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.State(nil), s.saves...)
}

// Last returns the most recently saved aggregate.
func (s *StubStore) Last() (model.State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		return model.State{}, false
	}
	return *s.data, true
}
