package storage

import (
	"context"
	"fmt"

	"btmad/internal/kv"
	"btmad/internal/mad"
	"btmad/internal/model"
)

// SelectionStore wraps a store that does not persist the selected user and
// keeps the selection in local storage instead, so it survives restarts
// without ever reaching the remote document.
type SelectionStore struct {
	inner mad.Store
	kv    KeyValue
}

var (
	_ mad.Store          = (*SelectionStore)(nil)
	_ mad.SelectionSaver = (*SelectionStore)(nil)
)

// WithLocalSelection wraps inner.
func WithLocalSelection(inner mad.Store, store KeyValue) *SelectionStore {
	return &SelectionStore{inner: inner, kv: store}
}

func (s *SelectionStore) Name() string { return s.inner.Name() }

func (s *SelectionStore) Load(ctx context.Context) (model.State, error) {
	st, err := s.inner.Load(ctx)
	if err != nil {
		return st, err
	}
	id, ok, err := s.kv.Get(kv.KeyCurrentUser)
	if err != nil {
		return st, fmt.Errorf("%w: reading selected user: %w", mad.ErrLoad, err)
	}
	if ok {
		st.CurrentUserID = id
	}
	return st, nil
}

// Save records the selection locally, then writes the aggregate to the inner
// store. The selection is kept even when the inner write fails.
func (s *SelectionStore) Save(ctx context.Context, st model.State) error {
	if err := s.SaveSelection(ctx, st.CurrentUserID); err != nil {
		return err
	}
	return s.inner.Save(ctx, st)
}

// SaveSelection records userID locally without touching the inner store. An
// empty userID clears the selection.
func (s *SelectionStore) SaveSelection(_ context.Context, userID string) error {
	var err error
	if userID == "" {
		err = s.kv.Delete(kv.KeyCurrentUser)
	} else {
		err = s.kv.Set(kv.KeyCurrentUser, userID)
	}
	if err != nil {
		return fmt.Errorf("%w: writing selected user: %w", mad.ErrSave, err)
	}
	return nil
}
