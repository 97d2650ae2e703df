package storage

import (
	"context"
	"fmt"

	"btmad/internal/codec"
	"btmad/internal/kv"
	"btmad/internal/mad"
	"btmad/internal/model"
)

// LocalStore keeps the aggregate, selected user included, as one JSON value
// under a fixed key in local storage.
type LocalStore struct {
	kv     KeyValue
	key    string
	logger mad.Logger
}

var _ mad.Store = (*LocalStore)(nil)

// NewLocalStore creates a LocalStore using the standard state key.
func NewLocalStore(store KeyValue, logger mad.Logger) *LocalStore {
	return &LocalStore{kv: store, key: kv.KeyState, logger: logger}
}

func (s *LocalStore) Name() string { return "local" }

// Load returns ErrNotFound both when nothing is stored and when the stored
// value cannot be parsed.
func (s *LocalStore) Load(context.Context) (model.State, error) {
	raw, ok, err := s.kv.Get(s.key)
	if err != nil {
		return model.State{}, fmt.Errorf("%w: %w", mad.ErrLoad, err)
	}
	if !ok {
		return model.State{}, mad.ErrNotFound
	}

	st, err := codec.Decode([]byte(raw))
	if err != nil {
		s.logger.Warn("stored state could not be parsed, starting empty", "key", s.key, "error", err)
		return model.State{}, fmt.Errorf("%w: %w", mad.ErrNotFound, err)
	}
	return st, nil
}

// Save overwrites the stored value unconditionally.
func (s *LocalStore) Save(_ context.Context, st model.State) error {
	data, err := codec.EncodeState(st)
	if err != nil {
		return fmt.Errorf("%w: encoding state: %w", mad.ErrSave, err)
	}
	if err := s.kv.Set(s.key, string(data)); err != nil {
		return fmt.Errorf("%w: %w", mad.ErrSave, err)
	}
	return nil
}

// Clear removes the stored value.
func (s *LocalStore) Clear() error {
	return s.kv.Delete(s.key)
}
