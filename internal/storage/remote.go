package storage

import (
	"context"
	"fmt"
	"sync"

	"btmad/internal/codec"
	"btmad/internal/mad"
	"btmad/internal/model"
)

// RemoteStore keeps the aggregate in a single remote document located by a
// fixed name. The document is created on first load; every save overwrites
// it in full. The selected user is never written.
type RemoteStore struct {
	docs   Documents
	name   string
	logger mad.Logger

	mu     sync.Mutex
	fileID string
}

var _ mad.Store = (*RemoteStore)(nil)

// NewRemoteStore creates a RemoteStore for the document called name.
func NewRemoteStore(docs Documents, name string, logger mad.Logger) *RemoteStore {
	return &RemoteStore{docs: docs, name: name, logger: logger}
}

func (s *RemoteStore) Name() string { return "remote:" + s.name }

// FindOrCreate locates the data document, creating it with an empty
// aggregate when none exists. When several documents share the name the
// first one returned wins. A document whose content cannot be parsed yields
// an empty aggregate rather than an error.
func (s *RemoteStore) FindOrCreate(ctx context.Context) (string, model.Bundle, error) {
	found, err := s.docs.FindByName(ctx, s.name)
	if err != nil {
		return "", model.Bundle{}, fmt.Errorf("%w: searching for %s: %w", mad.ErrLoad, s.name, err)
	}

	if len(found) == 0 {
		empty := model.NewBundle()
		body, err := codec.EncodeBundle(empty)
		if err != nil {
			return "", model.Bundle{}, fmt.Errorf("encoding empty document: %w", err)
		}
		doc, err := s.docs.Create(ctx, s.name, body)
		if err != nil {
			return "", model.Bundle{}, fmt.Errorf("%w: creating %s: %w", mad.ErrLoad, s.name, err)
		}
		s.logger.Info("data file created", "name", s.name, "id", doc.ID)
		return doc.ID, empty, nil
	}

	if len(found) > 1 {
		s.logger.Warn("several data files share the name, using the first", "name", s.name, "count", len(found))
	}
	id := found[0].ID

	body, err := s.docs.Read(ctx, id)
	if err != nil {
		return "", model.Bundle{}, fmt.Errorf("%w: reading %s: %w", mad.ErrLoad, id, err)
	}

	st, err := codec.Decode(body)
	if err != nil {
		s.logger.Warn("data file could not be parsed, starting empty", "id", id, "error", err)
		return id, model.NewBundle(), nil
	}
	return id, st.Bundle, nil
}

// Load runs FindOrCreate and remembers the document id for later saves.
func (s *RemoteStore) Load(ctx context.Context) (model.State, error) {
	id, bundle, err := s.FindOrCreate(ctx)
	if err != nil {
		return model.State{}, err
	}

	s.mu.Lock()
	s.fileID = id
	s.mu.Unlock()

	return model.State{Bundle: bundle}, nil
}

// FileID returns the id of the loaded document, or "" before Load.
func (s *RemoteStore) FileID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fileID
}

// SaveTo overwrites the document fileID with bundle.
func (s *RemoteStore) SaveTo(ctx context.Context, fileID string, bundle model.Bundle) error {
	if fileID == "" {
		return fmt.Errorf("%w: %w", mad.ErrSave, ErrNoDataFile)
	}

	body, err := codec.EncodeBundle(bundle)
	if err != nil {
		return fmt.Errorf("%w: encoding document: %w", mad.ErrSave, err)
	}
	if err := s.docs.Update(ctx, fileID, s.name, body); err != nil {
		return fmt.Errorf("%w: updating %s: %w", mad.ErrSave, fileID, err)
	}
	return nil
}

// Save overwrites the loaded document with st, without the selected user.
func (s *RemoteStore) Save(ctx context.Context, st model.State) error {
	return s.SaveTo(ctx, s.FileID(), st.Bundle)
}
