// Package storage implements the persistence adapter: stores that save and
// load the whole aggregate, either under a local key or as one remote
// document located by name.
package storage

import (
	"context"
	"errors"
)

// ErrNoDataFile is returned when saving before a data document is known.
var ErrNoDataFile = errors.New("no data file: load before saving")

// Document identifies a stored document.
type Document struct {
	ID   string
	Name string
}

// Documents is a minimal document API: enough to locate a file by name,
// create it, and read or overwrite its full content.
type Documents interface {
	// FindByName returns every non-trashed document with the given name, in
	// the backend's result order.
	FindByName(ctx context.Context, name string) ([]Document, error)

	// Create stores a new document and returns its id.
	Create(ctx context.Context, name string, body []byte) (Document, error)

	// Read returns the full content of the document.
	Read(ctx context.Context, id string) ([]byte, error)

	// Update replaces the metadata and content of the document in one request.
	Update(ctx context.Context, id, name string, body []byte) error
}

// KeyValue is the local-storage surface used by the local store.
type KeyValue interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
}
