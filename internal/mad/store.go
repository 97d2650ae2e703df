package mad

import (
	"context"

	"btmad/internal/model"
)

// Store persists the whole aggregate. Every Save is a full overwrite.
type Store interface {
	// Load returns the stored aggregate, or an error wrapping ErrNotFound
	// when nothing has been stored yet.
	Load(ctx context.Context) (model.State, error)

	// Save overwrites the stored aggregate with s.
	Save(ctx context.Context, s model.State) error

	// Name identifies the store in logs.
	Name() string
}

// SelectionSaver is implemented by stores that keep the selected user apart
// from the shared aggregate. The service uses it for SetCurrentUser instead
// of a full Save.
type SelectionSaver interface {
	SaveSelection(ctx context.Context, userID string) error
}
