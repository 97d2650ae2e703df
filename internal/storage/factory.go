package storage

import (
	"context"
	"fmt"
	"net/http"

	"btmad/internal/config"
	"btmad/internal/mad"
)

// Deps carries what the store backends may need beyond configuration.
type Deps struct {
	KV     KeyValue
	Logger mad.Logger

	// HTTPClient authorizes Drive requests.
	HTTPClient *http.Client
	APIKey     string

	// Documents, when set, is used instead of building a backend from
	// configuration.
	Documents Documents
}

// Remote reports whether the store type keeps data in a remote document.
func Remote(cfg config.StoreConfig) bool {
	switch cfg.Type {
	case "drive", "s3", "filesystem":
		return true
	}
	return false
}

// NewStoreFromConfig creates a mad.Store implementation based on the store
// config type. Remote stores keep the selected user in local storage.
func NewStoreFromConfig(ctx context.Context, cfg config.StoreConfig, deps Deps) (mad.Store, error) {
	logger := deps.Logger
	if logger == nil {
		logger = mad.NewNopLogger()
	}

	switch cfg.Type {
	case "local", "":
		if deps.KV == nil {
			return nil, fmt.Errorf("local store requires a key/value store")
		}
		return NewLocalStore(deps.KV, logger), nil
	case "memory":
		return NewMemoryStore(), nil
	}

	if !Remote(cfg) {
		return nil, fmt.Errorf("unknown store type: %s", cfg.Type)
	}

	docs := deps.Documents
	if docs == nil {
		var err error
		if docs, err = NewDocumentsFromConfig(ctx, cfg, deps); err != nil {
			return nil, err
		}
	}

	name := cfg.DocumentName
	if name == "" {
		name = config.DefaultDocumentName
	}
	remote := NewRemoteStore(docs, name, logger)
	if deps.KV == nil {
		return remote, nil
	}
	return WithLocalSelection(remote, deps.KV), nil
}

// NewDocumentsFromConfig creates the Documents backend for a remote store type.
func NewDocumentsFromConfig(ctx context.Context, cfg config.StoreConfig, deps Deps) (Documents, error) {
	switch cfg.Type {
	case "drive":
		if deps.HTTPClient == nil {
			return nil, fmt.Errorf("drive store requires an authorized http client")
		}
		return NewDriveDocuments(ctx, deps.HTTPClient, deps.APIKey, cfg.DriveEndpoint)
	case "s3":
		return NewS3Documents(ctx, cfg)
	case "filesystem":
		if cfg.FSRoot == "" {
			return nil, fmt.Errorf("filesystem store requires fs_root to be set")
		}
		return NewFileDocuments(cfg.FSRoot)
	default:
		return nil, fmt.Errorf("store type %s has no document backend", cfg.Type)
	}
}
