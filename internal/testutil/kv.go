package testutil

import (
	"testing"

	"btmad/internal/encryption"
	"btmad/internal/kv"
	"btmad/internal/mad"
)

// NewTestKV creates a new in-memory key/value store with schema applied.
// The store is automatically closed when the test completes.
func NewTestKV(t *testing.T) *kv.Store {
	t.Helper()

	s, err := kv.Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open kv store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})
	return s
}

// NewTestEncryptor creates a new test encryptor for testing.
func NewTestEncryptor() mad.Encryptor {
	return encryption.NewTestEncryptor()
}
