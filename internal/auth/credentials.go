package auth

import (
	"fmt"

	"btmad/internal/kv"
	"btmad/internal/mad"
)

// KeyValue is the local-storage surface used for credentials and the token
// cache.
type KeyValue interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
}

// Credentials identify the application to the identity provider and the
// document API. They are persisted locally, never in the config file.
type Credentials struct {
	APIKey       string
	ClientID     string
	ClientSecret string
}

// Configured reports whether the required fields are present.
func (c Credentials) Configured() bool {
	return c.APIKey != "" && c.ClientID != ""
}

// LoadCredentials reads credentials from local storage. Missing API key or
// client id yields an error wrapping mad.ErrNotConfigured along with
// whatever was found.
func LoadCredentials(store KeyValue) (Credentials, error) {
	var c Credentials
	fields := []struct {
		key string
		dst *string
	}{
		{kv.KeyAPIKey, &c.APIKey},
		{kv.KeyClientID, &c.ClientID},
		{kv.KeyClientSecret, &c.ClientSecret},
	}
	for _, f := range fields {
		v, _, err := store.Get(f.key)
		if err != nil {
			return c, fmt.Errorf("reading %s: %w", f.key, err)
		}
		*f.dst = v
	}
	if !c.Configured() {
		return c, mad.ErrNotConfigured
	}
	return c, nil
}

// SaveCredentials writes c to local storage. Empty fields remove the stored
// value.
func SaveCredentials(store KeyValue, c Credentials) error {
	fields := []struct{ key, value string }{
		{kv.KeyAPIKey, c.APIKey},
		{kv.KeyClientID, c.ClientID},
		{kv.KeyClientSecret, c.ClientSecret},
	}
	for _, f := range fields {
		var err error
		if f.value == "" {
			err = store.Delete(f.key)
		} else {
			err = store.Set(f.key, f.value)
		}
		if err != nil {
			return fmt.Errorf("writing %s: %w", f.key, err)
		}
	}
	return nil
}

// ClearCredentials removes stored credentials and the cached token.
func ClearCredentials(store KeyValue) error {
	for _, key := range []string{kv.KeyAPIKey, kv.KeyClientID, kv.KeyClientSecret, kv.KeyToken} {
		if err := store.Delete(key); err != nil {
			return fmt.Errorf("deleting %s: %w", key, err)
		}
	}
	return nil
}
