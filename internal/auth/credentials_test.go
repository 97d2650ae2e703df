package auth

import (
	"errors"
	"testing"

	"btmad/internal/kv"
	"btmad/internal/mad"
	"btmad/internal/testutil"
)

func TestCredentials(t *testing.T) {
	db := testutil.NewTestKV(t)

	if _, err := LoadCredentials(db); !errors.Is(err, mad.ErrNotConfigured) {
		t.Errorf("LoadCredentials() on empty store error = %v, want ErrNotConfigured", err)
	}

	if err := SaveCredentials(db, Credentials{APIKey: "k"}); err != nil {
		t.Fatalf("SaveCredentials() error = %v", err)
	}
	if c, err := LoadCredentials(db); !errors.Is(err, mad.ErrNotConfigured) || c.APIKey != "k" {
		t.Errorf("LoadCredentials() with key only = %+v, %v", c, err)
	}

	want := Credentials{APIKey: "k", ClientID: "id", ClientSecret: "s"}
	if err := SaveCredentials(db, want); err != nil {
		t.Fatalf("SaveCredentials() error = %v", err)
	}
	got, err := LoadCredentials(db)
	if err != nil || got != want {
		t.Errorf("LoadCredentials() = %+v, %v; want %+v", got, err, want)
	}
	if v, _, _ := db.Get(kv.KeyClientID); v != "id" {
		t.Errorf("client id stored under %s = %q", kv.KeyClientID, v)
	}

	db.Set(kv.KeyToken, "cached")
	if err := ClearCredentials(db); err != nil {
		t.Fatalf("ClearCredentials() error = %v", err)
	}
	keys, _ := db.Keys()
	if len(keys) != 0 {
		t.Errorf("keys after ClearCredentials() = %v", keys)
	}
}
