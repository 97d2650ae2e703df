package kv

import (
	"path/filepath"
	"reflect"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_GetSet(t *testing.T) {
	s := newTestStore(t)

	if _, ok, err := s.Get(KeyState); err != nil || ok {
		t.Fatalf("Get() on empty store = ok %v, err %v", ok, err)
	}

	if err := s.Set(KeyState, `{"a":1}`); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := s.Set(KeyState, `{"a":2}`); err != nil {
		t.Fatalf("second Set() error = %v", err)
	}

	got, ok, err := s.Get(KeyState)
	if err != nil || !ok {
		t.Fatalf("Get() = ok %v, err %v", ok, err)
	}
	if got != `{"a":2}` {
		t.Errorf("Get() = %q, want last written value", got)
	}
}

func TestStore_DeleteAndClear(t *testing.T) {
	s := newTestStore(t)
	for _, k := range []string{KeyAPIKey, KeyClientID, KeyState} {
		if err := s.Set(k, "v"); err != nil {
			t.Fatalf("Set(%s) error = %v", k, err)
		}
	}

	if err := s.Delete(KeyAPIKey); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := s.Delete("missing"); err != nil {
		t.Fatalf("Delete(missing) error = %v", err)
	}

	keys, err := s.Keys()
	if err != nil {
		t.Fatalf("Keys() error = %v", err)
	}
	if want := []string{KeyClientID, KeyState}; !reflect.DeepEqual(keys, want) {
		t.Errorf("Keys() = %v, want %v", keys, want)
	}

	if err := s.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	keys, _ = s.Keys()
	if len(keys) != 0 {
		t.Errorf("Keys() after Clear() = %v", keys)
	}
}

func TestStore_PersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "local.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := s.Set(KeyClientID, "client-123"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer s.Close()

	if err := s.CheckMigrations(); err != nil {
		t.Errorf("CheckMigrations() error = %v", err)
	}
	got, ok, err := s.Get(KeyClientID)
	if err != nil || !ok || got != "client-123" {
		t.Errorf("Get() = %q, %v, %v", got, ok, err)
	}
}
