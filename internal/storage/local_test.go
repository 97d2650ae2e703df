package storage

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"btmad/internal/kv"
	"btmad/internal/mad"
	"btmad/internal/testutil"
)

func TestLocalStore(t *testing.T) {
	ctx := context.Background()

	t.Run("empty store is not found", func(t *testing.T) {
		store := NewLocalStore(testutil.NewTestKV(t), mad.NewNopLogger())
		if _, err := store.Load(ctx); !errors.Is(err, mad.ErrNotFound) {
			t.Errorf("Load() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("round trip keeps selection", func(t *testing.T) {
		db := testutil.NewTestKV(t)
		store := NewLocalStore(db, mad.NewNopLogger())

		in := sampleState()
		if err := store.Save(ctx, in); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		raw, ok, _ := db.Get(kv.KeyState)
		if !ok || !strings.Contains(raw, `"currentUserId": "u1"`) {
			t.Errorf("stored value = %s", raw)
		}

		got, err := store.Load(ctx)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if !reflect.DeepEqual(got, in) {
			t.Errorf("Load() = %+v, want %+v", got, in)
		}
	})

	t.Run("unparseable value is not found", func(t *testing.T) {
		db := testutil.NewTestKV(t)
		db.Set(kv.KeyState, "[[[")
		store := NewLocalStore(db, mad.NewNopLogger())
		if _, err := store.Load(ctx); !errors.Is(err, mad.ErrNotFound) {
			t.Errorf("Load() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("clear", func(t *testing.T) {
		db := testutil.NewTestKV(t)
		store := NewLocalStore(db, mad.NewNopLogger())
		store.Save(ctx, sampleState())
		if err := store.Clear(); err != nil {
			t.Fatalf("Clear() error = %v", err)
		}
		if _, err := store.Load(ctx); !errors.Is(err, mad.ErrNotFound) {
			t.Errorf("Load() after Clear() error = %v", err)
		}
	})
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if _, err := store.Load(ctx); !errors.Is(err, mad.ErrNotFound) {
		t.Errorf("Load() error = %v, want ErrNotFound", err)
	}
	in := sampleState()
	store.Save(ctx, in)
	got, _ := store.Load(ctx)
	if !reflect.DeepEqual(got, in) {
		t.Errorf("Load() = %+v, want %+v", got, in)
	}
}

func TestSelectionStore(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestKV(t)
	docs := NewMemoryDocuments()
	store := WithLocalSelection(NewRemoteStore(docs, "BTMad.data.json", mad.NewNopLogger()), db)

	if _, err := store.Load(ctx); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := store.Save(ctx, sampleState()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if id, ok, _ := db.Get(kv.KeyCurrentUser); !ok || id != "u1" {
		t.Errorf("selected user in kv = %q, %v", id, ok)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.CurrentUserID != "u1" {
		t.Errorf("CurrentUserID = %q, want u1", got.CurrentUserID)
	}

	cleared := sampleState()
	cleared.CurrentUserID = ""
	store.Save(ctx, cleared)
	if _, ok, _ := db.Get(kv.KeyCurrentUser); ok {
		t.Error("selection kept after clearing it")
	}
}

func TestSelectionStore_SaveKeepsSelectionWhenRemoteFails(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestKV(t)
	// Never loaded, so the remote write has no data file to update.
	store := WithLocalSelection(NewRemoteStore(NewMemoryDocuments(), "BTMad.data.json", mad.NewNopLogger()), db)

	if err := store.Save(ctx, sampleState()); !errors.Is(err, ErrNoDataFile) {
		t.Fatalf("Save() error = %v, want ErrNoDataFile", err)
	}
	if id, ok, _ := db.Get(kv.KeyCurrentUser); !ok || id != "u1" {
		t.Errorf("selected user in kv = %q, %v, want u1", id, ok)
	}
}

func TestService_SelectUserDoesNotWriteRemote(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestKV(t)
	docs := NewMemoryDocuments()
	store := WithLocalSelection(NewRemoteStore(docs, "BTMad.data.json", mad.NewNopLogger()), db)

	svc := mad.NewService(store, mad.NewNopLogger(), testutil.FixedClock(), testutil.NewStubIDGenerator())
	if _, err := svc.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	user, err := svc.AddUser(ctx, mad.UserDraft{Name: "Mads"})
	if err != nil {
		t.Fatalf("AddUser() error = %v", err)
	}
	before := docs.Updates()

	if err := svc.SelectUser(ctx, user.ID); err != nil {
		t.Fatalf("SelectUser() error = %v", err)
	}
	if got := docs.Updates() - before; got != 0 {
		t.Errorf("remote updates from SelectUser = %d, want 0", got)
	}
	if id, ok, _ := db.Get(kv.KeyCurrentUser); !ok || id != user.ID {
		t.Errorf("selected user in kv = %q, %v, want %q", id, ok, user.ID)
	}

	reloaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if reloaded.CurrentUserID != user.ID {
		t.Errorf("CurrentUserID after reload = %q, want %q", reloaded.CurrentUserID, user.ID)
	}
}
