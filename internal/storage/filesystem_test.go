package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"btmad/internal/mad"
)

func TestFileDocuments(t *testing.T) {
	ctx := context.Background()
	root := filepath.Join(t.TempDir(), "sync")

	docs, err := NewFileDocuments(root)
	if err != nil {
		t.Fatalf("NewFileDocuments() error = %v", err)
	}

	found, err := docs.FindByName(ctx, "BTMad.data.json")
	if err != nil || len(found) != 0 {
		t.Fatalf("FindByName() on empty dir = %v, %v", found, err)
	}

	store := NewRemoteStore(docs, "BTMad.data.json", mad.NewNopLogger())
	if _, err := store.Load(ctx); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := store.Save(ctx, sampleState()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	entries, _ := os.ReadDir(root)
	if len(entries) != 1 || entries[0].Name() != "BTMad.data.json" {
		t.Errorf("dir entries = %v, want only the data file", entries)
	}

	got, err := NewRemoteStore(docs, "BTMad.data.json", mad.NewNopLogger()).Load(ctx)
	if err != nil {
		t.Fatalf("reload error = %v", err)
	}
	if len(got.Users) != 1 {
		t.Errorf("reloaded = %+v", got)
	}

	if _, err := docs.Read(ctx, "missing.json"); err == nil {
		t.Error("Read() of missing file should return error")
	}
}
