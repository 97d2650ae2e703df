package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FileDocuments is a filesystem-based implementation of Documents. Every
// document is a file in root, and its id is the file name. This suits data
// files kept in a synced folder.
type FileDocuments struct {
	root string
}

var _ Documents = (*FileDocuments)(nil)

// NewFileDocuments creates the root directory if needed.
func NewFileDocuments(root string) (*FileDocuments, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create documents directory: %w", err)
	}
	return &FileDocuments{root: root}, nil
}

func (d *FileDocuments) FindByName(_ context.Context, name string) ([]Document, error) {
	info, err := os.Stat(d.path(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("checking %s: %w", name, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("document path is a directory: %s", d.path(name))
	}
	return []Document{{ID: name, Name: name}}, nil
}

func (d *FileDocuments) Create(_ context.Context, name string, body []byte) (Document, error) {
	if err := d.writeFile(d.path(name), body); err != nil {
		return Document{}, err
	}
	return Document{ID: name, Name: name}, nil
}

func (d *FileDocuments) Read(_ context.Context, id string) ([]byte, error) {
	data, err := os.ReadFile(d.path(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("document not found: %s", id)
		}
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	return data, nil
}

// Update overwrites the file for id. The name is fixed by the id.
func (d *FileDocuments) Update(_ context.Context, id, _ string, body []byte) error {
	return d.writeFile(d.path(id), body)
}

func (d *FileDocuments) path(name string) string {
	return filepath.Join(d.root, filepath.Base(name))
}

// writeFile writes body to destPath using atomic write (temp file + rename).
func (d *FileDocuments) writeFile(destPath string, body []byte) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	written, err := io.Copy(tmpFile, bytes.NewReader(body))
	if err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if written != int64(len(body)) {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", len(body), written)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	success = true
	return nil
}
