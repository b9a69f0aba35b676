package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// BlobStore persists document payloads on disk keyed by document id.
// Metadata lives in the database; only the raw bytes are kept here.
type BlobStore struct {
	baseDir string
}

// NewBlobStore ensures the base directory exists and returns a handle.
func NewBlobStore(baseDir string) (*BlobStore, error) {
	if baseDir == "" {
		baseDir = "./documents"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create documents directory: %w", err)
	}
	return &BlobStore{baseDir: baseDir}, nil
}

// Store writes the payload for the given document id.
func (s *BlobStore) Store(id string, data []byte) error {
	path := s.resolve(id)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("prepare document directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write document blob: %w", err)
	}
	return nil
}

// Fetch reads back the payload for the given document id.
func (s *BlobStore) Fetch(id string) ([]byte, error) {
	data, err := os.ReadFile(s.resolve(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, os.ErrNotExist
		}
		return nil, fmt.Errorf("read document blob: %w", err)
	}
	return data, nil
}

// Delete removes the payload if present. Missing blobs are not an error.
func (s *BlobStore) Delete(id string) error {
	if err := os.Remove(s.resolve(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete document blob: %w", err)
	}
	return nil
}

// Blobs are sharded by the first two characters of the id to keep
// directories small.
func (s *BlobStore) resolve(id string) string {
	shard := "00"
	if len(id) >= 2 {
		shard = id[:2]
	}
	return filepath.Join(s.baseDir, shard, id)
}
