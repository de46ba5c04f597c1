package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/hyperjump/clausekit/internal/models"
)

// FileStore keeps the catalog as a JSON array in a single file.
// Every call re-reads the file; mutations hold the store lock across
// read-modify-write and replace the file atomically with a rename.
type FileStore struct {
	path string
	mu   sync.RWMutex
}

// NewFileStore returns a store over the catalog file at path. The file must exist.
func NewFileStore(path string) (*FileStore, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("catalog file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("catalog file: %s is a directory", path)
	}
	return &FileStore{path: path}, nil
}

// List returns the catalog as currently stored on disk.
func (s *FileStore) List(ctx context.Context) ([]models.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read()
}

// Get returns the template with id.
func (s *FileStore) Get(ctx context.Context, id string) (*models.Template, error) {
	catalog, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return getTemplate(catalog, id)
}

// Add appends t and rewrites the catalog.
func (s *FileStore) Add(ctx context.Context, t models.Template) ([]models.Template, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	catalog, err := s.read()
	if err != nil {
		return nil, err
	}
	updated, err := appendTemplate(catalog, t)
	if err != nil {
		return nil, err
	}
	if err := s.write(updated); err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes the template with id and rewrites the catalog.
func (s *FileStore) Delete(ctx context.Context, id string) ([]models.Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	catalog, err := s.read()
	if err != nil {
		return nil, err
	}
	updated, err := removeTemplate(catalog, id)
	if err != nil {
		return nil, err
	}
	if err := s.write(updated); err != nil {
		return nil, err
	}
	return updated, nil
}

// Close is a no-op; the file is not held open between calls.
func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) read() ([]models.Template, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	catalog := []models.Template{}
	if err := json.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	return catalog, nil
}

// write replaces the catalog file. The new content goes to a temp file in the same
// directory, is synced, then renamed over the old file.
func (s *FileStore) write(catalog []models.Template) error {
	data, err := json.MarshalIndent(catalog, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal catalog: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".catalog-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp catalog: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}
	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("failed to write catalog: %w", err)
	}
	if err := tmp.Chmod(0644); err != nil {
		cleanup()
		return fmt.Errorf("failed to chmod catalog: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("failed to sync catalog: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close catalog: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to replace catalog: %w", err)
	}
	return nil
}
