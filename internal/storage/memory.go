package storage

import (
	"context"
	"sync"

	"github.com/hyperjump/clausekit/internal/models"
)

// MemoryStore is an in-process catalog. It backs tests and the "memory" backend.
type MemoryStore struct {
	mu      sync.RWMutex
	catalog []models.Template
}

// NewMemoryStore returns a store seeded with the given templates, in order.
func NewMemoryStore(seed ...models.Template) *MemoryStore {
	return &MemoryStore{catalog: append([]models.Template{}, seed...)}
}

func (s *MemoryStore) List(ctx context.Context) ([]models.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Template{}, s.catalog...), nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*models.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getTemplate(s.catalog, id)
}

func (s *MemoryStore) Add(ctx context.Context, t models.Template) ([]models.Template, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	updated, err := appendTemplate(s.catalog, t)
	if err != nil {
		return nil, err
	}
	s.catalog = updated
	return append([]models.Template{}, updated...), nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) ([]models.Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	updated, err := removeTemplate(s.catalog, id)
	if err != nil {
		return nil, err
	}
	s.catalog = updated
	return append([]models.Template{}, updated...), nil
}

func (s *MemoryStore) Close() error {
	return nil
}
