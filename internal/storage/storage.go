// Package storage defines the template catalog interface and its backends.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/hyperjump/clausekit/internal/config"
	"github.com/hyperjump/clausekit/internal/models"
)

var (
	// ErrNotFound is returned when no template has the requested id.
	ErrNotFound = errors.New("template not found")
	// ErrDuplicateID is returned when adding a template whose id is already present.
	ErrDuplicateID = errors.New("template id already exists")
)

// TemplateStore owns the durable template catalog.
// Mutations are serialized per store; concurrent Adds with distinct ids are all retained.
type TemplateStore interface {
	// List returns the catalog in insertion order.
	List(ctx context.Context) ([]models.Template, error)
	// Get returns the template with id, or ErrNotFound.
	Get(ctx context.Context, id string) (*models.Template, error)
	// Add appends t and returns the updated catalog. Fails with ErrDuplicateID
	// when t.ID is present (case-sensitive).
	Add(ctx context.Context, t models.Template) ([]models.Template, error)
	// Delete removes the template with id and returns the updated catalog.
	// Fails with ErrNotFound, leaving the catalog untouched, when id is absent.
	Delete(ctx context.Context, id string) ([]models.Template, error)

	Close() error
}

// Open returns the backend selected by cfg.Backend.
func Open(cfg config.StorageConfig) (TemplateStore, error) {
	switch cfg.Backend {
	case config.BackendFile, "":
		return NewFileStore(cfg.CatalogPath)
	case config.BackendSQLite:
		return NewSQLiteStore(cfg.DatabasePath)
	case config.BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// appendTemplate returns catalog with t appended, or ErrDuplicateID.
func appendTemplate(catalog []models.Template, t models.Template) ([]models.Template, error) {
	if _, ok := models.FindTemplate(catalog, t.ID); ok {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateID, t.ID)
	}
	out := make([]models.Template, 0, len(catalog)+1)
	out = append(out, catalog...)
	return append(out, t), nil
}

// removeTemplate returns catalog without the first template with id, or ErrNotFound.
func removeTemplate(catalog []models.Template, id string) ([]models.Template, error) {
	for i := range catalog {
		if catalog[i].ID == id {
			out := make([]models.Template, 0, len(catalog)-1)
			out = append(out, catalog[:i]...)
			return append(out, catalog[i+1:]...), nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
}

func getTemplate(catalog []models.Template, id string) (*models.Template, error) {
	t, ok := models.FindTemplate(catalog, id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return t, nil
}
