// Package importer loads template files dropped into watched directories into the catalog.
package importer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/hyperjump/clausekit/internal/fileid"
	"github.com/hyperjump/clausekit/internal/models"
	"github.com/hyperjump/clausekit/internal/storage"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Importer adds templates read from YAML or JSON files to a store. It remembers
// which id each file produced so a later change or removal of that file can
// replace or delete it.
type Importer struct {
	store  storage.TemplateStore
	logger *zap.Logger

	mu    sync.Mutex
	owned map[string]string // absolute path -> template id
}

// New returns an importer writing to store.
func New(store storage.TemplateStore, logger *zap.Logger) *Importer {
	return &Importer{
		store:  store,
		logger: logger,
		owned:  make(map[string]string),
	}
}

// ParseFile reads one template from path. JSON parses as YAML. A missing id is
// derived from the path.
func ParseFile(path string) (models.Template, error) {
	var t models.Template
	data, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(data, &t); err != nil {
		return t, fmt.Errorf("parse %s: %w", path, err)
	}
	if t.ID == "" {
		t.ID = fileid.TemplateID(path)
	}
	if err := t.Validate(); err != nil {
		return t, err
	}
	return t, nil
}

// ImportFile adds the template in path to the store. A template whose id is
// already in the catalog is skipped, unless this importer added it from the
// same path, in which case it is replaced.
func (im *Importer) ImportFile(ctx context.Context, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	t, err := ParseFile(abs)
	if err != nil {
		return err
	}

	im.mu.Lock()
	defer im.mu.Unlock()

	var replaced *models.Template
	if prev, ok := im.owned[abs]; ok {
		if t.ID != prev {
			if _, err := im.store.Get(ctx, t.ID); err == nil {
				im.logger.Info("skipping imported template with existing id, keeping previous",
					zap.String("path", abs), zap.String("id", t.ID), zap.String("previous", prev))
				return nil
			} else if !errors.Is(err, storage.ErrNotFound) {
				return err
			}
		}
		old, err := im.store.Get(ctx, prev)
		switch {
		case err == nil:
			if _, err := im.store.Delete(ctx, prev); err != nil && !errors.Is(err, storage.ErrNotFound) {
				return err
			}
			replaced = old
		case errors.Is(err, storage.ErrNotFound):
			delete(im.owned, abs)
		default:
			return err
		}
	}

	if _, err := im.store.Add(ctx, t); err != nil {
		if replaced != nil {
			if _, rerr := im.store.Add(ctx, *replaced); rerr != nil {
				delete(im.owned, abs)
				im.logger.Error("failed to restore replaced template",
					zap.String("path", abs), zap.String("id", replaced.ID), zap.Error(rerr))
			}
		}
		if errors.Is(err, storage.ErrDuplicateID) {
			im.logger.Info("skipping imported template with existing id",
				zap.String("path", abs), zap.String("id", t.ID))
			return nil
		}
		return err
	}
	im.owned[abs] = t.ID
	im.logger.Info("imported template", zap.String("path", abs), zap.String("id", t.ID))
	return nil
}

// RemoveFile deletes the template that path produced. Paths this importer never
// saw fall back to the path-derived id; absent ids are ignored.
func (im *Importer) RemoveFile(ctx context.Context, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	im.mu.Lock()
	defer im.mu.Unlock()

	id, ok := im.owned[abs]
	if !ok {
		id = fileid.TemplateID(abs)
	}
	delete(im.owned, abs)

	if _, err := im.store.Delete(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		return err
	}
	im.logger.Info("removed imported template", zap.String("path", abs), zap.String("id", id))
	return nil
}
