// Package search provides keyword search over the template catalog.
package search

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	blevequery "github.com/blevesearch/bleve/v2/search/query"
	"github.com/hyperjump/clausekit/internal/config"
	"github.com/hyperjump/clausekit/internal/models"
	"go.uber.org/zap"
)

// ErrEmptyQuery is returned when the query has no terms.
var ErrEmptyQuery = errors.New("search query is empty")

const (
	docType   = "template"
	fuzziness = 1
)

// Searcher keeps an in-memory bleve index of the catalog. The index is rebuilt
// whenever the catalog passed to Search differs from the one last indexed.
type Searcher struct {
	cfg    config.SearchConfig
	logger *zap.Logger

	mu          sync.Mutex
	index       bleve.Index
	fingerprint string
}

// NewSearcher returns a searcher with an empty index.
func NewSearcher(cfg config.SearchConfig, logger *zap.Logger) *Searcher {
	return &Searcher{cfg: cfg, logger: logger}
}

func newMapping() *mapping.IndexMappingImpl {
	im := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()
	// Standard analyzer: lowercase + tokenize, no stemming.
	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = standard.Name
	for _, field := range []string{"title", "description", "content"} {
		docMapping.AddFieldMappingsAt(field, textFieldMapping)
	}
	keywordFieldMapping := bleve.NewKeywordFieldMapping()
	docMapping.AddFieldMappingsAt("id", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("category", keywordFieldMapping)

	im.AddDocumentMapping(docType, docMapping)
	im.DefaultType = docType
	im.DefaultMapping = docMapping
	return im
}

// Fingerprint returns the sha256 of the catalog's JSON encoding.
func Fingerprint(templates []models.Template) (string, error) {
	data, err := json.Marshal(templates)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Search returns the templates matching query, best first. limit <= 0 means the
// configured default; limits above the configured maximum are clamped.
func (s *Searcher) Search(ctx context.Context, templates []models.Template, query string, limit int, fuzzy bool) ([]models.Template, error) {
	terms := tokenizeQuery(query)
	if len(terms) == 0 {
		return nil, ErrEmptyQuery
	}
	limit = s.clampLimit(limit)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.syncLocked(templates); err != nil {
		return nil, err
	}

	var q blevequery.Query
	if fuzzy {
		q = buildFuzzyQuery(terms)
	} else {
		q = bleve.NewMatchQuery(query)
	}
	req := bleve.NewSearchRequest(q)
	req.Size = limit
	results, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("bleve search failed: %w", err)
	}

	out := make([]models.Template, 0, len(results.Hits))
	for _, hit := range results.Hits {
		if t, ok := models.FindTemplate(templates, hit.ID); ok {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (s *Searcher) clampLimit(limit int) int {
	if limit <= 0 {
		limit = s.cfg.DefaultLimit
	}
	if s.cfg.MaxLimit > 0 && limit > s.cfg.MaxLimit {
		limit = s.cfg.MaxLimit
	}
	if limit <= 0 {
		limit = 10
	}
	return limit
}

// syncLocked rebuilds the index when the catalog fingerprint changed.
func (s *Searcher) syncLocked(templates []models.Template) error {
	fp, err := Fingerprint(templates)
	if err != nil {
		return fmt.Errorf("fingerprint catalog: %w", err)
	}
	if s.index != nil && fp == s.fingerprint {
		return nil
	}

	index, err := bleve.NewMemOnly(newMapping())
	if err != nil {
		return fmt.Errorf("failed to create bleve index: %w", err)
	}
	batch := index.NewBatch()
	for i := range templates {
		t := &templates[i]
		doc := map[string]interface{}{
			"id":          t.ID,
			"title":       t.Title,
			"description": t.Description,
			"category":    t.Category,
			"content":     t.Content,
		}
		if err := batch.Index(t.ID, doc); err != nil {
			_ = index.Close()
			return fmt.Errorf("index template %s: %w", t.ID, err)
		}
	}
	if err := index.Batch(batch); err != nil {
		_ = index.Close()
		return fmt.Errorf("index catalog: %w", err)
	}

	if s.index != nil {
		_ = s.index.Close()
	}
	s.index = index
	s.fingerprint = fp
	s.logger.Debug("rebuilt template index", zap.Int("templates", len(templates)))
	return nil
}

// Close releases the index.
func (s *Searcher) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index == nil {
		return nil
	}
	err := s.index.Close()
	s.index = nil
	s.fingerprint = ""
	return err
}

// tokenizeQuery splits query into lowercase terms, filtering out empty strings.
func tokenizeQuery(query string) []string {
	return strings.Fields(strings.ToLower(query))
}

// buildFuzzyQuery ORs one fuzzy query per term.
func buildFuzzyQuery(terms []string) blevequery.Query {
	queries := make([]blevequery.Query, 0, len(terms))
	for _, term := range terms {
		fq := bleve.NewFuzzyQuery(term)
		fq.SetFuzziness(fuzziness)
		queries = append(queries, fq)
	}
	if len(queries) == 1 {
		return queries[0]
	}
	return bleve.NewDisjunctionQuery(queries...)
}
