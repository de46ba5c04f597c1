package search

import (
	"context"
	"errors"
	"testing"

	"github.com/hyperjump/clausekit/internal/config"
	"github.com/hyperjump/clausekit/internal/models"
	"go.uber.org/zap"
)

var catalog = []models.Template{
	{ID: "nda", Title: "Mutual NDA", Description: "Non-disclosure agreement", Category: "Confidentiality", Content: "Each party shall keep confidential information secret."},
	{ID: "lease", Title: "Office Lease", Description: "Commercial lease", Category: "Real Estate", Content: "The tenant shall pay rent monthly."},
	{ID: "sow", Title: "Statement of Work", Description: "Services engagement", Category: "Services", Content: "The contractor shall deliver the services and invoice monthly."},
}

func newTestSearcher(t *testing.T) *Searcher {
	t.Helper()
	s := NewSearcher(config.SearchConfig{DefaultLimit: 10, MaxLimit: 2}, zap.NewNop())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func ids(templates []models.Template) []string {
	out := make([]string, len(templates))
	for i, t := range templates {
		out[i] = t.ID
	}
	return out
}

func TestSearch_matchesContent(t *testing.T) {
	s := newTestSearcher(t)
	got, err := s.Search(context.Background(), catalog, "rent", 0, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != "lease" {
		t.Errorf("got %v, want [lease]", ids(got))
	}
	if got[0].Content != catalog[1].Content {
		t.Error("result should carry the full template")
	}
}

func TestSearch_matchesTitleCaseInsensitive(t *testing.T) {
	s := newTestSearcher(t)
	got, err := s.Search(context.Background(), catalog, "NDA", 0, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != "nda" {
		t.Errorf("got %v, want [nda]", ids(got))
	}
}

func TestSearch_fuzzy(t *testing.T) {
	s := newTestSearcher(t)
	got, err := s.Search(context.Background(), catalog, "tenent", 0, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("exact search should miss typo, got %v", ids(got))
	}
	got, err = s.Search(context.Background(), catalog, "tenent", 0, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != "lease" {
		t.Errorf("fuzzy got %v, want [lease]", ids(got))
	}
}

func TestSearch_limitClamped(t *testing.T) {
	s := newTestSearcher(t)
	got, err := s.Search(context.Background(), catalog, "shall", 50, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Errorf("expected results clamped to 2, got %v", ids(got))
	}
}

func TestSearch_rebuildsOnCatalogChange(t *testing.T) {
	s := newTestSearcher(t)
	ctx := context.Background()
	if got, _ := s.Search(ctx, catalog, "warranty", 0, false); len(got) != 0 {
		t.Fatalf("unexpected hits %v", ids(got))
	}
	fp := s.fingerprint

	updated := append(append([]models.Template{}, catalog...), models.Template{
		ID: "warranty", Title: "Warranty", Description: "Product warranty", Category: "Sales", Content: "Warranty lasts one year.",
	})
	got, err := s.Search(ctx, updated, "warranty", 0, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != "warranty" {
		t.Errorf("got %v, want [warranty]", ids(got))
	}
	if s.fingerprint == fp {
		t.Error("fingerprint should change with the catalog")
	}
}

func TestSearch_emptyQuery(t *testing.T) {
	s := newTestSearcher(t)
	if _, err := s.Search(context.Background(), catalog, "   ", 0, false); !errors.Is(err, ErrEmptyQuery) {
		t.Errorf("expected ErrEmptyQuery, got %v", err)
	}
}

func TestFingerprint(t *testing.T) {
	a, err := Fingerprint(catalog)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := Fingerprint(append([]models.Template{}, catalog...))
	if a != b {
		t.Error("equal catalogs should share a fingerprint")
	}
	c, _ := Fingerprint(catalog[:2])
	if a == c {
		t.Error("different catalogs should differ")
	}
}

func TestTokenizeQuery(t *testing.T) {
	got := tokenizeQuery("  Payment   TERMS ")
	if len(got) != 2 || got[0] != "payment" || got[1] != "terms" {
		t.Errorf("got %v", got)
	}
}

func TestNewMapping(t *testing.T) {
	m := newMapping()
	if m.DefaultType != docType {
		t.Errorf("DefaultType = %q, want %q", m.DefaultType, docType)
	}
	if err := m.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}
