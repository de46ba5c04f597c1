package models

import (
	"errors"
	"testing"
)

func TestTemplateValidate(t *testing.T) {
	full := Template{ID: "nda", Title: "NDA", Description: "Mutual NDA", Category: "confidentiality", Content: "The parties agree..."}
	if err := full.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	tests := []struct {
		field  string
		mutate func(*Template)
	}{
		{"id", func(t *Template) { t.ID = "" }},
		{"title", func(t *Template) { t.Title = "" }},
		{"description", func(t *Template) { t.Description = "" }},
		{"category", func(t *Template) { t.Category = "" }},
		{"content", func(t *Template) { t.Content = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			tpl := full
			tt.mutate(&tpl)
			err := tpl.Validate()
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Field != tt.field {
				t.Errorf("field: got %q, want %q", verr.Field, tt.field)
			}
		})
	}
}

func TestTemplateValidate_whitespaceIsPresent(t *testing.T) {
	tpl := Template{ID: "nda", Title: " ", Description: "d", Category: "c", Content: "\n"}
	if err := tpl.Validate(); err != nil {
		t.Errorf("whitespace-only fields are non-empty: %v", err)
	}
}

func TestFindTemplate(t *testing.T) {
	catalog := []Template{{ID: "a", Title: "A"}, {ID: "b", Title: "B"}}
	got, ok := FindTemplate(catalog, "b")
	if !ok || got.Title != "B" {
		t.Fatalf("FindTemplate(b) = %+v, %v", got, ok)
	}
	got.Title = "changed"
	if catalog[1].Title != "B" {
		t.Error("FindTemplate should return a copy")
	}
	if _, ok := FindTemplate(catalog, "B"); ok {
		t.Error("lookup must be case-sensitive")
	}
}
