// Package models defines core data structures for templates, uploads, and export requests.
package models

import "fmt"

// Template is a named, categorized block of reusable contract text.
// The catalog persists exactly these five fields.
type Template struct {
	ID          string `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	Category    string `json:"category" yaml:"category"`
	Content     string `json:"content" yaml:"content"`
}

// ValidationError reports a missing or malformed request field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError returns a ValidationError for field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// Validate checks that every field is non-empty.
func (t *Template) Validate() error {
	fields := []struct {
		name  string
		value string
	}{
		{"id", t.ID},
		{"title", t.Title},
		{"description", t.Description},
		{"category", t.Category},
		{"content", t.Content},
	}
	for _, f := range fields {
		if f.value == "" {
			return &ValidationError{Field: f.name, Message: "All fields are required"}
		}
	}
	return nil
}

// FindTemplate returns the first template in catalog with the given id.
func FindTemplate(catalog []Template, id string) (*Template, bool) {
	for i := range catalog {
		if catalog[i].ID == id {
			t := catalog[i]
			return &t, true
		}
	}
	return nil, false
}
