// Package cli provides output and argument helpers for the clausekit command.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/clausekit/internal/models"
	"github.com/hyperjump/clausekit/pkg/utils"
)

// OutputFormat is the format for template listings.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is the catalog as JSON, the same shape GET /templates returns.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat accepts "text" or "json".
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case OutputText, OutputJSON:
		return OutputFormat(s), nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text or json)", s)
	}
}

// WriteTemplates writes templates to w in the given format.
func WriteTemplates(w io.Writer, templates []models.Template, format OutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(templates)
	default:
		writeTemplatesText(w, templates)
		return nil
	}
}

func writeTemplatesText(w io.Writer, templates []models.Template) {
	fmt.Fprintf(w, "%d templates\n\n", len(templates))
	for _, t := range templates {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "ID: %s\n", t.ID)
		fmt.Fprintf(w, "Title: %s [%s]\n", t.Title, t.Category)
		if t.Description != "" {
			fmt.Fprintf(w, "%s\n", t.Description)
		}
		fmt.Fprintf(w, "\n%s\n\n", utils.Preview(t.Content, 120))
	}
}

// ReorderArgs moves flags that follow positional arguments to the front so the
// flag package sees them, e.g. "render hello -format pdf".
func ReorderArgs(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

// JoinArgs joins positional arguments with spaces and trims the result.
func JoinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}
