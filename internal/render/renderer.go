package render

import (
	"fmt"
	"io"
)

// Shape selects the spreadsheet layout. It has no effect on PDF or Word output.
type Shape int

const (
	// ShapeResult is an ad-hoc export: a "Result" header row and the content.
	ShapeResult Shape = iota
	// ShapeTemplate is a template download: header, title, blank row, "Content", then one row per line.
	ShapeTemplate
)

// Document is the input to a render.
type Document struct {
	Name    string
	Title   string
	Content string
	Shape   Shape
}

// Renderer writes documents in the supported export formats.
type Renderer struct {
	pdf PDFOptions
}

// PDFOptions configures PDF page setup.
type PDFOptions struct {
	PageSize string
	FontSize float64
	// FontPath is a UTF-8 TrueType font. Empty means the Helvetica core font,
	// which only covers cp1252.
	FontPath string
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithUTF8Font renders PDFs with the TrueType font at path. An empty path keeps
// the core font.
func WithUTF8Font(path string) Option {
	return func(r *Renderer) { r.pdf.FontPath = path }
}

// NewRenderer returns a Renderer with A4 pages and a 12pt font.
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{pdf: PDFOptions{PageSize: "A4", FontSize: 12}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render writes doc to w in the format kind.
func (r *Renderer) Render(w io.Writer, kind ExportKind, doc Document) error {
	switch kind {
	case KindPDF:
		return r.renderPDF(w, doc)
	case KindWord:
		return renderDOCX(w, doc)
	case KindExcel:
		return renderExcel(w, doc)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedKind, kind)
	}
}
