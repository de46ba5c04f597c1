// Package export turns export and template download requests into rendered attachments.
package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/hyperjump/clausekit/internal/models"
	"github.com/hyperjump/clausekit/internal/render"
	"github.com/hyperjump/clausekit/internal/storage"
	"go.uber.org/zap"
)

const resultName = "result"

// Coordinator validates export requests, resolves their content, and renders them.
type Coordinator struct {
	store    storage.TemplateStore
	renderer *render.Renderer
	logger   *zap.Logger
}

// NewCoordinator returns a coordinator reading templates from store.
func NewCoordinator(store storage.TemplateStore, renderer *render.Renderer, logger *zap.Logger) *Coordinator {
	return &Coordinator{store: store, renderer: renderer, logger: logger}
}

// Result is a rendered (or, for PDF, ready to render) attachment.
type Result struct {
	Filename    string
	ContentType string

	kind     render.ExportKind
	doc      render.Document
	body     []byte
	renderer *render.Renderer
}

// parseKind maps a format name to a kind, failing with a ValidationError that also
// matches render.ErrUnsupportedKind.
func parseKind(format, message string) (render.ExportKind, error) {
	kind, err := render.ParseExportKind(format)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", models.NewValidationError("format", message), err)
	}
	return kind, nil
}

// Export renders ad-hoc content as result.<ext>.
func (c *Coordinator) Export(req models.ExportRequest) (*Result, error) {
	kind, err := parseKind(req.Format, "Invalid export format")
	if err != nil {
		return nil, err
	}
	doc := render.Document{
		Name:    resultName,
		Title:   resultName,
		Content: req.Content,
		Shape:   render.ShapeResult,
	}
	return c.prepare(kind, doc)
}

// DownloadTemplate renders the catalog template id as <id>.<ext>. A missing template
// fails with storage.ErrNotFound before the format is looked at.
func (c *Coordinator) DownloadTemplate(ctx context.Context, id, format string) (*Result, error) {
	t, err := c.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	kind, err := parseKind(format, "Invalid format")
	if err != nil {
		return nil, err
	}
	doc := render.Document{
		Name:    t.ID,
		Title:   t.Title,
		Content: t.Content,
		Shape:   render.ShapeTemplate,
	}
	return c.prepare(kind, doc)
}

// prepare renders Word and Excel documents up front so a failure can still become an
// error response. PDF is rendered while the response is written.
func (c *Coordinator) prepare(kind render.ExportKind, doc render.Document) (*Result, error) {
	res := &Result{
		Filename:    render.Filename(kind, doc.Name),
		ContentType: kind.ContentType(),
		kind:        kind,
		doc:         doc,
		renderer:    c.renderer,
	}
	if kind == render.KindPDF {
		return res, nil
	}

	var buf bytes.Buffer
	if err := c.renderer.Render(&buf, kind, doc); err != nil {
		c.logger.Error("render failed", zap.String("filename", res.Filename), zap.Error(err))
		return nil, err
	}
	res.body = buf.Bytes()
	return res, nil
}

// Streaming reports whether the document is rendered while being written.
func (r *Result) Streaming() bool {
	return r.body == nil
}

// WriteTo sends the attachment headers and the document. For a streamed document an
// error after the headers leaves a truncated body.
func (r *Result) WriteTo(w http.ResponseWriter) error {
	h := w.Header()
	h.Set("Content-Type", r.ContentType)
	h.Set("Content-Disposition", "attachment; filename="+r.Filename)
	if r.body != nil {
		h.Set("Content-Length", strconv.Itoa(len(r.body)))
	}
	w.WriteHeader(http.StatusOK)
	return r.Write(w)
}

// Write writes only the document bytes.
func (r *Result) Write(w io.Writer) error {
	if r.body != nil {
		_, err := w.Write(r.body)
		return err
	}
	return r.renderer.Render(w, r.kind, r.doc)
}
