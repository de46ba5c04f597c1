package render

import (
	"fmt"
	"io"
	"os"

	"github.com/jung-kurt/gofpdf"
)

const (
	pdfMarginMM    = 20
	utf8FontFamily = "body"
)

// renderPDF lays the content out as one flowing text block and writes the
// finished document to w as it is serialized.
func (r *Renderer) renderPDF(w io.Writer, doc Document) error {
	p := gofpdf.New("P", "mm", r.pdf.PageSize, "")
	p.SetMargins(pdfMarginMM, pdfMarginMM, pdfMarginMM)
	p.SetAutoPageBreak(true, pdfMarginMM)
	p.SetTitle(doc.Name, true)
	p.AddPage()
	text := doc.Content
	if r.pdf.FontPath != "" {
		font, err := os.ReadFile(r.pdf.FontPath)
		if err != nil {
			return fmt.Errorf("%w: read PDF font: %w", ErrRender, err)
		}
		p.AddUTF8FontFromBytes(utf8FontFamily, "", font)
		p.SetFont(utf8FontFamily, "", r.pdf.FontSize)
	} else {
		// Core fonts are cp1252. Characters outside it print as '.'.
		p.SetFont("Helvetica", "", r.pdf.FontSize)
		text = p.UnicodeTranslatorFromDescriptor("")(text)
	}
	lineHeight := r.pdf.FontSize * 0.5
	p.MultiCell(0, lineHeight, text, "", "L", false)

	if err := p.Error(); err != nil {
		return fmt.Errorf("%w: layout PDF: %w", ErrRender, err)
	}
	if err := p.Output(w); err != nil {
		return fmt.Errorf("%w: write PDF: %w", ErrRender, err)
	}
	return nil
}
