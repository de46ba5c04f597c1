// Package render converts text and templates into downloadable PDF, Word, and Excel documents.
package render

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedKind is returned for an export format outside pdf, word, and excel.
	ErrUnsupportedKind = errors.New("unsupported export format")
	// ErrRender is returned when a document fails to encode.
	ErrRender = errors.New("render failed")
)

// ExportKind is a requested output document type.
type ExportKind int

const (
	KindPDF ExportKind = iota + 1
	KindWord
	KindExcel
)

// ParseExportKind maps the wire names "pdf", "word", and "excel" to an ExportKind.
func ParseExportKind(s string) (ExportKind, error) {
	switch s {
	case "pdf":
		return KindPDF, nil
	case "word":
		return KindWord, nil
	case "excel":
		return KindExcel, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedKind, s)
	}
}

func (k ExportKind) String() string {
	switch k {
	case KindPDF:
		return "pdf"
	case KindWord:
		return "word"
	case KindExcel:
		return "excel"
	default:
		return fmt.Sprintf("ExportKind(%d)", int(k))
	}
}

// Extension returns the file extension for k, without the dot.
func (k ExportKind) Extension() string {
	switch k {
	case KindPDF:
		return "pdf"
	case KindWord:
		return "docx"
	case KindExcel:
		return "xlsx"
	default:
		return ""
	}
}

// ContentType returns the MIME type sent with a document of kind k.
func (k ExportKind) ContentType() string {
	switch k {
	case KindPDF:
		return "application/pdf"
	case KindWord:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case KindExcel:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/octet-stream"
	}
}

// Filename returns "<name>.<ext>" for kind.
func Filename(kind ExportKind, name string) string {
	return name + "." + kind.Extension()
}
