// Package extract provides format sniffing and text extraction for uploaded documents.
package extract

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
)

// Extractor converts document bytes into plain text.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractFile extracts text from an uploaded file and releases it afterwards,
// whether or not extraction succeeds. A release failure is reported only when
// extraction itself succeeded.
func (e *Extractor) ExtractFile(u *UploadedFile) (text string, err error) {
	defer func() {
		if rerr := u.Release(); rerr != nil && err == nil {
			err = rerr
		}
	}()
	content, err := os.ReadFile(u.Path)
	if err != nil {
		return "", fmt.Errorf("%w: read upload: %w", ErrIO, err)
	}
	return e.ExtractBytes(content, u.Kind())
}

// Extract reads the file at path and returns its text content. The file is left in place.
// The format is sniffed from the extension.
func (e *Extractor) Extract(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: read file: %w", ErrIO, err)
	}
	kind := Sniff(mime.TypeByExtension(filepath.Ext(path)), path)
	return e.ExtractBytes(content, kind)
}

// ExtractBytes extracts text from content according to kind.
func (e *Extractor) ExtractBytes(content []byte, kind FormatKind) (string, error) {
	switch kind {
	case FormatSpreadsheet:
		return extractExcel(content)
	case FormatPDF:
		return extractPDF(content)
	case FormatWord:
		return extractWord(content)
	case FormatPlainText:
		return extractPlain(content)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, kind)
	}
}
