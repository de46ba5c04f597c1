package extract

import (
	"path/filepath"
	"strings"
)

// FormatKind classifies an inbound file for extraction.
type FormatKind int

const (
	// FormatUnknown is never produced by Sniff; ExtractBytes rejects it.
	FormatUnknown FormatKind = iota
	FormatSpreadsheet
	FormatPDF
	FormatWord
	FormatPlainText
)

const (
	mimePDF  = "application/pdf"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimeODT  = "application/vnd.oasis.opendocument.text"
	mimeRTF  = "application/rtf"
	mimeRTF2 = "text/rtf"
)

func (k FormatKind) String() string {
	switch k {
	case FormatSpreadsheet:
		return "spreadsheet"
	case FormatPDF:
		return "pdf"
	case FormatWord:
		return "word"
	case FormatPlainText:
		return "plain_text"
	default:
		return "unknown"
	}
}

// Sniff classifies a file from its declared content type and original filename.
// Checks run spreadsheet, PDF, word processing, in that order; anything else is plain text.
func Sniff(contentType, filename string) FormatKind {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	ext := strings.ToLower(filepath.Ext(filename))

	switch {
	case strings.Contains(ct, "spreadsheet") || ext == ".xlsx":
		return FormatSpreadsheet
	case ct == mimePDF || ext == ".pdf":
		return FormatPDF
	case ct == mimeDOCX || ext == ".docx",
		ct == mimeODT || ext == ".odt",
		ct == mimeRTF || ct == mimeRTF2 || ext == ".rtf":
		return FormatWord
	default:
		return FormatPlainText
	}
}
