package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/lu4p/cat"
)

// docxDocumentXMLPath is the default path to the main document body inside a .docx zip.
const docxDocumentXMLPath = "word/document.xml"

// contentTypesPath is the path to [Content_Types].xml in OOXML packages.
const contentTypesPath = "[Content_Types].xml"

// docxMainContentType is the content type for the main document in DOCX files.
const docxMainContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"

var rtfMagic = []byte(`{\rtf`)

// partNameRe extracts PartName from Override elements in [Content_Types].xml.
var partNameRe = regexp.MustCompile(`<Override[^>]+PartName="([^"]+)"[^>]+ContentType="` + regexp.QuoteMeta(docxMainContentType) + `"`)

// partNameRe2 handles the case where ContentType appears before PartName.
var partNameRe2 = regexp.MustCompile(`<Override[^>]+ContentType="` + regexp.QuoteMeta(docxMainContentType) + `"[^>]+PartName="([^"]+)"`)

// extractWord handles every FormatWord input. OOXML goes through the paragraph-aware
// DOCX reader; RTF and OpenDocument text go through lu4p/cat.
func extractWord(content []byte) (string, error) {
	if bytes.HasPrefix(content, rtfMagic) {
		return extractWithCat(content)
	}
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("%w: extract DOCX: not a zip: %w", ErrCorruptFile, err)
	}
	docPath := findDocxMainDocumentPath(zr)
	if docPath == "" {
		if zipFile(zr, docxDocumentXMLPath) == nil {
			return extractWithCat(content)
		}
		docPath = docxDocumentXMLPath
	}
	return extractDOCX(zr, docPath)
}

func extractWithCat(content []byte) (string, error) {
	text, err := cat.FromBytes(content)
	if err != nil {
		return "", fmt.Errorf("%w: extract word processing document: %w", ErrCorruptFile, err)
	}
	return strings.TrimSpace(text), nil
}

func zipFile(zr *zip.Reader, name string) *zip.File {
	for _, f := range zr.File {
		if f.Name == name {
			return f
		}
	}
	return nil
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(rc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// findDocxMainDocumentPath finds the main document path from [Content_Types].xml.
// Returns the path without leading slash, or empty string if not found.
func findDocxMainDocumentPath(zr *zip.Reader) string {
	f := zipFile(zr, contentTypesPath)
	if f == nil {
		return ""
	}
	data, err := readZipFile(f)
	if err != nil {
		return ""
	}
	content := string(data)
	if matches := partNameRe.FindStringSubmatch(content); len(matches) > 1 {
		return strings.TrimPrefix(matches[1], "/")
	}
	if matches := partNameRe2.FindStringSubmatch(content); len(matches) > 1 {
		return strings.TrimPrefix(matches[1], "/")
	}
	return ""
}

// extractDOCX returns the raw text of the main document part. Styling is discarded;
// paragraphs are separated by a blank line, w:br and w:cr become newlines, w:tab a tab.
func extractDOCX(zr *zip.Reader, docPath string) (string, error) {
	f := zipFile(zr, docPath)
	if f == nil {
		return "", fmt.Errorf("%w: extract DOCX: %s not found", ErrCorruptFile, docPath)
	}
	rc, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("%w: extract DOCX: open %s: %w", ErrCorruptFile, docPath, err)
	}
	defer rc.Close()
	text, err := docxText(rc)
	if err != nil {
		return "", fmt.Errorf("%w: extract DOCX: parse %s: %w", ErrCorruptFile, docPath, err)
	}
	return text, nil
}

func docxText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var (
		paragraphs []string
		cur        strings.Builder
		inText     bool
		inTabStops bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "t":
				inText = true
			case "tabs":
				inTabStops = true
			case "tab":
				if !inTabStops {
					cur.WriteByte('\t')
				}
			case "br", "cr":
				cur.WriteByte('\n')
			}
		case xml.EndElement:
			switch el.Name.Local {
			case "t":
				inText = false
			case "tabs":
				inTabStops = false
			case "p":
				paragraphs = append(paragraphs, cur.String())
				cur.Reset()
			}
		case xml.CharData:
			if inText {
				cur.Write(el)
			}
		}
	}
	if cur.Len() > 0 {
		paragraphs = append(paragraphs, cur.String())
	}
	return strings.TrimSpace(strings.Join(paragraphs, "\n\n")), nil
}
