package render

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"time"
)

const docxContentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

const docxRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

const (
	docxBodyOpen = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p>`
	docxBodyClose = `</w:p><w:sectPr><w:pgSz w:w="11906" w:h="16838"/><w:pgMar w:top="1440" w:right="1440" w:bottom="1440" w:left="1440" w:header="708" w:footer="708" w:gutter="0"/></w:sectPr></w:body></w:document>`
)

// documentXML builds a body with exactly one paragraph holding content.
// Newlines become w:br breaks inside that paragraph.
func documentXML(content string) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(docxBodyOpen)
	buf.WriteString(`<w:r>`)
	for i, line := range strings.Split(content, "\n") {
		if i > 0 {
			buf.WriteString(`<w:br/>`)
		}
		buf.WriteString(`<w:t xml:space="preserve">`)
		if err := xml.EscapeText(&buf, []byte(strings.TrimSuffix(line, "\r"))); err != nil {
			return nil, err
		}
		buf.WriteString(`</w:t>`)
	}
	buf.WriteString(`</w:r>`)
	buf.WriteString(docxBodyClose)
	return buf.Bytes(), nil
}

func renderDOCX(w io.Writer, doc Document) error {
	body, err := documentXML(doc.Content)
	if err != nil {
		return fmt.Errorf("%w: encode DOCX body: %w", ErrRender, err)
	}
	zw := zip.NewWriter(w)
	parts := []struct {
		name string
		data []byte
	}{
		{"[Content_Types].xml", []byte(docxContentTypes)},
		{"_rels/.rels", []byte(docxRels)},
		{"word/document.xml", body},
	}
	now := time.Now()
	for _, part := range parts {
		fw, err := zw.CreateHeader(&zip.FileHeader{Name: part.name, Method: zip.Deflate, Modified: now})
		if err != nil {
			return fmt.Errorf("%w: create %s: %w", ErrRender, part.name, err)
		}
		if _, err := fw.Write(part.data); err != nil {
			return fmt.Errorf("%w: write %s: %w", ErrRender, part.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("%w: finish DOCX: %w", ErrRender, err)
	}
	return nil
}
