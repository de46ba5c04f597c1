package extract

import (
	"archive/zip"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"
)

func TestExtractBytes_plain(t *testing.T) {
	e := NewExtractor()
	got, err := e.ExtractBytes([]byte("Hello world\nLine 2"), FormatPlainText)
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "Hello world\nLine 2" {
		t.Errorf("got %q", got)
	}
}

func TestExtractBytes_plainInvalidUTF8(t *testing.T) {
	e := NewExtractor()
	got, err := e.ExtractBytes([]byte("hello\x80world"), FormatPlainText)
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "hello�world" {
		t.Errorf("got %q", got)
	}
}

func TestExtractBytes_unknownKind(t *testing.T) {
	e := NewExtractor()
	_, err := e.ExtractBytes([]byte("x"), FormatUnknown)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func workbookBytes(t *testing.T, sheets map[string][][]string, order []string) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, name := range order {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				t.Fatal(err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			t.Fatal(err)
		}
		for r, row := range sheets[name] {
			for c, v := range row {
				cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
				if err := f.SetCellValue(name, cell, v); err != nil {
					t.Fatal(err)
				}
			}
		}
	}
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	return buf.Bytes()
}

func TestExtractBytes_excelFirstSheetAsCSV(t *testing.T) {
	content := workbookBytes(t, map[string][][]string{
		"Data":  {{"A", "B"}, {"1", "2"}},
		"Other": {{"ignored"}},
	}, []string{"Data", "Other"})

	got, err := NewExtractor().ExtractBytes(content, FormatSpreadsheet)
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "A,B\n1,2" {
		t.Errorf("got %q", got)
	}
}

func TestExtractBytes_excelRaggedRowsAndQuoting(t *testing.T) {
	content := workbookBytes(t, map[string][][]string{
		"Sheet": {{"name", "note", "amount"}, {"Acme, Inc.", "net 30"}},
	}, []string{"Sheet"})

	got, err := NewExtractor().ExtractBytes(content, FormatSpreadsheet)
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	want := "name,note,amount\n\"Acme, Inc.\",net 30,"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestExtractBytes_excelKeepsSpacesUnquoted(t *testing.T) {
	content := workbookBytes(t, map[string][][]string{
		"Sheet": {{" a", "b "}, {`say "hi"`, "x"}},
	}, []string{"Sheet"})

	got, err := NewExtractor().ExtractBytes(content, FormatSpreadsheet)
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	want := " a,b \n\"say \"\"hi\"\"\",x"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestExtractBytes_excelCorrupt(t *testing.T) {
	_, err := NewExtractor().ExtractBytes([]byte("not a workbook"), FormatSpreadsheet)
	if !errors.Is(err, ErrCorruptFile) {
		t.Errorf("expected ErrCorruptFile, got %v", err)
	}
}

// minimalDocx returns .docx zip bytes whose word/document.xml holds one paragraph per entry.
func minimalDocx(paragraphs ...string) []byte {
	var body strings.Builder
	for _, p := range paragraphs {
		body.WriteString(`<w:p w:rsidR="00AB12CD"><w:pPr><w:tabs><w:tab w:val="left" w:pos="720"/></w:tabs></w:pPr><w:r><w:t xml:space="preserve">` + p + `</w:t></w:r></w:p>`)
	}
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	fw, _ := w.Create("word/document.xml")
	_, _ = fw.Write([]byte(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` + body.String() + `</w:body></w:document>`))
	_ = w.Close()
	return buf.Bytes()
}

func TestExtractBytes_docxParagraphs(t *testing.T) {
	got, err := NewExtractor().ExtractBytes(minimalDocx("Clause 1. Term", "Clause 2. Payment"), FormatWord)
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "Clause 1. Term\n\nClause 2. Payment" {
		t.Errorf("got %q", got)
	}
}

func TestExtractBytes_docxBreaksAndTabs(t *testing.T) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	fw, _ := w.Create("word/document.xml")
	_, _ = fw.Write([]byte(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p><w:r><w:t>Name:</w:t><w:tab/><w:t>Acme</w:t><w:br/><w:t>Date:</w:t></w:r></w:p></w:body></w:document>`))
	_ = w.Close()

	got, err := NewExtractor().ExtractBytes(buf.Bytes(), FormatWord)
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "Name:\tAcme\nDate:" {
		t.Errorf("got %q", got)
	}
}

func TestExtractBytes_docxContentTypesOverride(t *testing.T) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	ct, _ := w.Create("[Content_Types].xml")
	_, _ = ct.Write([]byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Override ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml" PartName="/word/document2.xml"/>
</Types>`))
	fw, _ := w.Create("word/document2.xml")
	_, _ = fw.Write([]byte(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p><w:r><w:t>From document2</w:t></w:r></w:p></w:body></w:document>`))
	_ = w.Close()

	got, err := NewExtractor().ExtractBytes(buf.Bytes(), FormatWord)
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "From document2" {
		t.Errorf("got %q", got)
	}
}

func TestExtractBytes_docxNotZip(t *testing.T) {
	_, err := NewExtractor().ExtractBytes([]byte("plainly not a zip"), FormatWord)
	if !errors.Is(err, ErrCorruptFile) {
		t.Errorf("expected ErrCorruptFile, got %v", err)
	}
}

func TestExtractBytes_pdf(t *testing.T) {
	doc := gofpdf.New("P", "mm", "A4", "")
	doc.AddPage()
	doc.SetFont("Helvetica", "", 12)
	doc.Cell(40, 10, "Governing law")
	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		t.Fatal(err)
	}

	got, err := NewExtractor().ExtractBytes(buf.Bytes(), FormatPDF)
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if !strings.Contains(got, "Governing") {
		t.Errorf("got %q", got)
	}
}

func TestExtractBytes_pdfCorrupt(t *testing.T) {
	_, err := NewExtractor().ExtractBytes([]byte("%PDF-1.4 garbage"), FormatPDF)
	if !errors.Is(err, ErrCorruptFile) {
		t.Errorf("expected ErrCorruptFile, got %v", err)
	}
}

func TestExtract_pathUsesExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.xlsx")
	if err := os.WriteFile(path, workbookBytes(t, map[string][][]string{"S": {{"x", "y"}}}, []string{"S"}), 0600); err != nil {
		t.Fatal(err)
	}
	got, err := NewExtractor().Extract(path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got != "x,y" {
		t.Errorf("got %q", got)
	}
	if _, err := os.Stat(path); err != nil {
		t.Error("Extract must not remove the source file")
	}
}

func TestExtract_nonexistent(t *testing.T) {
	_, err := NewExtractor().Extract("/nonexistent/path/file.txt")
	if !errors.Is(err, ErrIO) {
		t.Errorf("expected ErrIO, got %v", err)
	}
}

func TestExtractFile_releasesOnSuccess(t *testing.T) {
	dir := t.TempDir()
	u, err := SaveUpload(dir, strings.NewReader("some clause"), "clause.txt", "text/plain")
	if err != nil {
		t.Fatal(err)
	}
	got, err := NewExtractor().ExtractFile(u)
	if err != nil {
		t.Fatalf("ExtractFile: %v", err)
	}
	if got != "some clause" {
		t.Errorf("got %q", got)
	}
	assertEmptyDir(t, dir)
}

func TestExtractFile_releasesOnFailure(t *testing.T) {
	dir := t.TempDir()
	u, err := SaveUpload(dir, strings.NewReader("not a pdf"), "broken.pdf", "application/pdf")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewExtractor().ExtractFile(u); !errors.Is(err, ErrCorruptFile) {
		t.Fatalf("expected ErrCorruptFile, got %v", err)
	}
	assertEmptyDir(t, dir)
}

func TestUploadedFile_releaseTwice(t *testing.T) {
	u, err := SaveUpload(t.TempDir(), strings.NewReader("x"), "x.txt", "")
	if err != nil {
		t.Fatal(err)
	}
	if u.Size != 1 {
		t.Errorf("Size = %d", u.Size)
	}
	if err := u.Release(); err != nil {
		t.Fatal(err)
	}
	if err := u.Release(); err != nil {
		t.Errorf("second Release: %v", err)
	}
}

func assertEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("expected %s to be empty, found %d entries", dir, len(entries))
	}
}
