package render

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

const (
	resultSheet   = "Results"
	templateSheet = "Template"
)

// excelRows returns the sheet name and rows for doc's shape. Text longer than
// a cell can hold continues in the rows below it.
func excelRows(doc Document) (string, [][]string) {
	if doc.Shape == ShapeTemplate {
		rows := [][]string{
			{"Contract Template"},
		}
		rows = appendCell(rows, doc.Title)
		rows = append(rows, []string{}, []string{"Content"})
		for _, line := range strings.Split(doc.Content, "\n") {
			rows = appendCell(rows, line)
		}
		return templateSheet, rows
	}
	return resultSheet, appendCell([][]string{{"Result"}}, doc.Content)
}

// appendCell adds v as one row, or several when it exceeds excelize.TotalCellChars.
func appendCell(rows [][]string, v string) [][]string {
	if utf8.RuneCountInString(v) <= excelize.TotalCellChars {
		return append(rows, []string{v})
	}
	r := []rune(v)
	for len(r) > 0 {
		n := min(len(r), excelize.TotalCellChars)
		rows = append(rows, []string{string(r[:n])})
		r = r[n:]
	}
	return rows
}

func renderExcel(w io.Writer, doc Document) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet, rows := excelRows(doc)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("%w: name sheet: %w", ErrRender, err)
	}
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrRender, err)
		}
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return fmt.Errorf("%w: write row %d: %w", ErrRender, i+1, err)
		}
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("%w: write workbook: %w", ErrRender, err)
	}
	return nil
}
