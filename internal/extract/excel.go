package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// extractExcel serializes the first sheet of the workbook as CSV, one line per row.
func extractExcel(content []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("%w: open Excel: %w", ErrCorruptFile, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return "", fmt.Errorf("%w: get rows for sheet %q: %w", ErrCorruptFile, sheets[0], err)
	}

	// excelize drops trailing empty cells; pad so every line has the same column count.
	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	lines := make([]string, len(rows))
	record := make([]string, width)
	for i, row := range rows {
		for c := range record {
			cell := ""
			if c < len(row) {
				cell = row[c]
			}
			record[c] = csvField(cell)
		}
		lines[i] = strings.Join(record, ",")
	}
	return strings.Join(lines, "\n"), nil
}

// csvField quotes a cell only when it holds a comma, a quote or a line break.
// Leading and trailing spaces are kept as they are.
func csvField(cell string) string {
	if !strings.ContainsAny(cell, ",\"\r\n") {
		return cell
	}
	return `"` + strings.ReplaceAll(cell, `"`, `""`) + `"`
}
