package convert

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// CSVConverter handles CSV files. Rows are grouped into sections holding a
// GFM table each.
type CSVConverter struct{}

const csvBatchSize = 20

func (c *CSVConverter) Convert(r io.Reader, filename string) (string, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return "", fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return "", nil
	}

	// First row is headers.
	headers := records[0]
	dataRows := records[1:]

	var out strings.Builder
	for i := 0; i < len(dataRows); i += csvBatchSize {
		end := min(i+csvBatchSize, len(dataRows))

		var table strings.Builder
		writeRow(&table, headers, len(headers))
		table.WriteString("|" + strings.Repeat(" --- |", len(headers)) + "\n")
		for _, row := range dataRows[i:end] {
			writeRow(&table, row, len(headers))
		}

		// 1-indexed, skip header
		header := fmt.Sprintf("Rows %d-%d", i+2, end+1)
		writeSection(&out, 2, header, strings.TrimRight(table.String(), "\n"))
	}
	return out.String(), nil
}

// writeRow pads or truncates cells to width columns.
func writeRow(sb *strings.Builder, cells []string, width int) {
	sb.WriteString("|")
	for j := range width {
		cell := ""
		if j < len(cells) {
			cell = strings.ReplaceAll(oneLine(cells[j]), "|", `\|`)
		}
		sb.WriteString(" " + cell + " |")
	}
	sb.WriteString("\n")
}
