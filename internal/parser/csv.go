package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// CSVParser handles CSV files. Each data row becomes a list item labeled
// with its column headers; rows are grouped into batches so the splitter
// has list boundaries to break at.
type CSVParser struct{}

const csvBatchSize = 20

func (p *CSVParser) Parse(r io.Reader, filename string) (string, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return "", fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return "", nil
	}

	headers := records[0]
	dataRows := records[1:]

	var out strings.Builder
	for i := 0; i < len(dataRows); i += csvBatchSize {
		end := i + csvBatchSize
		if end > len(dataRows) {
			end = len(dataRows)
		}
		out.WriteString("<ul>")
		for _, row := range dataRows[i:end] {
			var cells []string
			for j, cell := range row {
				if j < len(headers) {
					cells = append(cells, headers[j]+": "+cell)
				} else {
					cells = append(cells, cell)
				}
			}
			out.WriteString("<li>")
			out.WriteString(html.EscapeString(strings.Join(cells, ", ")))
			out.WriteString("</li>")
		}
		out.WriteString("</ul>")
	}
	return out.String(), nil
}
