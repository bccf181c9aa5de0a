package extract

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
)

// CSV rows are grouped 100 to a pseudo-page. The header row repeats at the top
// of every page so chunks stay self-describing.
const csvRowsPerPage = 100

func fromCSV(path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv failed: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv failed: %w", err)
	}
	if len(records) == 0 {
		return &Result{Pages: []Page{{Number: 1, Text: ""}}, TotalPages: 1}, nil
	}

	header := strings.Join(records[0], "\t")
	rows := records[1:]

	var pages []Page
	for i := 0; i < len(rows) || len(pages) == 0; i += csvRowsPerPage {
		end := i + csvRowsPerPage
		if end > len(rows) {
			end = len(rows)
		}
		var sb strings.Builder
		sb.WriteString(header)
		for _, row := range rows[i:end] {
			sb.WriteByte('\n')
			sb.WriteString(strings.Join(row, "\t"))
		}
		pages = append(pages, Page{Number: len(pages) + 1, Text: sb.String()})
	}

	return &Result{Pages: pages, TotalPages: len(pages)}, nil
}
