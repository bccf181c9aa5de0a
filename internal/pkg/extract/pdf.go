package extract

import (
	"fmt"

	"github.com/ledongthuc/pdf"
)

// fromPDF extracts text page by page so chunks can cite real page numbers.
// Pages without extractable text are kept empty rather than skipped, so page
// numbering stays aligned with the source document.
func fromPDF(path string) (*Result, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf failed: %w", err)
	}
	defer f.Close()

	total := r.NumPage()
	pages := make([]Page, 0, total)
	for i := 1; i <= total; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			pages = append(pages, Page{Number: i})
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			// A single broken page should not sink the whole document.
			pages = append(pages, Page{Number: i})
			continue
		}
		pages = append(pages, Page{Number: i, Text: text})
	}

	return &Result{Pages: pages, TotalPages: total}, nil
}
