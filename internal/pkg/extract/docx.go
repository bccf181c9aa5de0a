package extract

import (
	"fmt"
	"os"
	"strings"

	"github.com/fumiama/go-docx"
)

// DOCX files carry no page breaks we can trust, so content is paginated at
// roughly 3000 characters per pseudo-page.
const docxCharsPerPage = 3000

func fromDOCX(path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open docx failed: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat docx failed: %w", err)
	}

	doc, err := docx.Parse(f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("parse docx failed: %w", err)
	}

	var sb strings.Builder
	for _, item := range doc.Document.Body.Items {
		switch item.(type) {
		case *docx.Paragraph, *docx.Table:
			sb.WriteString(fmt.Sprint(item))
			sb.WriteByte('\n')
		}
	}

	pages := paginate(sb.String(), docxCharsPerPage)
	return &Result{Pages: pages, TotalPages: len(pages)}, nil
}
