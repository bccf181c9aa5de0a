// Package extract pulls plain text out of uploaded documents, keeping enough
// page structure for chunk-level citations.
package extract

import (
	"errors"
	"path/filepath"
	"strings"
)

// ErrUnsupportedType is returned for file extensions outside SupportedTypes.
var ErrUnsupportedType = errors.New("unsupported file type")

// Page is one citable unit of a document. For PDFs it is a real page; for the
// other formats it is a pseudo-page (see the per-type extractors).
type Page struct {
	Number int
	Text   string
}

// Result is the extracted content of a document. TotalPages is the page count
// reported to the client; it usually equals len(Pages) but JSON documents
// report their top-level key count instead.
type Result struct {
	Pages      []Page
	TotalPages int
}

// SupportedTypes lists the accepted file extensions, lowercase with dot.
func SupportedTypes() []string {
	return []string{".pdf", ".docx", ".json", ".csv"}
}

// IsSupported reports whether ext (with or without leading dot, any case)
// names an accepted type.
func IsSupported(ext string) bool {
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	for _, t := range SupportedTypes() {
		if ext == t {
			return true
		}
	}
	return false
}

// File extracts text from the document at path, dispatching on its extension.
func File(path string) (*Result, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return fromPDF(path)
	case ".docx":
		return fromDOCX(path)
	case ".json":
		return fromJSON(path)
	case ".csv":
		return fromCSV(path)
	default:
		return nil, ErrUnsupportedType
	}
}

// Text joins all pages into one string, page texts separated by newlines.
func (r *Result) Text() string {
	var sb strings.Builder
	for i, p := range r.Pages {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(p.Text)
	}
	return sb.String()
}

// paginate slices text into pseudo-pages of at most pageSize runes.
func paginate(text string, pageSize int) []Page {
	runes := []rune(text)
	if len(runes) == 0 {
		return []Page{{Number: 1, Text: ""}}
	}
	var pages []Page
	for i := 0; i < len(runes); i += pageSize {
		end := i + pageSize
		if end > len(runes) {
			end = len(runes)
		}
		pages = append(pages, Page{
			Number: len(pages) + 1,
			Text:   string(runes[i:end]),
		})
	}
	return pages
}
