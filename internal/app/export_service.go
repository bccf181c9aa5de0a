package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"docassist/internal/model"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported export format")
	ErrBadExportName     = errors.New("invalid export file name")
)

// exchange is one question/answer pair rendered into an export.
type exchange struct {
	userMessage string
	response    string
	sources     []model.Source
}

// ExportService renders conversation histories to downloadable TXT or PDF
// files under the export directory.
type ExportService struct {
	exportDir string
	now       func() time.Time
}

func NewExportService(exportDir string) *ExportService {
	return &ExportService{exportDir: exportDir, now: time.Now}
}

// Export writes the conversation to a file named
// chat_export_<conversation_id>_<timestamp>.<format> and returns the file
// name.
func (s *ExportService) Export(convUID string, turns []model.Turn, format string) (string, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format != "txt" && format != "pdf" {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	if err := os.MkdirAll(s.exportDir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir failed: %w", err)
	}

	fileName := fmt.Sprintf("chat_export_%s_%s.%s", convUID, s.now().Format("20060102_150405"), format)
	path := filepath.Join(s.exportDir, fileName)

	exchanges := pairTurns(turns)
	var err error
	switch format {
	case "txt":
		err = writeTXT(path, exchanges)
	case "pdf":
		err = s.writePDF(path, exchanges)
	}
	if err != nil {
		return "", err
	}
	return fileName, nil
}

// ResolvePath maps an exported file name to its on-disk path, rejecting
// anything that would escape the export directory.
func (s *ExportService) ResolvePath(fileName string) (string, error) {
	if fileName == "" || fileName != filepath.Base(fileName) || strings.HasPrefix(fileName, ".") {
		return "", ErrBadExportName
	}
	return filepath.Join(s.exportDir, fileName), nil
}

// pairTurns folds the turn list into question/answer exchanges. An assistant
// turn closes the pending user turn; consecutive user turns keep the latest.
func pairTurns(turns []model.Turn) []exchange {
	var exchanges []exchange
	var pendingUser string
	for _, t := range turns {
		switch t.Role {
		case "user":
			pendingUser = t.Content
		case "assistant":
			exchanges = append(exchanges, exchange{
				userMessage: pendingUser,
				response:    t.Content,
				sources:     t.Sources(),
			})
			pendingUser = ""
		}
	}
	return exchanges
}

func writeTXT(path string, exchanges []exchange) error {
	var sb strings.Builder
	for _, ex := range exchanges {
		sb.WriteString("User: " + ex.userMessage + "\n\n")
		sb.WriteString("Assistant: " + ex.response + "\n")
		if len(ex.sources) > 0 {
			sb.WriteString("\nSources:\n")
			for _, src := range ex.sources {
				sb.WriteString(fmt.Sprintf("- %s (Page %d)\n", src.DocumentName, src.PageNumber))
			}
		}
		sb.WriteString("\n" + strings.Repeat("-", 80) + "\n\n")
	}
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("write txt export failed: %w", err)
	}
	return nil
}

func (s *ExportService) writePDF(path string, exchanges []exchange) error {
	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetMargins(25, 25, 25)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(0, 10, "Chat Export", "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, "Exported on: "+s.now().Format("2006-01-02 15:04:05"), "", 1, "L", false, 0, "")
	pdf.Ln(6)

	for _, ex := range exchanges {
		pdf.SetFont("Helvetica", "", 11)
		pdf.SetTextColor(25, 118, 210)
		pdf.MultiCell(0, 5.5, tr("User: "+ex.userMessage), "", "L", false)
		pdf.Ln(2)

		pdf.SetTextColor(51, 51, 51)
		pdf.MultiCell(0, 5.5, tr("Assistant: "+ex.response), "", "L", false)

		if len(ex.sources) > 0 {
			pdf.SetFont("Helvetica", "", 8)
			pdf.SetTextColor(128, 128, 128)
			pdf.SetLeftMargin(32)
			pdf.MultiCell(0, 4.5, "Sources:", "", "L", false)
			for _, src := range ex.sources {
				pdf.MultiCell(0, 4.5, tr(fmt.Sprintf("- %s (Page %d)", src.DocumentName, src.PageNumber)), "", "L", false)
			}
			pdf.SetLeftMargin(25)
		}
		pdf.Ln(6)
	}

	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("write pdf export failed: %w", err)
	}
	return nil
}
