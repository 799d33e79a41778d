package export

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/doc-extractor/internal/entity"
)

// Service renders a batch of results as an XLSX workbook: one Results sheet
// with a row per document, one Summary sheet with the per-status counts.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// ResultsXLSX returns the workbook as bytes, ready to write wherever the
// caller wants it.
func (s *Service) ResultsXLSX(results []entity.ProcessingResult) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	const sheet = "Results"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"File Path",
		"Document Type",
		"Status",
		"Error",
		"OCR Attempts",
		"Extract Attempts",
		"Duration (ms)",
		"Structured Data",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, r := range results {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, r.SourcePath)
		write(2, string(r.DocType))
		write(3, string(r.Status))
		write(4, truncate(r.ErrorDetail, 140))
		write(5, r.OCRAttempts)
		write(6, r.ExtractAttempts)
		write(7, r.Duration.Milliseconds())
		if r.Data != nil {
			b, err := json.Marshal(r.Data)
			if err == nil {
				write(8, truncate(string(b), 500))
			}
		}
		row++
	}

	_ = f.SetColWidth(sheet, "A", "A", 60) // path
	_ = f.SetColWidth(sheet, "B", "C", 18)
	_ = f.SetColWidth(sheet, "D", "D", 48) // error
	_ = f.SetColWidth(sheet, "E", "G", 14)
	_ = f.SetColWidth(sheet, "H", "H", 80) // data

	if err := s.writeSummarySheet(f, entity.Summarize(results)); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(results),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func (s *Service) writeSummarySheet(f *excelize.File, sum entity.Summary) error {
	const sheet = "Summary"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	rows := []struct {
		label string
		count int
	}{
		{"Total", sum.Total},
		{"Success", sum.Success},
		{"OCR Failed", sum.OCRFailed},
		{"Extraction Failed", sum.ExtractionFailed},
		{"Validation Failed", sum.ValidationFailed},
		{"Cancelled", sum.Cancelled},
	}
	for i, r := range rows {
		labelCell, _ := excelize.CoordinatesToCellName(1, i+1)
		countCell, _ := excelize.CoordinatesToCellName(2, i+1)
		_ = f.SetCellValue(sheet, labelCell, r.label)
		_ = f.SetCellValue(sheet, countCell, r.count)
	}
	_ = f.SetColWidth(sheet, "A", "A", 22)
	return nil
}

// truncate caps s at n runes; the cut never splits a multi-byte character.
func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n == 1 {
		return string(r[:1])
	}
	return string(r[:n-1]) + "…"
}
