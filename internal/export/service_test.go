package export

import (
	"bytes"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/doc-extractor/constants"
	"github.com/joseph-ayodele/doc-extractor/internal/entity"
)

func exportResults() []entity.ProcessingResult {
	return []entity.ProcessingResult{
		{
			SourcePath:      "/in/shop_receipts/r1.jpg",
			DocType:         constants.ShopReceipt,
			Data:            map[string]any{"merchant_name": "Corner Store", "total_amount": "12.50"},
			Status:          constants.StatusSuccess,
			OCRAttempts:     1,
			ExtractAttempts: 1,
			Duration:        1200 * time.Millisecond,
		},
		{
			SourcePath:  "/in/driving_license/dl1.pdf",
			DocType:     constants.DrivingLicense,
			Status:      constants.StatusOCRFailed,
			ErrorDetail: "ocr permanent: corrupt file",
			OCRAttempts: 1,
		},
	}
}

func TestResultsXLSX(t *testing.T) {
	svc := NewService(nil)

	data, err := svc.ResultsXLSX(exportResults())
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows("Results")
	require.NoError(t, err)
	require.Len(t, rows, 3) // header + one row per result

	require.Equal(t, "File Path", rows[0][0])
	require.Equal(t, "Status", rows[0][2])
	require.Equal(t, "Structured Data", rows[0][7])

	require.Equal(t, "/in/shop_receipts/r1.jpg", rows[1][0])
	require.Equal(t, "shop_receipt", rows[1][1])
	require.Equal(t, "success", rows[1][2])
	require.Equal(t, "1200", rows[1][6])
	require.Contains(t, rows[1][7], `"total_amount":"12.50"`)

	require.Equal(t, "ocr_failed", rows[2][2])
	require.Equal(t, "ocr permanent: corrupt file", rows[2][3])
	// no structured data column for a failed document
	require.LessOrEqual(t, len(rows[2]), 7)
}

func TestResultsXLSXSummarySheet(t *testing.T) {
	svc := NewService(nil)

	data, err := svc.ResultsXLSX(exportResults())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows("Summary")
	require.NoError(t, err)
	require.Len(t, rows, 6)
	require.Equal(t, []string{"Total", "2"}, rows[0][:2])
	require.Equal(t, []string{"Success", "1"}, rows[1][:2])
	require.Equal(t, []string{"OCR Failed", "1"}, rows[2][:2])
}

func TestResultsXLSXEmpty(t *testing.T) {
	svc := NewService(nil)

	data, err := svc.ResultsXLSX(nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows("Results")
	require.NoError(t, err)
	require.Len(t, rows, 1) // header only
}

func TestTruncate(t *testing.T) {
	require.Equal(t, "abc", truncate("abc", 10))
	require.Equal(t, "abc", truncate("abc", 0))
	long := strings.Repeat("x", 200)
	got := truncate(long, 140)
	require.Len(t, []rune(got), 140)
	require.True(t, strings.HasSuffix(got, "…"))

	// multi-byte text stays valid UTF-8 at the cut
	accented := strings.Repeat("é", 200)
	got = truncate(accented, 140)
	require.True(t, utf8.ValidString(got))
	require.Len(t, []rune(got), 140)
	require.True(t, strings.HasSuffix(got, "…"))
}
