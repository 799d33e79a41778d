package ocr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/doc-extractor/constants"
	"github.com/joseph-ayodele/doc-extractor/internal/common"
	"github.com/joseph-ayodele/doc-extractor/internal/extract"
)

type Config struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	TesseractLang string // default "eng"
	DPI           int    // rasterization DPI for scanned PDFs, default 300
	MaxPages      int    // 0 = no limit

	TessdataDir         string
	EnableTSVConfidence bool
}

type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

// NewExtractor builds the exec-backed text extractor. A nil runner uses the
// real binaries; tests inject a fake.
func NewExtractor(cfg Config, runner Runner, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = execRunner{}
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	return &Extractor{cfg: cfg, runner: runner, logger: logger}
}

var _ extract.TextExtractor = (*Extractor)(nil)

// Extract picks a strategy based on file extension. Unsupported extensions are
// rejected before any external command runs.
func (e *Extractor) Extract(ctx context.Context, path string) (extract.TextExtractionResult, error) {
	start := time.Now()
	ext := constants.NormalizeExt(filepath.Ext(path))
	e.logger.Debug("ocr.extract.start", "path", path, "ext", ext)

	var res extract.TextExtractionResult
	var err error
	switch constants.MapExtToFormat(ext) {
	case constants.PDF:
		res, err = e.extractPDF(ctx, path)
	case constants.IMAGE:
		res, err = e.extractImage(ctx, path)
	default:
		e.logger.Warn("ocr.extract.unsupported", "path", path, "ext", ext)
		return extract.TextExtractionResult{},
			extract.PermanentOCR(fmt.Errorf("%w: %q", common.ErrUnsupportedFormat, ext))
	}
	res.Duration = time.Since(start)
	if err != nil {
		return res, e.classify(ctx, err)
	}
	if res.Text == "" {
		// a decodable file that yields no text will not improve on retry
		return res, extract.PermanentOCR(fmt.Errorf("no text extracted from %s", path))
	}
	e.logger.Debug("ocr.extract.ok",
		"path", path,
		"method", res.Method,
		"pages", res.Pages,
		"chars", len(res.Text),
		"confidence", res.Confidence,
		"duration_ms", res.Duration.Milliseconds())
	return res, nil
}

// classify maps a raw extraction failure onto the retry taxonomy. Timeouts are
// retryable; a cancelled context propagates as-is so the caller can stop the
// whole batch; everything else (bad file, missing binary, tool exit) is final.
func (e *Extractor) classify(ctx context.Context, err error) error {
	// when the per-call deadline fires the tool is killed and the raw error
	// is an exit status ("signal: killed"), so consult the context first
	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return extract.TransientOCR(err)
		}
		return ctxErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return extract.TransientOCR(err)
	}
	if errors.Is(err, exec.ErrNotFound) {
		return extract.PermanentOCR(err)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// the tool ran and rejected the input
		return extract.PermanentOCR(err)
	}
	// I/O level failures (temp dir, spawn) may clear up
	return extract.TransientOCR(err)
}
