package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/joseph-ayodele/doc-extractor/internal/common"
	"github.com/joseph-ayodele/doc-extractor/internal/ocr"
)

// runocr runs only the text-extraction stage against one file and reports
// what came out. Handy for debugging OCR quality without an LLM round trip.
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if len(os.Args) != 2 {
		logger.Error("usage", "cmd", "runocr <file>")
		os.Exit(2)
	}
	path := os.Args[1]

	cfg := common.LoadConfig()
	extractor := ocr.NewExtractor(ocr.Config{
		Tesseract:           cfg.OCR.Tesseract,
		Pdftotext:           cfg.OCR.Pdftotext,
		Pdftoppm:            cfg.OCR.Pdftoppm,
		TesseractLang:       cfg.OCR.TesseractLang,
		TessdataDir:         cfg.OCR.TessdataDir,
		DPI:                 cfg.OCR.DPI,
		MaxPages:            cfg.OCR.MaxPages,
		EnableTSVConfidence: true,
	}, nil, logger)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.OCR.Timeout)
	defer cancel()

	start := time.Now()
	res, err := extractor.Extract(ctx, path)
	dur := time.Since(start)

	if err != nil {
		logger.Error("text extraction failed",
			"path", path, "error", err, "duration_ms", dur.Milliseconds())
		os.Exit(1)
	}

	logger.Info("text extraction OK",
		"path", path,
		"method", res.Method,
		"pages", res.Pages,
		"chars", len(res.Text),
		"confidence", res.Confidence,
		"duration_ms", dur.Milliseconds(),
	)
	if _, werr := os.Stdout.WriteString(res.Text + "\n"); werr != nil {
		logger.Warn("stdout write error", "error", werr)
	}
}
