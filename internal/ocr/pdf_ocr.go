package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joseph-ayodele/doc-extractor/constants"
	"github.com/joseph-ayodele/doc-extractor/internal/extract"
)

// below this many characters per page the PDF is treated as scanned and
// sent through the raster OCR path instead
const minTextCharsPerPage = 32

func (e *Extractor) extractPDF(ctx context.Context, path string) (extract.TextExtractionResult, error) {
	text, pages, warns, err := e.pdfToText(ctx, path)
	if err == nil {
		text = Normalize(text)
		if pages > 0 && len(text) >= pages*minTextCharsPerPage {
			return extract.TextExtractionResult{
				Text:       text,
				Pages:      pages,
				SourceType: constants.PDF,
				Method:     "pdf-text",
				Language:   e.cfg.TesseractLang,
				Warnings:   warns,
				Confidence: 0.95, // embedded text layer, not decoded pixels
			}, nil
		}
		warns = append(warns, "pdf text layer too sparse, falling back to raster ocr")
	} else {
		warns = append(warns, fmt.Sprintf("pdftotext failed: %v", err))
	}
	if ctx.Err() != nil {
		return extract.TextExtractionResult{SourceType: constants.PDF, Warnings: warns}, ctx.Err()
	}

	text, pages, w2, err := e.pdfToOCR(ctx, path)
	warns = append(warns, w2...)
	if err != nil {
		return extract.TextExtractionResult{SourceType: constants.PDF, Warnings: warns}, err
	}
	text = Normalize(text)
	return extract.TextExtractionResult{
		Text:       text,
		Pages:      pages,
		SourceType: constants.PDF,
		Method:     "pdf-ocr",
		Language:   e.cfg.TesseractLang,
		Warnings:   warns,
		Confidence: heuristicConfidence(text),
	}, nil
}

func (e *Extractor) pdfToText(ctx context.Context, path string) (text string, pages int, warnings []string, err error) {
	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return "", 0, []string{string(errb)}, err
	}
	text = string(out)
	// A form-feed \f is used as page separator by default
	pages = 1 + strings.Count(text, "\f")
	return text, pages, nil, nil
}

func (e *Extractor) pdfToOCR(ctx context.Context, path string) (text string, pages int, warnings []string, err error) {
	tmpDir, err := os.MkdirTemp("", "dx-pp-*")
	if err != nil {
		return "", 0, nil, err
	}
	defer func() {
		if rmErr := os.RemoveAll(tmpDir); rmErr != nil {
			e.logger.Warn("ocr.tmpdir.cleanup_failed", "dir", tmpDir, "error", rmErr)
		}
	}()

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r 300 -png <in.pdf> <tmp/page>
	_, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm, "-r", fmt.Sprintf("%d", e.cfg.DPI), "-png", path, prefix)
	if err != nil {
		return "", 0, []string{string(errb)}, err
	}

	// collect generated pngs (prefix-1.png, prefix-2.png, ...)
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if e.cfg.MaxPages > 0 && len(matches) > e.cfg.MaxPages {
		matches = matches[:e.cfg.MaxPages]
	}
	if len(matches) == 0 {
		return "", 0, []string{"pdftoppm produced no images"}, fmt.Errorf("no pages rendered")
	}

	var b strings.Builder
	var warns []string
	for _, img := range matches {
		if ctx.Err() != nil {
			return "", 0, warns, ctx.Err()
		}
		txt, w, err := e.tesseractOCR(ctx, img)
		if err != nil {
			warns = append(warns, err.Error())
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\f\n") // keep a clear page break marker
		}
		b.WriteString(txt)
		warns = append(warns, w...)
	}
	pages = len(matches)
	return b.String(), pages, warns, nil
}
