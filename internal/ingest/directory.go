package ingest

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joseph-ayodele/doc-extractor/constants"
	"github.com/joseph-ayodele/doc-extractor/internal/entity"
)

// ScanDirectory collects every regular file directly under dir as input for
// one document type. Hidden files are skipped; unsupported extensions are NOT
// filtered here, they flow through so the batch reports them as OCR failures
// instead of silently ignoring them. Output is sorted by path for
// deterministic batch order.
func ScanDirectory(dir string, docType constants.DocumentType, logger *slog.Logger) ([]entity.InputDocument, error) {
	if logger == nil {
		logger = slog.Default()
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}

	var docs []entity.InputDocument
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if !e.Type().IsRegular() {
			continue
		}
		docs = append(docs, entity.NewInputDocument(filepath.Join(dir, e.Name()), docType))
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].SourcePath < docs[j].SourcePath })

	logger.Info("ingest.scan.done", "dir", dir, "doc_type", docType, "files", len(docs))
	return docs, nil
}

// ScanTypedTree walks a base directory laid out with one subdirectory per
// document type (driving_license/, shop_receipts/, resumes/) and gathers
// inputs from each that exists. A missing subdirectory is skipped, not an
// error.
func ScanTypedTree(base string, logger *slog.Logger) ([]entity.InputDocument, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var docs []entity.InputDocument
	for _, t := range constants.AllDocumentTypes {
		dir := filepath.Join(base, t.Folder())
		st, err := os.Stat(dir)
		if err != nil {
			if os.IsNotExist(err) {
				logger.Debug("ingest.scan.skip_missing", "dir", dir, "doc_type", t)
				continue
			}
			return nil, fmt.Errorf("stat %s: %w", dir, err)
		}
		if !st.IsDir() {
			continue
		}
		part, err := ScanDirectory(dir, t, logger)
		if err != nil {
			return nil, err
		}
		docs = append(docs, part...)
	}
	return docs, nil
}
