package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/doc-extractor/internal/entity"
)

// JSONSink writes one <stem>_result.json per document into a directory.
// Re-running the same document overwrites the previous file atomically
// (write to temp, then rename).
type JSONSink struct {
	dir    string
	logger *slog.Logger
}

func NewJSONSink(dir string, logger *slog.Logger) (*JSONSink, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir %s: %w", dir, err)
	}
	return &JSONSink{dir: dir, logger: logger}, nil
}

func (s *JSONSink) Write(ctx context.Context, res entity.ProcessingResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result for %s: %w", res.SourcePath, err)
	}

	target := filepath.Join(s.dir, resultFileName(res.SourcePath))
	tmp, err := os.CreateTemp(s.dir, ".result-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename to %s: %w", target, err)
	}

	s.logger.Debug("sink.json.written", "path", target, "status", res.Status)
	return nil
}

func resultFileName(sourcePath string) string {
	base := filepath.Base(sourcePath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return stem + "_result.json"
}
