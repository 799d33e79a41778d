package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/joseph-ayodele/doc-extractor/constants"
	"github.com/joseph-ayodele/doc-extractor/internal/entity"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS processing_results (
	source_path      TEXT PRIMARY KEY,
	document_type    TEXT NOT NULL,
	processing_status TEXT NOT NULL,
	structured_data  TEXT,
	extracted_text   TEXT,
	error            TEXT,
	ocr_attempts     INTEGER NOT NULL DEFAULT 0,
	extract_attempts INTEGER NOT NULL DEFAULT 0,
	duration_ms      INTEGER NOT NULL DEFAULT 0,
	finished_at      TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_results_status ON processing_results (processing_status);
`

// ResultStore persists ProcessingResults keyed by source path, so re-running
// a document replaces its previous row. Backed by SQLite for local runs or
// Postgres when the DSN says so.
type ResultStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open connects to the store. A postgres:// or postgresql:// DSN selects the
// pgx driver; anything else is treated as a SQLite path.
func Open(ctx context.Context, dsn string, logger *slog.Logger) (*ResultStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	driver := "sqlite"
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		driver = "pgx"
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s store: %w", driver, err)
	}
	s := &ResultStore{db: db, logger: logger}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	logger.Info("repository.open", "driver", driver)
	return s, nil
}

func (s *ResultStore) migrate(ctx context.Context) error {
	for _, stmt := range strings.Split(schemaSQL, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate results store: %w", err)
		}
	}
	return nil
}

func (s *ResultStore) Close() error { return s.db.Close() }

// Save upserts one result. Idempotent: saving the same result twice leaves
// one row.
func (s *ResultStore) Save(ctx context.Context, res entity.ProcessingResult) error {
	var dataJSON sql.NullString
	if res.Data != nil {
		b, err := json.Marshal(res.Data)
		if err != nil {
			return fmt.Errorf("encode structured data for %s: %w", res.SourcePath, err)
		}
		dataJSON = sql.NullString{String: string(b), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
INSERT INTO processing_results
	(source_path, document_type, processing_status, structured_data, extracted_text,
	 error, ocr_attempts, extract_attempts, duration_ms, finished_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (source_path) DO UPDATE SET
	document_type = EXCLUDED.document_type,
	processing_status = EXCLUDED.processing_status,
	structured_data = EXCLUDED.structured_data,
	extracted_text = EXCLUDED.extracted_text,
	error = EXCLUDED.error,
	ocr_attempts = EXCLUDED.ocr_attempts,
	extract_attempts = EXCLUDED.extract_attempts,
	duration_ms = EXCLUDED.duration_ms,
	finished_at = EXCLUDED.finished_at`,
		res.SourcePath, string(res.DocType), string(res.Status), dataJSON, res.OCRText,
		res.ErrorDetail, res.OCRAttempts, res.ExtractAttempts,
		res.Duration.Milliseconds(), res.FinishedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("save result for %s: %w", res.SourcePath, err)
	}
	return nil
}

// List returns every stored result ordered by source path.
func (s *ResultStore) List(ctx context.Context) ([]entity.ProcessingResult, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT source_path, document_type, processing_status, structured_data, extracted_text,
       error, ocr_attempts, extract_attempts, duration_ms, finished_at
FROM processing_results ORDER BY source_path`)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			s.logger.Warn("repository.rows.close_error", "error", cerr)
		}
	}()

	var out []entity.ProcessingResult
	for rows.Next() {
		var (
			res        entity.ProcessingResult
			docType    string
			status     string
			dataJSON   sql.NullString
			text       sql.NullString
			errDetail  sql.NullString
			durationMS int64
			finished   string
		)
		if err := rows.Scan(&res.SourcePath, &docType, &status, &dataJSON, &text,
			&errDetail, &res.OCRAttempts, &res.ExtractAttempts, &durationMS, &finished); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		res.DocType = constants.DocumentType(docType)
		res.Status = constants.ProcessingStatus(status)
		res.OCRText = text.String
		res.ErrorDetail = errDetail.String
		res.Duration = time.Duration(durationMS) * time.Millisecond
		if t, perr := time.Parse(time.RFC3339, finished); perr == nil {
			res.FinishedAt = t
		}
		if dataJSON.Valid {
			if err := json.Unmarshal([]byte(dataJSON.String), &res.Data); err != nil {
				return nil, fmt.Errorf("decode structured data for %s: %w", res.SourcePath, err)
			}
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// Summarize aggregates stored rows by status.
func (s *ResultStore) Summarize(ctx context.Context) (entity.Summary, error) {
	results, err := s.List(ctx)
	if err != nil {
		return entity.Summary{}, err
	}
	return entity.Summarize(results), nil
}
