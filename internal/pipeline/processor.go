package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/doc-extractor/constants"
	"github.com/joseph-ayodele/doc-extractor/internal/entity"
	"github.com/joseph-ayodele/doc-extractor/internal/extract"
	"github.com/joseph-ayodele/doc-extractor/internal/llm"
	"github.com/joseph-ayodele/doc-extractor/internal/schema"
	"github.com/joseph-ayodele/doc-extractor/internal/sink"
	"github.com/joseph-ayodele/doc-extractor/internal/validate"
)

// Config holds the per-stage retry budgets, timeouts, and batch parallelism.
type Config struct {
	MaxOCRAttempts int
	MaxLLMAttempts int
	BackoffBase    time.Duration
	OCRTimeout     time.Duration
	LLMTimeout     time.Duration
	MaxTextChars   int
	Workers        int
}

// Processor drives one document through OCR, field extraction, and
// validation, and hands the terminal result to the sinks.
type Processor struct {
	ocr    extract.TextExtractor
	fields llm.FieldExtractor
	out    sink.Sink
	cfg    Config
	logger *slog.Logger
}

func NewProcessor(ocr extract.TextExtractor, fields llm.FieldExtractor, out sink.Sink, cfg Config, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxOCRAttempts < 1 {
		cfg.MaxOCRAttempts = 1
	}
	if cfg.MaxLLMAttempts < 1 {
		cfg.MaxLLMAttempts = 1
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Processor{ocr: ocr, fields: fields, out: out, cfg: cfg, logger: logger}
}

// ProcessDocument always returns a terminal result, never panics outward. A
// document that fails a stage is marked with that stage's status; later
// stages do not run.
func (p *Processor) ProcessDocument(ctx context.Context, doc entity.InputDocument) (res entity.ProcessingResult) {
	start := time.Now()
	res = entity.ProcessingResult{
		SourcePath: doc.SourcePath,
		DocType:    doc.DocType,
	}

	defer func() {
		res.Duration = time.Since(start)
		res.FinishedAt = time.Now().UTC()
		p.emit(ctx, res)
	}()

	if ctx.Err() != nil {
		return p.cancelled(res)
	}

	// Stage 1: OCR
	text, attempts, err := p.runOCR(ctx, doc)
	res.OCRAttempts = attempts
	if err != nil {
		if ctx.Err() != nil {
			return p.cancelled(res)
		}
		res.Status = constants.StatusOCRFailed
		res.ErrorDetail = err.Error()
		p.logger.Warn("processor.ocr.failed",
			"path", doc.SourcePath, "attempts", attempts, "error", err)
		return res
	}
	res.OCRText = text.Text
	p.logger.Info("processor.ocr.ok",
		"path", doc.SourcePath,
		"method", text.Method,
		"pages", text.Pages,
		"chars", len(text.Text),
		"attempts", attempts)

	// Stage 2: field extraction against the registered definition
	def, err := schema.Get(doc.DocType)
	if err != nil {
		res.Status = constants.StatusExtractionFailed
		res.ErrorDetail = err.Error()
		p.logger.Error("processor.schema.unknown", "path", doc.SourcePath, "doc_type", doc.DocType)
		return res
	}

	record, attempts, err := p.runExtract(ctx, doc, def, text.Text)
	res.ExtractAttempts = attempts
	if err != nil {
		if ctx.Err() != nil {
			return p.cancelled(res)
		}
		res.Status = constants.StatusExtractionFailed
		res.ErrorDetail = err.Error()
		p.logger.Warn("processor.extract.failed",
			"path", doc.SourcePath, "attempts", attempts, "error", err)
		return res
	}

	// Stage 3: validation and canonicalization
	canonical, err := validate.Validate(record, def)
	if err != nil {
		res.Status = constants.StatusValidationFailed
		res.ErrorDetail = err.Error()
		p.logger.Warn("processor.validate.failed", "path", doc.SourcePath, "error", err)
		return res
	}

	res.Status = constants.StatusSuccess
	res.Data = canonical
	p.logger.Info("processor.document.ok",
		"path", doc.SourcePath,
		"doc_type", doc.DocType,
		"duration_ms", time.Since(start).Milliseconds())
	return res
}

// runOCR retries transient failures with exponential backoff. Permanent
// failures, including unsupported formats, abort immediately.
func (p *Processor) runOCR(ctx context.Context, doc entity.InputDocument) (extract.TextExtractionResult, int, error) {
	policy := retryPolicy{MaxAttempts: p.cfg.MaxOCRAttempts, BackoffBase: p.cfg.BackoffBase}
	var lastErr error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		if err := sleep(ctx, policy.delay(attempt)); err != nil {
			return extract.TextExtractionResult{}, attempt - 1, err
		}

		octx := ctx
		var cancel context.CancelFunc
		if p.cfg.OCRTimeout > 0 {
			octx, cancel = context.WithTimeout(ctx, p.cfg.OCRTimeout)
		}
		res, err := p.ocr.Extract(octx, doc.SourcePath)
		if cancel != nil {
			cancel()
		}
		if err == nil {
			return res, attempt, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return extract.TextExtractionResult{}, attempt, ctx.Err()
		}
		if !extract.IsTransient(err) {
			return extract.TextExtractionResult{}, attempt, err
		}
		p.logger.Warn("processor.ocr.retry",
			"path", doc.SourcePath, "attempt", attempt, "error", err)
	}
	return extract.TextExtractionResult{}, policy.MaxAttempts, lastErr
}

// runExtract retries transient backend failures with backoff. Malformed model
// output gets exactly one corrective attempt with a stricter prompt; a second
// malformed response fails the stage.
func (p *Processor) runExtract(ctx context.Context, doc entity.InputDocument, def schema.Definition, text string) (map[string]any, int, error) {
	policy := retryPolicy{MaxAttempts: p.cfg.MaxLLMAttempts, BackoffBase: p.cfg.BackoffBase}
	req := llm.ExtractRequest{
		OCRText:      text,
		DocType:      doc.DocType,
		Schema:       def,
		FilenameHint: doc.Stem(),
		MaxChars:     p.cfg.MaxTextChars,
	}

	var lastErr error
	correctiveUsed := false
	attempts := 0
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		if err := sleep(ctx, policy.delay(attempt)); err != nil {
			return nil, attempts, err
		}

		lctx := ctx
		var cancel context.CancelFunc
		if p.cfg.LLMTimeout > 0 {
			lctx, cancel = context.WithTimeout(ctx, p.cfg.LLMTimeout)
		}
		record, _, err := p.fields.ExtractFields(lctx, req)
		if cancel != nil {
			cancel()
		}
		attempts++
		if err == nil {
			return record, attempts, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, attempts, ctx.Err()
		}

		switch {
		case llm.IsMalformed(err):
			if correctiveUsed {
				return nil, attempts, err
			}
			correctiveUsed = true
			req.Strict = true
			// the corrective attempt replaces this one, not a retry budget slot
			attempt--
			p.logger.Warn("processor.extract.malformed_retry",
				"path", doc.SourcePath, "error", err)
		case llm.IsTransient(err):
			p.logger.Warn("processor.extract.retry",
				"path", doc.SourcePath, "attempt", attempt, "error", err)
		default:
			return nil, attempts, err
		}
	}
	return nil, attempts, lastErr
}

func (p *Processor) cancelled(res entity.ProcessingResult) entity.ProcessingResult {
	res.Status = constants.StatusCancelled
	res.ErrorDetail = context.Canceled.Error()
	return res
}

// emit hands the result to the sinks. Sink failures are logged, never
// propagated: the pipeline outcome is decided by the stages alone.
func (p *Processor) emit(ctx context.Context, res entity.ProcessingResult) {
	if p.out == nil {
		return
	}
	// use a detached context so cancelled documents still get recorded
	wctx := context.WithoutCancel(ctx)
	if err := p.out.Write(wctx, res); err != nil {
		p.logger.Error("processor.sink.write_failed",
			"path", res.SourcePath, "status", res.Status, "error", err)
	}
}
