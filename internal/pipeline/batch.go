package pipeline

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/doc-extractor/constants"
	"github.com/joseph-ayodele/doc-extractor/internal/entity"
)

// ProcessBatch runs every document through the pipeline with bounded
// concurrency and returns exactly one result per input, in input order. One
// document failing never stops the others; cancellation marks all documents
// not yet finished as cancelled.
func (p *Processor) ProcessBatch(ctx context.Context, docs []entity.InputDocument) []entity.ProcessingResult {
	results := make([]entity.ProcessingResult, len(docs))

	g := new(errgroup.Group)
	g.SetLimit(p.cfg.Workers)
	for i, doc := range docs {
		i, doc := i, doc
		g.Go(func() error {
			if ctx.Err() != nil {
				// don't start work on a dead batch, but still record the document
				res := p.cancelled(entity.ProcessingResult{
					SourcePath: doc.SourcePath,
					DocType:    doc.DocType,
				})
				res.FinishedAt = time.Now().UTC()
				p.emit(ctx, res)
				results[i] = res
				return nil
			}
			results[i] = p.ProcessDocument(ctx, doc)
			return nil
		})
	}
	_ = g.Wait() // per-document failures live in the results, never here

	summary := entity.Summarize(results)
	p.logger.Info("processor.batch.done",
		"total", summary.Total,
		"success", summary.Success,
		"ocr_failed", summary.OCRFailed,
		"extraction_failed", summary.ExtractionFailed,
		"validation_failed", summary.ValidationFailed,
		"cancelled", summary.Cancelled)
	return results
}

// statusCounts is a tiny helper for logging and tests.
func statusCounts(results []entity.ProcessingResult) map[constants.ProcessingStatus]int {
	out := make(map[constants.ProcessingStatus]int)
	for _, r := range results {
		out[r.Status]++
	}
	return out
}
