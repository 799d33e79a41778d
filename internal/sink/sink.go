package sink

import (
	"context"
	"errors"

	"github.com/joseph-ayodele/doc-extractor/internal/entity"
)

// Sink receives one finished ProcessingResult. Implementations must tolerate
// being called for the same document again (re-runs overwrite).
type Sink interface {
	Write(ctx context.Context, res entity.ProcessingResult) error
}

// MultiSink fans one result out to several sinks. Every sink is attempted
// even when an earlier one fails; the errors come back joined.
type MultiSink []Sink

func (m MultiSink) Write(ctx context.Context, res entity.ProcessingResult) error {
	var errs []error
	for _, s := range m {
		if err := s.Write(ctx, res); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
