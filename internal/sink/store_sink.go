package sink

import (
	"context"

	"github.com/joseph-ayodele/doc-extractor/internal/entity"
	"github.com/joseph-ayodele/doc-extractor/internal/repository"
)

// StoreSink persists results into the database-backed result store.
type StoreSink struct {
	store *repository.ResultStore
}

func NewStoreSink(store *repository.ResultStore) *StoreSink {
	return &StoreSink{store: store}
}

func (s *StoreSink) Write(ctx context.Context, res entity.ProcessingResult) error {
	return s.store.Save(ctx, res)
}
