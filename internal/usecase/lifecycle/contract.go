package lifecycle

import (
	"context"

	"github.com/kailas-cloud/tripdex/internal/domain"
)

// Store is the collection management subset of the vector store.
type Store interface {
	EnsureCollection(ctx context.Context, spec domain.CollectionSpec) error
	RecreateCollection(ctx context.Context, spec domain.CollectionSpec) error
	Info(ctx context.Context) (domain.CollectionInfo, error)
}
