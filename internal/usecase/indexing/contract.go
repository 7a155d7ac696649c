package indexing

import (
	"context"
	"time"

	"github.com/kailas-cloud/tripdex/internal/domain"
	"github.com/kailas-cloud/tripdex/internal/domain/destination"
	"github.com/kailas-cloud/tripdex/internal/domain/point"
)

// VectorStore is the write subset of the vector store.
type VectorStore interface {
	Upsert(ctx context.Context, points []point.Point) error
	Delete(ctx context.Context, ids []string) error
}

// Collection is the lifecycle gate and the destructive rebuild used by ReindexAll.
type Collection interface {
	Ready() bool
	Recreate(ctx context.Context) error
}

// CatalogReader reads source records. Get returns domain.ErrNotFound for unknown ids.
type CatalogReader interface {
	Get(ctx context.Context, id string) (destination.Record, error)
	List(ctx context.Context, afterID string, limit int) ([]destination.Record, error)
}

// RetryQueue schedules native ids for a later healing attempt.
type RetryQueue interface {
	Schedule(ctx context.Context, nativeID, reason string) (time.Time, error)
	Due(ctx context.Context, limit int) ([]domain.RetryEntry, error)
	// Done clears a due entry unless the id was rescheduled since.
	Done(ctx context.Context, e domain.RetryEntry) error
}

// Indexer is the synchronous pipeline the dispatcher and healer drive.
type Indexer interface {
	IndexOne(ctx context.Context, rec destination.Record) error
	Remove(ctx context.Context, nativeID string) error
}
