package db

import (
	"context"

	"github.com/kailas-cloud/tripdex/internal/domain"
	"github.com/kailas-cloud/tripdex/internal/domain/point"
	"github.com/kailas-cloud/tripdex/internal/domain/search/filter"
)

// VectorStore is the point-oriented collection API shared by the Qdrant and in-memory drivers.
// Transport failures are reported as domain.ErrVectorStoreUnavailable.
//
//nolint:interfacebloat // facade; use cases depend on narrow subsets
type VectorStore interface {
	EnsureCollection(ctx context.Context, spec domain.CollectionSpec) error
	RecreateCollection(ctx context.Context, spec domain.CollectionSpec) error
	Upsert(ctx context.Context, points []point.Point) error
	Delete(ctx context.Context, ids []string) error
	// Retrieve returns domain.ErrNotFound when the point is absent.
	Retrieve(ctx context.Context, id string, withVector bool) (point.Point, error)
	Search(ctx context.Context, vector []float32, filters filter.Expression, limit int) ([]point.Scored, error)
	Info(ctx context.Context) (domain.CollectionInfo, error)
	Ping(ctx context.Context) error
	Close() error
}
