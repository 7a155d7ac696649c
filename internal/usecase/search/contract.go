package search

import (
	"context"

	"github.com/kailas-cloud/tripdex/internal/domain"
	"github.com/kailas-cloud/tripdex/internal/domain/point"
	"github.com/kailas-cloud/tripdex/internal/domain/search/filter"
)

// VectorStore is the read subset of the vector store.
type VectorStore interface {
	// Retrieve returns domain.ErrNotFound when the point is absent.
	Retrieve(ctx context.Context, id string, withVector bool) (point.Point, error)
	Search(ctx context.Context, vector []float32, filters filter.Expression, limit int) ([]point.Scored, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Gate reports whether the collection can serve queries.
type Gate interface {
	Ready() bool
}
