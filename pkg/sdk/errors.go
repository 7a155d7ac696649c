package tripdex

import "github.com/kailas-cloud/tripdex/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidInput           = domain.ErrInvalidInput
	ErrNotFound               = domain.ErrNotFound
	ErrRecordNotIndexed       = domain.ErrRecordNotIndexed
	ErrEmbeddingUnavailable   = domain.ErrEmbeddingUnavailable
	ErrRateLimited            = domain.ErrRateLimited
	ErrVectorStoreUnavailable = domain.ErrVectorStoreUnavailable
)
