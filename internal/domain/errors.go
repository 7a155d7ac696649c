package domain

import "errors"

var (
	// ErrInvalidInput signals a request rejected before any external call.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound signals a missing catalog record.
	ErrNotFound = errors.New("not found")
	// ErrRecordNotIndexed signals a native id without a vector point.
	ErrRecordNotIndexed = errors.New("record not indexed")

	// ErrEmbeddingUnavailable signals a transient embedding provider failure.
	ErrEmbeddingUnavailable = errors.New("embedding unavailable")
	// ErrRateLimited signals the local embedding rate limit was hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrVectorStoreUnavailable signals a vector store connectivity or readiness failure.
	ErrVectorStoreUnavailable = errors.New("vector store unavailable")
	// ErrCatalogUnavailable signals the catalog reader is not configured or unreachable.
	ErrCatalogUnavailable = errors.New("catalog unavailable")
)

// IsTransient reports whether err is worth retrying later.
func IsTransient(err error) bool {
	return errors.Is(err, ErrEmbeddingUnavailable) ||
		errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrVectorStoreUnavailable) ||
		errors.Is(err, ErrCatalogUnavailable)
}
