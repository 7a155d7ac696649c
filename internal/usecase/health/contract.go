package health

import "context"

// Pinger checks a backing store's availability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}

// Gate reports whether the collection can serve queries.
type Gate interface {
	Ready() bool
}
