package health

import (
	"context"
	"time"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates an optional component is down or the collection is not ready.
	Degraded Status = "degraded"
	// Unhealthy indicates the vector store is unreachable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
	// CheckNotReady indicates a reachable component that cannot serve yet.
	CheckNotReady CheckResult = "not_ready"
)

// Component names used as report keys.
const (
	ComponentVectorStore = "vector_store"
	ComponentCollection  = "collection"
	ComponentEmbedding   = "embedding"
	ComponentCache       = "cache"
	ComponentCatalog     = "catalog"
)

const defaultCheckTimeout = 3 * time.Second

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	vectors   Pinger
	gate      Gate
	embedding EmbeddingChecker
	cache     Pinger
	catalog   Pinger
	timeout   time.Duration
}

// New creates a Service. gate and embedding can be nil.
func New(vectors Pinger, gate Gate, embedding EmbeddingChecker) *Service {
	return &Service{vectors: vectors, gate: gate, embedding: embedding, timeout: defaultCheckTimeout}
}

// WithCache adds the optional Redis check.
func (s *Service) WithCache(p Pinger) *Service {
	s.cache = p
	return s
}

// WithCatalog adds the optional catalog database check.
func (s *Service) WithCatalog(p Pinger) *Service {
	s.catalog = p
	return s
}

// WithTimeout bounds each individual check.
func (s *Service) WithTimeout(d time.Duration) *Service {
	if d > 0 {
		s.timeout = d
	}
	return s
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	checks[ComponentVectorStore] = s.ping(ctx, s.vectors.Ping)
	if s.gate != nil {
		if s.gate.Ready() {
			checks[ComponentCollection] = CheckOK
		} else {
			checks[ComponentCollection] = CheckNotReady
		}
	}
	if s.embedding != nil {
		checks[ComponentEmbedding] = s.ping(ctx, s.embedding.HealthCheck)
	}
	if s.cache != nil {
		checks[ComponentCache] = s.ping(ctx, s.cache.Ping)
	}
	if s.catalog != nil {
		checks[ComponentCatalog] = s.ping(ctx, s.catalog.Ping)
	}

	status := Healthy
	for _, v := range checks {
		if v != CheckOK {
			status = Degraded
			break
		}
	}
	if checks[ComponentVectorStore] == CheckError {
		status = Unhealthy
	}

	return Report{Status: status, Checks: checks}
}

func (s *Service) ping(ctx context.Context, fn func(context.Context) error) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		return CheckError
	}
	return CheckOK
}
