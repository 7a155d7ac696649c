// Package search answers natural-language destination queries and
// "more like this" lookups over the vector index.
package search

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/tripdex/internal/domain"
	"github.com/kailas-cloud/tripdex/internal/domain/descriptor"
	"github.com/kailas-cloud/tripdex/internal/domain/point"
	"github.com/kailas-cloud/tripdex/internal/domain/search/request"
	"github.com/kailas-cloud/tripdex/internal/domain/search/result"
	"github.com/kailas-cloud/tripdex/internal/metrics"
)

// Search kinds, used as metric labels.
const (
	KindSemantic = "semantic"
	KindSimilar  = "similar"
)

// Response is the outcome of a semantic search.
type Response struct {
	Results       []result.Result
	Query         string
	EnrichedQuery string
	Total         int
}

// Service runs semantic and similarity searches.
type Service struct {
	store VectorStore
	embed Embedder
	gate  Gate
}

// New creates a search service. gate may be nil.
func New(store VectorStore, embed Embedder, gate Gate) *Service {
	return &Service{store: store, embed: embed, gate: gate}
}

// Search embeds the trip-type enriched query and returns the nearest
// destinations that satisfy every supplied criterion, best first.
func (s *Service) Search(ctx context.Context, query string, c request.Criteria) (resp Response, err error) {
	defer func() { observe(KindSemantic, len(resp.Results), err) }()

	req, err := request.New(query, c)
	if err != nil {
		return Response{}, err
	}
	if err := s.checkReady(); err != nil {
		return Response{}, err
	}

	enriched := descriptor.QueryText(req.Query(), req.TripType())

	emb, err := s.embed.Embed(ctx, enriched)
	if err != nil {
		return Response{}, fmt.Errorf("vectorize query: %w", err)
	}

	hits, err := s.store.Search(ctx, emb.Embedding, req.Filters(), req.Limit())
	if err != nil {
		return Response{}, fmt.Errorf("vector search: %w", err)
	}

	results := toResults(hits, "")
	return Response{
		Results:       results,
		Query:         req.Query(),
		EnrichedQuery: enriched,
		Total:         len(results),
	}, nil
}

// FindSimilar returns destinations closest to an indexed one, never including it.
func (s *Service) FindSimilar(ctx context.Context, nativeID string, limit int) (results []result.Result, err error) {
	defer func() { observe(KindSimilar, len(results), err) }()

	req, err := request.NewSimilar(nativeID, limit)
	if err != nil {
		return nil, err
	}
	if err := s.checkReady(); err != nil {
		return nil, err
	}

	src, err := s.store.Retrieve(ctx, point.ID(req.NativeID()), true)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("destination %s: %w", req.NativeID(), domain.ErrRecordNotIndexed)
		}
		return nil, fmt.Errorf("retrieve source: %w", err)
	}
	if len(src.Vector) == 0 {
		return nil, fmt.Errorf("destination %s has no vector: %w", req.NativeID(), domain.ErrRecordNotIndexed)
	}

	hits, err := s.store.Search(ctx, src.Vector, req.Filters(), req.Limit())
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	return toResults(hits, req.NativeID()), nil
}

// TripTypes returns the trip categories accepted by Search.
func (s *Service) TripTypes() []descriptor.TripType {
	return descriptor.TripTypes()
}

func (s *Service) checkReady() error {
	if s.gate != nil && !s.gate.Ready() {
		return fmt.Errorf("collection not ready: %w", domain.ErrVectorStoreUnavailable)
	}
	return nil
}

// toResults keeps store order and drops the excluded native id.
func toResults(hits []point.Scored, exclude string) []result.Result {
	out := make([]result.Result, 0, len(hits))
	for _, h := range hits {
		if exclude != "" && h.Payload.NativeID == exclude {
			continue
		}
		out = append(out, result.FromScored(h))
	}
	return out
}

func observe(kind string, n int, err error) {
	status := "success"
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		status = "invalid"
	case err != nil:
		status = "error"
	}
	metrics.SearchRequestsTotal.WithLabelValues(kind, status).Inc()
	if err == nil {
		metrics.SearchResults.WithLabelValues(kind).Observe(float64(n))
	}
}
