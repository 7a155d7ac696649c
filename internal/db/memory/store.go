// Package memory is an in-process vector store with brute-force cosine search.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/kailas-cloud/tripdex/internal/db"
	"github.com/kailas-cloud/tripdex/internal/domain"
	"github.com/kailas-cloud/tripdex/internal/domain/point"
	"github.com/kailas-cloud/tripdex/internal/domain/search/filter"
)

// Compile-time check: Store implements db.VectorStore.
var _ db.VectorStore = (*Store)(nil)

// Store keeps one collection in memory. Safe for concurrent use.
type Store struct {
	mu         sync.RWMutex
	name       string
	created    bool
	vectorSize int
	points     map[string]point.Point
}

// NewStore creates an empty store. The collection must be created before use.
func NewStore(collection string) *Store {
	return &Store{name: collection, points: make(map[string]point.Point)}
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() error { return nil }

// EnsureCollection creates the collection if absent.
func (s *Store) EnsureCollection(_ context.Context, spec domain.CollectionSpec) error {
	if err := spec.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.created {
		s.created = true
		s.vectorSize = spec.VectorSize
	}
	return nil
}

// RecreateCollection drops all points and resets the vector size.
func (s *Store) RecreateCollection(_ context.Context, spec domain.CollectionSpec) error {
	if err := spec.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created = true
	s.vectorSize = spec.VectorSize
	s.points = make(map[string]point.Point)
	return nil
}

// Upsert replaces whole points by id. The batch is validated before any write.
func (s *Store) Upsert(_ context.Context, points []point.Point) error {
	if len(points) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkCreated(); err != nil {
		return err
	}
	for i := range points {
		if points[i].ID == "" {
			return fmt.Errorf("point id is required: %w", domain.ErrInvalidInput)
		}
		if len(points[i].Vector) != s.vectorSize {
			return fmt.Errorf("point %s: vector size %d, want %d: %w",
				points[i].ID, len(points[i].Vector), s.vectorSize, domain.ErrInvalidInput)
		}
	}
	for _, p := range points {
		// Stored points never alias caller slices.
		s.points[p.ID] = point.Point{
			ID:      p.ID,
			Vector:  slices.Clone(p.Vector),
			Payload: point.FromMap(p.Payload.Map()),
		}
	}
	return nil
}

// Delete removes points by id. Missing ids are ignored.
func (s *Store) Delete(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkCreated(); err != nil {
		return err
	}
	for _, id := range ids {
		delete(s.points, id)
	}
	return nil
}

// Retrieve returns a copy of the point.
func (s *Store) Retrieve(_ context.Context, id string, withVector bool) (point.Point, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkCreated(); err != nil {
		return point.Point{}, err
	}
	p, ok := s.points[id]
	if !ok {
		return point.Point{}, fmt.Errorf("point %s: %w", id, domain.ErrNotFound)
	}
	out := point.Point{ID: p.ID, Payload: point.FromMap(p.Payload.Map())}
	if withVector {
		out.Vector = slices.Clone(p.Vector)
	}
	return out, nil
}

// Search scores every matching point by cosine similarity, best first.
// Ties are broken by id so results are stable.
func (s *Store) Search(
	_ context.Context, vector []float32, filters filter.Expression, limit int,
) ([]point.Scored, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive: %w", domain.ErrInvalidInput)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkCreated(); err != nil {
		return nil, err
	}
	if len(vector) != s.vectorSize {
		return nil, fmt.Errorf("query vector size %d, want %d: %w", len(vector), s.vectorSize, domain.ErrInvalidInput)
	}

	hits := make([]point.Scored, 0, len(s.points))
	for _, p := range s.points {
		if !matches(p.Payload.Map(), filters) {
			continue
		}
		hits = append(hits, point.Scored{
			Point: point.Point{ID: p.ID, Payload: point.FromMap(p.Payload.Map())},
			Score: cosine(vector, p.Vector),
		})
	}
	slices.SortFunc(hits, func(a, b point.Scored) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// Info reports the point count. An in-memory collection is always ready once created.
func (s *Store) Info(context.Context) (domain.CollectionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkCreated(); err != nil {
		return domain.CollectionInfo{}, err
	}
	return domain.CollectionInfo{
		Name:       s.name,
		PointCount: uint64(len(s.points)),
		VectorSize: s.vectorSize,
		Distance:   domain.DistanceCosine,
		Status:     domain.CollectionReady,
	}, nil
}

func (s *Store) checkCreated() error {
	if !s.created {
		return fmt.Errorf("collection %s does not exist: %w", s.name, domain.ErrVectorStoreUnavailable)
	}
	return nil
}

func cosine(a, b []float32) float32 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
