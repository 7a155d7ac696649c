package search

import (
	"context"
	"hash/fnv"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/tripdex/internal/db/memory"
	"github.com/kailas-cloud/tripdex/internal/domain"
	"github.com/kailas-cloud/tripdex/internal/domain/destination"
	"github.com/kailas-cloud/tripdex/internal/usecase/indexing"
	"github.com/kailas-cloud/tripdex/internal/usecase/lifecycle"
)

const testDims = 16

// wordEmbedder hashes words into buckets. Texts sharing words get similar vectors.
type wordEmbedder struct {
	mu    sync.Mutex
	err   error
	texts []string
}

func (e *wordEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.texts = append(e.texts, text)
	if e.err != nil {
		return domain.EmbeddingResult{}, e.err
	}
	v := make([]float32, testDims)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(strings.Trim(w, ".,:")))
		v[h.Sum32()%testDims]++
	}
	return domain.EmbeddingResult{Embedding: v}, nil
}

func (e *wordEmbedder) calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.texts)
}

type env struct {
	store    *memory.Store
	gate     *lifecycle.Manager
	embedder *wordEmbedder
	indexer  *indexing.Service
	svc      *Service
}

func newEnv(t *testing.T, recs ...destination.Record) *env {
	t.Helper()
	store := memory.NewStore("destinations")
	gate := lifecycle.New(store, testDims, zap.NewNop())
	if err := gate.EnsureReady(context.Background()); err != nil {
		t.Fatalf("ensure ready: %v", err)
	}
	emb := &wordEmbedder{}
	idx := indexing.New(store, emb, gate, zap.NewNop())
	if len(recs) > 0 {
		if _, err := idx.IndexBatch(context.Background(), recs); err != nil {
			t.Fatalf("index: %v", err)
		}
	}
	emb.texts = nil
	return &env{store: store, gate: gate, embedder: emb, indexer: idx, svc: New(store, emb, gate)}
}

func greece() []destination.Record {
	return []destination.Record{
		{
			ID: "A", Name: "Navagio Beach", City: "Zakynthos", Country: "Greece",
			Description: "quiet beach with turquoise water", Price: 890,
			TripTypes: []string{"playa"}, Rating: 4.7, Available: true,
			Location: &destination.Location{Lat: 37.8597, Lon: 20.6244},
		},
		{
			ID: "B", Name: "Acropolis", City: "Athens", Country: "Greece",
			Description: "ancient temples and museums", Price: 780,
			TripTypes: []string{"historia"}, Rating: 4.9, Available: true,
			Location: &destination.Location{Lat: 37.9715, Lon: 23.7257},
		},
		{
			ID: "C", Name: "Mykonos", City: "Mykonos", Country: "Greece",
			Description: "beach clubs and sunsets", Price: 1500,
			TripTypes: []string{"playa"}, Rating: 4.5, Available: true,
			Location: &destination.Location{Lat: 37.4467, Lon: 25.3289},
		},
	}
}

func ptr[T any](v T) *T { return &v }
