package indexing

import (
	"context"
	"fmt"
	"hash/fnv"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/tripdex/internal/db/memory"
	"github.com/kailas-cloud/tripdex/internal/domain"
	"github.com/kailas-cloud/tripdex/internal/domain/destination"
	"github.com/kailas-cloud/tripdex/internal/usecase/lifecycle"
)

const testDims = 8

// wordEmbedder hashes words into a fixed number of buckets. Deterministic.
type wordEmbedder struct {
	mu         sync.Mutex
	err        error
	short      bool // return one embedding too few from BatchEmbed
	calls      int
	batchCalls int
}

func (e *wordEmbedder) vector(text string) []float32 {
	v := make([]float32, testDims)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(strings.Trim(w, ".,:")))
		v[h.Sum32()%testDims]++
	}
	return v
}

func (e *wordEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	if e.err != nil {
		return domain.EmbeddingResult{}, e.err
	}
	return domain.EmbeddingResult{Embedding: e.vector(text), TotalTokens: 1}, nil
}

func (e *wordEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.batchCalls++
	if e.err != nil {
		return domain.BatchEmbeddingResult{}, e.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.vector(t)
	}
	if e.short {
		out = out[:len(out)-1]
	}
	return domain.BatchEmbeddingResult{Embeddings: out, TotalTokens: len(texts)}, nil
}

// fakeCatalog is a map-backed catalog with keyset listing.
type fakeCatalog struct {
	mu      sync.Mutex
	records map[string]destination.Record
	listErr error
	getErr  error
	// listing, when set, is signaled on the first List call and List waits for release.
	listing chan struct{}
	release chan struct{}
}

func newFakeCatalog(recs ...destination.Record) *fakeCatalog {
	c := &fakeCatalog{records: map[string]destination.Record{}}
	for _, r := range recs {
		c.records[r.ID] = r
	}
	return c
}

func (c *fakeCatalog) Get(_ context.Context, id string) (destination.Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return destination.Record{}, c.getErr
	}
	r, ok := c.records[id]
	if !ok {
		return destination.Record{}, fmt.Errorf("destination %s: %w", id, domain.ErrNotFound)
	}
	return r, nil
}

func (c *fakeCatalog) List(_ context.Context, afterID string, limit int) ([]destination.Record, error) {
	if c.listing != nil {
		select {
		case c.listing <- struct{}{}:
		default:
		}
		<-c.release
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.listErr != nil {
		return nil, c.listErr
	}
	ids := make([]string, 0, len(c.records))
	for id := range c.records {
		if id > afterID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	if len(ids) > limit {
		ids = ids[:limit]
	}
	out := make([]destination.Record, len(ids))
	for i, id := range ids {
		out[i] = c.records[id]
	}
	return out, nil
}

// fakeRetry records scheduled ids.
type fakeRetry struct {
	mu        sync.Mutex
	scheduled map[string][]string // id -> reasons
	due       []domain.RetryEntry
	done      []string
	err       error
}

func newFakeRetry() *fakeRetry {
	return &fakeRetry{scheduled: map[string][]string{}}
}

func (r *fakeRetry) Schedule(_ context.Context, id, reason string) (time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return time.Time{}, r.err
	}
	r.scheduled[id] = append(r.scheduled[id], reason)
	return time.Now(), nil
}

func (r *fakeRetry) Due(_ context.Context, limit int) ([]domain.RetryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	if len(r.due) > limit {
		return r.due[:limit], nil
	}
	return r.due, nil
}

func (r *fakeRetry) Done(_ context.Context, e domain.RetryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.done = append(r.done, e.NativeID)
	return nil
}

func dueEntries(ids ...string) []domain.RetryEntry {
	out := make([]domain.RetryEntry, len(ids))
	for i, id := range ids {
		out[i] = domain.RetryEntry{NativeID: id, At: time.Unix(1_700_000_000, 0)}
	}
	return out
}

func (r *fakeRetry) reasons(id string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.scheduled[id]
}

// env is an indexing service over the in-memory store.
type env struct {
	store     *memory.Store
	lifecycle *lifecycle.Manager
	embedder  *wordEmbedder
	svc       *Service
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store := memory.NewStore("destinations")
	lc := lifecycle.New(store, testDims, zap.NewNop())
	if err := lc.EnsureReady(context.Background()); err != nil {
		t.Fatalf("ensure ready: %v", err)
	}
	emb := &wordEmbedder{}
	return &env{
		store:     store,
		lifecycle: lc,
		embedder:  emb,
		svc:       New(store, emb, lc, zap.NewNop()),
	}
}

func (e *env) count(t *testing.T) uint64 {
	t.Helper()
	info, err := e.store.Info(context.Background())
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	return info.PointCount
}

func rec(id, name, country string, tripTypes ...string) destination.Record {
	return destination.Record{
		ID:          id,
		Name:        name,
		Country:     country,
		Description: name + " in " + country,
		Price:       100,
		TripTypes:   tripTypes,
		Rating:      4,
		Available:   true,
	}
}
