package tripdex

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/tripdex/internal/db/memory"
	dbQdrant "github.com/kailas-cloud/tripdex/internal/db/qdrant"
	"github.com/kailas-cloud/tripdex/internal/domain"
	"github.com/kailas-cloud/tripdex/internal/domain/descriptor"
	"github.com/kailas-cloud/tripdex/internal/domain/destination"
	"github.com/kailas-cloud/tripdex/internal/domain/point"
	"github.com/kailas-cloud/tripdex/internal/domain/search/filter"
	"github.com/kailas-cloud/tripdex/internal/domain/search/request"
	"github.com/kailas-cloud/tripdex/internal/domain/search/result"
	healthuc "github.com/kailas-cloud/tripdex/internal/usecase/health"
	indexinguc "github.com/kailas-cloud/tripdex/internal/usecase/indexing"
	"github.com/kailas-cloud/tripdex/internal/usecase/lifecycle"
	searchuc "github.com/kailas-cloud/tripdex/internal/usecase/search"
)

const (
	driverQdrant = "qdrant"
	driverMemory = "memory"

	defaultStoreTimeout = 10 * time.Second
)

// vectorStore is everything the client needs from a backend.
type vectorStore interface {
	Ping(ctx context.Context) error
	Close() error
	EnsureCollection(ctx context.Context, spec domain.CollectionSpec) error
	RecreateCollection(ctx context.Context, spec domain.CollectionSpec) error
	Info(ctx context.Context) (domain.CollectionInfo, error)
	Upsert(ctx context.Context, points []point.Point) error
	Delete(ctx context.Context, ids []string) error
	Retrieve(ctx context.Context, id string, withVector bool) (point.Point, error)
	Search(ctx context.Context, vector []float32, filters filter.Expression, limit int) ([]point.Scored, error)
}

type indexUseCase interface {
	IndexOne(ctx context.Context, rec destination.Record) error
	IndexBatch(ctx context.Context, recs []destination.Record) (int, error)
	Remove(ctx context.Context, nativeID string) error
}

type searchUseCase interface {
	Search(ctx context.Context, query string, c request.Criteria) (searchuc.Response, error)
	FindSimilar(ctx context.Context, nativeID string, limit int) ([]result.Result, error)
	TripTypes() []descriptor.TripType
}

type statsUseCase interface {
	Stats(ctx context.Context) (domain.CollectionInfo, error)
}

// Client is the tripdex SDK entry point.
type Client struct {
	store     vectorStore
	indexSvc  indexUseCase
	searchSvc searchUseCase
	statsSvc  statsUseCase
	healthSvc healthUseCase
	obs       *observer
}

// New creates a Client and makes sure the collection exists.
// The provided context bounds the initial collection check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	defaults := domain.DefaultVectorConfig()
	cfg := &clientConfig{
		collection: defaults.Collection,
		vectorSize: defaults.Dimensions,
		timeout:    defaultStoreTimeout,
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.driver == "" {
		return nil, errors.New("tripdex: vector store required (use WithQdrant or WithMemoryStore)")
	}
	if cfg.embedder == nil {
		return nil, errors.New("tripdex: embedder required (use WithEmbedder)")
	}
	if cfg.vectorSize <= 0 {
		return nil, fmt.Errorf("tripdex: vector size must be positive, got %d", cfg.vectorSize)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	store, err := createStore(cfg)
	if err != nil {
		return nil, err
	}

	c, err := wireClient(ctx, store, cfg, obs)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return c, nil
}

func createStore(cfg *clientConfig) (vectorStore, error) {
	switch cfg.driver {
	case driverMemory:
		return memory.NewStore(cfg.collection), nil
	case driverQdrant:
		s, err := dbQdrant.NewStore(dbQdrant.Config{
			Host:       cfg.host,
			Port:       cfg.port,
			APIKey:     cfg.apiKey,
			UseTLS:     cfg.useTLS,
			Collection: cfg.collection,
			Timeout:    cfg.timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("tripdex: create qdrant store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("tripdex: unknown driver %q", cfg.driver)
	}
}

func wireClient(ctx context.Context, store vectorStore, cfg *clientConfig, obs *observer) (*Client, error) {
	logger := zap.NewNop()
	emb := &embedderAdapter{inner: cfg.embedder}

	manager := lifecycle.New(store, cfg.vectorSize, logger)
	if err := manager.EnsureReady(ctx); err != nil {
		return nil, fmt.Errorf("tripdex: collection not ready: %w", err)
	}

	return &Client{
		store:     store,
		indexSvc:  indexinguc.New(store, emb, manager, logger),
		searchSvc: searchuc.New(store, emb, manager),
		statsSvc:  manager,
		healthSvc: healthuc.New(store, manager, nil),
		obs:       obs,
	}, nil
}

// Index embeds and stores a single destination, replacing any earlier version.
func (c *Client) Index(ctx context.Context, d Destination) (err error) {
	defer func(start time.Time) { c.obs.observe("index", start, err) }(time.Now())
	return c.indexSvc.IndexOne(ctx, toRecord(d))
}

// IndexBatch embeds all destinations together and stores them in one write.
// Nothing is stored unless every destination was embedded.
func (c *Client) IndexBatch(ctx context.Context, ds []Destination) (n int, err error) {
	defer func(start time.Time) { c.obs.observe("index_batch", start, err, "indexed", n) }(time.Now())
	recs := make([]destination.Record, len(ds))
	for i := range ds {
		recs[i] = toRecord(ds[i])
	}
	return c.indexSvc.IndexBatch(ctx, recs)
}

// Remove deletes a destination from the index. Unknown ids are not an error.
func (c *Client) Remove(ctx context.Context, id string) (err error) {
	defer func(start time.Time) { c.obs.observe("remove", start, err) }(time.Now())
	return c.indexSvc.Remove(ctx, id)
}

// Search returns destinations matching the query and every supplied criterion, best first.
func (c *Client) Search(ctx context.Context, query string, criteria Criteria) (res SearchResult, err error) {
	defer func(start time.Time) { c.obs.observe("search", start, err, "hits", res.Total) }(time.Now())
	resp, err := c.searchSvc.Search(ctx, query, toCriteria(criteria))
	if err != nil {
		return SearchResult{}, err
	}
	return fromResponse(resp), nil
}

// Similar returns destinations closest to an indexed one, excluding it.
// Returns ErrRecordNotIndexed when id has no vector.
func (c *Client) Similar(ctx context.Context, id string, limit int) (hits []Hit, err error) {
	defer func(start time.Time) { c.obs.observe("similar", start, err, "hits", len(hits)) }(time.Now())
	results, err := c.searchSvc.FindSimilar(ctx, id, limit)
	if err != nil {
		return nil, err
	}
	return fromResults(results), nil
}

// Stats returns a snapshot of the collection.
func (c *Client) Stats(ctx context.Context) (s Stats, err error) {
	defer func(start time.Time) { c.obs.observe("stats", start, err) }(time.Now())
	info, err := c.statsSvc.Stats(ctx)
	if err != nil {
		return Stats{}, err
	}
	return fromInfo(info), nil
}

// TripTypes lists the trip categories Criteria.TripType accepts.
func (c *Client) TripTypes() []TripType {
	return fromTripTypes(c.searchSvc.TripTypes())
}

// Close releases the vector store connection.
func (c *Client) Close() error {
	if c.store == nil {
		return nil
	}
	return c.store.Close()
}
