// Package indexing turns catalog records into vector points: single-record
// writes, atomic batches, full rebuilds and the asynchronous dispatch and
// healing that keep the index in sync with the catalog.
package indexing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kailas-cloud/tripdex/internal/domain"
	"github.com/kailas-cloud/tripdex/internal/domain/descriptor"
	"github.com/kailas-cloud/tripdex/internal/domain/destination"
	"github.com/kailas-cloud/tripdex/internal/domain/point"
	"github.com/kailas-cloud/tripdex/internal/metrics"
)

const (
	// DefaultPageSize is the catalog page size used by ReindexAll.
	DefaultPageSize = 100
	// DefaultReindexTimeout bounds a whole ReindexAll run.
	DefaultReindexTimeout = 30 * time.Minute
)

// ReindexReport summarizes a full rebuild.
type ReindexReport struct {
	Indexed int
	Batches int
	// Skipped counts catalog records that cannot be indexed at all.
	Skipped int
}

// Service is the synchronous indexing pipeline.
type Service struct {
	store      VectorStore
	embedder   domain.Embedder
	collection Collection
	catalog    CatalogReader
	pageSize   int
	timeout    time.Duration
	reindex    singleflight.Group
	logger     *zap.Logger
}

var _ Indexer = (*Service)(nil)

// New creates an indexing service.
func New(store VectorStore, embedder domain.Embedder, collection Collection, logger *zap.Logger) *Service {
	return &Service{
		store:      store,
		embedder:   embedder,
		collection: collection,
		pageSize:   DefaultPageSize,
		timeout:    DefaultReindexTimeout,
		logger:     logger,
	}
}

// WithReindexTimeout sets the deadline of a ReindexAll run. Non-positive values are ignored.
func (s *Service) WithReindexTimeout(d time.Duration) *Service {
	if d > 0 {
		s.timeout = d
	}
	return s
}

// WithCatalog enables ReindexAll over the given catalog.
func (s *Service) WithCatalog(c CatalogReader, pageSize int) *Service {
	s.catalog = c
	if pageSize > 0 {
		s.pageSize = pageSize
	}
	return s
}

// IndexOne embeds a record and upserts its point.
func (s *Service) IndexOne(ctx context.Context, rec destination.Record) error {
	if err := s.checkReady(); err != nil {
		return err
	}
	if err := rec.Validate(); err != nil {
		return err
	}

	text := descriptor.RecordText(rec)
	if text == "" {
		return fmt.Errorf("destination %s has no descriptive text: %w", rec.ID, domain.ErrInvalidInput)
	}

	res, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("vectorize destination %s: %w", rec.ID, err)
	}

	if err := s.store.Upsert(ctx, []point.Point{point.New(rec, res.Embedding)}); err != nil {
		return fmt.Errorf("upsert destination %s: %w", rec.ID, err)
	}

	metrics.IndexingPointsTotal.Inc()
	return nil
}

// Update re-indexes a changed record. Points are replaced whole, so this is IndexOne.
func (s *Service) Update(ctx context.Context, rec destination.Record) error {
	return s.IndexOne(ctx, rec)
}

// IndexBatch embeds all records in one batch and writes them in one upsert.
// Nothing is written unless every record was embedded.
func (s *Service) IndexBatch(ctx context.Context, recs []destination.Record) (int, error) {
	if len(recs) == 0 {
		return 0, fmt.Errorf("batch is empty: %w", domain.ErrInvalidInput)
	}
	if err := s.checkReady(); err != nil {
		return 0, err
	}

	texts := make([]string, len(recs))
	for i := range recs {
		if err := recs[i].Validate(); err != nil {
			return 0, fmt.Errorf("batch item %d: %w", i, err)
		}
		texts[i] = descriptor.RecordText(recs[i])
		if texts[i] == "" {
			return 0, fmt.Errorf("destination %s has no descriptive text: %w", recs[i].ID, domain.ErrInvalidInput)
		}
	}

	res, err := domain.EmbedBatch(ctx, s.embedder, texts)
	if err != nil {
		return 0, fmt.Errorf("vectorize batch: %w", err)
	}
	if len(res.Embeddings) != len(recs) {
		return 0, fmt.Errorf("expected %d embeddings, got %d: %w",
			len(recs), len(res.Embeddings), domain.ErrEmbeddingUnavailable)
	}

	points := make([]point.Point, len(recs))
	for i := range recs {
		points[i] = point.New(recs[i], res.Embeddings[i])
	}
	if err := s.store.Upsert(ctx, points); err != nil {
		return 0, fmt.Errorf("upsert batch: %w", err)
	}

	metrics.IndexingPointsTotal.Add(float64(len(points)))
	return len(points), nil
}

// Remove deletes the point of a native id. Unknown ids are not an error.
func (s *Service) Remove(ctx context.Context, nativeID string) error {
	if nativeID == "" {
		return fmt.Errorf("destination id is required: %w", domain.ErrInvalidInput)
	}
	if err := s.checkReady(); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, []string{point.ID(nativeID)}); err != nil {
		return fmt.Errorf("delete destination %s: %w", nativeID, err)
	}
	return nil
}

// ReindexAll rebuilds the index from the catalog on a freshly recreated collection.
// Concurrent callers share a single run and its result.
func (s *Service) ReindexAll(ctx context.Context) (ReindexReport, error) {
	if s.catalog == nil {
		return ReindexReport{}, fmt.Errorf("reindex: %w", domain.ErrCatalogUnavailable)
	}

	ch := s.reindex.DoChan("reindex", func() (any, error) {
		// The shared run outlives any single caller but not its own deadline.
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()
		return s.reindexAll(runCtx)
	})

	select {
	case <-ctx.Done():
		return ReindexReport{}, fmt.Errorf("reindex: %w", ctx.Err())
	case r := <-ch:
		if r.Err != nil {
			return ReindexReport{}, r.Err
		}
		return r.Val.(ReindexReport), nil
	}
}

func (s *Service) reindexAll(ctx context.Context) (ReindexReport, error) {
	start := time.Now()
	s.logger.Info("Reindex started", zap.Int("page_size", s.pageSize))

	if err := s.collection.Recreate(ctx); err != nil {
		return ReindexReport{}, fmt.Errorf("reindex: %w", err)
	}

	var report ReindexReport
	after := ""
	for {
		page, err := s.catalog.List(ctx, after, s.pageSize)
		if err != nil {
			return report, fmt.Errorf("reindex page after %q: %w", after, err)
		}
		if len(page) == 0 {
			break
		}

		valid := s.indexable(page)
		report.Skipped += len(page) - len(valid)
		if len(valid) > 0 {
			n, err := s.IndexBatch(ctx, valid)
			if err != nil {
				return report, fmt.Errorf("reindex page after %q: %w", after, err)
			}
			report.Indexed += n
			report.Batches++
		}
		after = page[len(page)-1].ID

		if len(page) < s.pageSize {
			break
		}
	}

	metrics.ReindexDuration.Observe(time.Since(start).Seconds())
	s.logger.Info("Reindex completed",
		zap.Int("indexed", report.Indexed),
		zap.Int("batches", report.Batches),
		zap.Int("skipped", report.Skipped),
		zap.Duration("duration", time.Since(start)),
	)
	return report, nil
}

// indexable drops records IndexBatch would reject, so one bad row cannot abort a rebuild.
func (s *Service) indexable(page []destination.Record) []destination.Record {
	out := make([]destination.Record, 0, len(page))
	for _, rec := range page {
		err := rec.Validate()
		if err == nil && descriptor.RecordText(rec) == "" {
			err = fmt.Errorf("no descriptive text: %w", domain.ErrInvalidInput)
		}
		if err != nil {
			metrics.IndexingJobsTotal.WithLabelValues("reindex", "skipped").Inc()
			s.logger.Warn("Skipping unindexable destination",
				zap.String("destination_id", rec.ID), zap.Error(err))
			continue
		}
		out = append(out, rec)
	}
	return out
}

func (s *Service) checkReady() error {
	if s.collection != nil && !s.collection.Ready() {
		return fmt.Errorf("collection not ready: %w", domain.ErrVectorStoreUnavailable)
	}
	return nil
}

// isPermanent reports whether retrying err cannot help.
func isPermanent(err error) bool {
	return errors.Is(err, domain.ErrInvalidInput)
}
