package indexing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/tripdex/internal/domain"
	"github.com/kailas-cloud/tripdex/internal/domain/destination"
	"github.com/kailas-cloud/tripdex/internal/metrics"
)

// Op is the kind of indexing job.
type Op string

// Job operations.
const (
	OpUpsert Op = "upsert"
	OpRemove Op = "remove"
)

// Job is one asynchronous indexing request. Upserts without a Record are
// fetched from the catalog by NativeID when the job runs.
type Job struct {
	Op       Op
	NativeID string
	Record   *destination.Record
}

// DispatcherConfig bounds the asynchronous pipeline.
type DispatcherConfig struct {
	Workers    int
	QueueSize  int
	JobTimeout time.Duration
}

// Dispatcher runs indexing jobs on a bounded worker pool.
// Submit never blocks; failures end up in the retry queue when one is configured.
type Dispatcher struct {
	indexer Indexer
	catalog CatalogReader
	retry   RetryQueue
	cfg     DispatcherConfig
	logger  *zap.Logger

	mu     sync.RWMutex
	queue  chan Job
	closed bool
	wg     sync.WaitGroup
	bg     sync.WaitGroup
}

// NewDispatcher creates a dispatcher. Zero config values fall back to
// 4 workers, a queue of 1024 and a 30s job timeout.
func NewDispatcher(indexer Indexer, cfg DispatcherConfig, logger *zap.Logger) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1024
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 30 * time.Second
	}
	return &Dispatcher{
		indexer: indexer,
		cfg:     cfg,
		queue:   make(chan Job, cfg.QueueSize),
		logger:  logger.With(zap.String("component", "dispatcher")),
	}
}

// WithCatalog lets upsert jobs without a record fetch it by id.
func (d *Dispatcher) WithCatalog(c CatalogReader) *Dispatcher {
	d.catalog = c
	return d
}

// WithRetry schedules failed and dropped jobs for healing.
func (d *Dispatcher) WithRetry(q RetryQueue) *Dispatcher {
	d.retry = q
	return d
}

// Start launches the workers. They exit when Stop drains the queue.
func (d *Dispatcher) Start() {
	for i := 0; i < d.cfg.Workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	d.logger.Info("Dispatcher started",
		zap.Int("workers", d.cfg.Workers),
		zap.Int("queue_size", d.cfg.QueueSize),
	)
}

// Submit enqueues a job without blocking. It returns false when the job was not queued.
func (d *Dispatcher) Submit(job Job) bool {
	if job.NativeID == "" && job.Record != nil {
		job.NativeID = job.Record.ID
	}
	if job.NativeID == "" {
		d.logger.Warn("Dropping job without destination id", zap.String("op", string(job.Op)))
		metrics.IndexingJobsTotal.WithLabelValues(string(job.Op), "dropped").Inc()
		return false
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		metrics.IndexingJobsTotal.WithLabelValues(string(job.Op), "dropped").Inc()
		return false
	}

	select {
	case d.queue <- job:
		metrics.DispatcherQueueDepth.Set(float64(len(d.queue)))
		return true
	default:
		d.logger.Warn("Dispatcher queue full",
			zap.String("op", string(job.Op)),
			zap.String("destination_id", job.NativeID),
		)
		metrics.IndexingJobsTotal.WithLabelValues(string(job.Op), "dropped").Inc()
		d.scheduleAsync(job.NativeID, "queue_full")
		return false
	}
}

// Stop stops accepting jobs and waits for queued and in-flight jobs to finish.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		d.bg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.logger.Info("Dispatcher stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("dispatcher stop: %w", ctx.Err())
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for job := range d.queue {
		metrics.DispatcherQueueDepth.Set(float64(len(d.queue)))
		d.run(job)
	}
}

func (d *Dispatcher) run(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), d.cfg.JobTimeout)
	defer cancel()

	start := time.Now()
	err := d.execute(ctx, job)
	if err == nil {
		metrics.IndexingJobsTotal.WithLabelValues(string(job.Op), "success").Inc()
		d.logger.Debug("Indexing job completed",
			zap.String("op", string(job.Op)),
			zap.String("destination_id", job.NativeID),
			zap.Duration("duration", time.Since(start)),
		)
		return
	}

	metrics.IndexingJobsTotal.WithLabelValues(string(job.Op), "error").Inc()
	d.logger.Error("Indexing job failed",
		zap.String("op", string(job.Op)),
		zap.String("destination_id", job.NativeID),
		zap.Duration("duration", time.Since(start)),
		zap.Error(err),
	)
	if !isPermanent(err) {
		d.schedule(ctx, job.NativeID, "failed")
	}
}

func (d *Dispatcher) execute(ctx context.Context, job Job) error {
	switch job.Op {
	case OpRemove:
		return d.indexer.Remove(ctx, job.NativeID)
	case OpUpsert:
		rec, err := d.record(ctx, job)
		if errors.Is(err, domain.ErrNotFound) {
			// Deleted before the job ran.
			return d.indexer.Remove(ctx, job.NativeID)
		}
		if err != nil {
			return err
		}
		return d.indexer.IndexOne(ctx, rec)
	default:
		return fmt.Errorf("unknown op %q: %w", job.Op, domain.ErrInvalidInput)
	}
}

func (d *Dispatcher) record(ctx context.Context, job Job) (destination.Record, error) {
	if job.Record != nil {
		return *job.Record, nil
	}
	if d.catalog == nil {
		return destination.Record{}, fmt.Errorf("fetch destination %s: %w", job.NativeID, domain.ErrCatalogUnavailable)
	}
	rec, err := d.catalog.Get(ctx, job.NativeID)
	if err != nil {
		return destination.Record{}, fmt.Errorf("fetch destination %s: %w", job.NativeID, err)
	}
	return rec, nil
}

func (d *Dispatcher) scheduleAsync(nativeID, reason string) {
	if d.retry == nil {
		return
	}
	d.bg.Add(1)
	go func() {
		defer d.bg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), d.cfg.JobTimeout)
		defer cancel()
		d.schedule(ctx, nativeID, reason)
	}()
}

func (d *Dispatcher) schedule(ctx context.Context, nativeID, reason string) {
	if d.retry == nil {
		return
	}
	// The job deadline may already be spent.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	at, err := d.retry.Schedule(ctx, nativeID, reason)
	if err != nil {
		d.logger.Error("Failed to schedule retry",
			zap.String("destination_id", nativeID),
			zap.String("reason", reason),
			zap.Error(err),
		)
		return
	}
	d.logger.Info("Retry scheduled",
		zap.String("destination_id", nativeID),
		zap.String("reason", reason),
		zap.Time("at", at),
	)
}
