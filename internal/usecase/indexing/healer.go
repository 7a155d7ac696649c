package indexing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/tripdex/internal/domain"
	"github.com/kailas-cloud/tripdex/internal/metrics"
)

// Healer re-indexes native ids whose earlier indexing failed.
type Healer struct {
	queue    RetryQueue
	catalog  CatalogReader
	indexer  Indexer
	interval time.Duration
	batch    int
	timeout  time.Duration
	logger   *zap.Logger
}

// NewHealer creates a healer polling queue every interval for up to batch due ids.
func NewHealer(
	queue RetryQueue, catalog CatalogReader, indexer Indexer,
	interval time.Duration, batch int, logger *zap.Logger,
) *Healer {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if batch <= 0 {
		batch = 50
	}
	return &Healer{
		queue:    queue,
		catalog:  catalog,
		indexer:  indexer,
		interval: interval,
		batch:    batch,
		timeout:  30 * time.Second,
		logger:   logger.With(zap.String("component", "healer")),
	}
}

// Run heals on every tick until ctx is canceled.
func (h *Healer) Run(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := h.HealOnce(ctx); err != nil && ctx.Err() == nil {
				h.logger.Warn("Healing pass failed", zap.Error(err))
			}
		}
	}
}

// HealOnce processes the ids currently due and returns how many were healed.
// Failed ids are rescheduled with a longer backoff.
func (h *Healer) HealOnce(ctx context.Context) (int, error) {
	due, err := h.queue.Due(ctx, h.batch)
	if err != nil {
		return 0, fmt.Errorf("heal: %w", err)
	}

	healed := 0
	for _, entry := range due {
		if ctx.Err() != nil {
			return healed, ctx.Err()
		}
		id := entry.NativeID
		if err := h.heal(ctx, id); err != nil {
			metrics.IndexingJobsTotal.WithLabelValues("heal", "error").Inc()
			h.logger.Warn("Heal attempt failed", zap.String("destination_id", id), zap.Error(err))
			if isPermanent(err) {
				if derr := h.queue.Done(ctx, entry); derr != nil {
					h.logger.Error("Failed to drop unhealable id", zap.String("destination_id", id), zap.Error(derr))
				}
				continue
			}
			if _, serr := h.queue.Schedule(ctx, id, "failed"); serr != nil {
				h.logger.Error("Failed to reschedule", zap.String("destination_id", id), zap.Error(serr))
			}
			continue
		}
		metrics.IndexingJobsTotal.WithLabelValues("heal", "success").Inc()
		if err := h.queue.Done(ctx, entry); err != nil {
			h.logger.Error("Failed to clear healed id", zap.String("destination_id", id), zap.Error(err))
			continue
		}
		healed++
	}

	if healed > 0 {
		h.logger.Info("Healing pass completed", zap.Int("healed", healed), zap.Int("due", len(due)))
	}
	return healed, nil
}

func (h *Healer) heal(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	rec, err := h.catalog.Get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return h.indexer.Remove(ctx, id)
	}
	if err != nil {
		return err
	}
	return h.indexer.IndexOne(ctx, rec)
}
