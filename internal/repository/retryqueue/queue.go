// Package retryqueue is a durable schedule of native ids whose indexing failed.
// Members of a Redis sorted set are native ids scored by their next attempt
// time (unix millis); per-id attempt counters drive exponential backoff.
package retryqueue

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/tripdex/internal/db"
	"github.com/kailas-cloud/tripdex/internal/domain"
	"github.com/kailas-cloud/tripdex/internal/metrics"
)

var (
	queueKey      = domain.KeyPrefix + "retry:queue"
	attemptPrefix = domain.KeyPrefix + "retry:attempts:"
)

// store is the consumer interface for the retry queue (ISP).
type store interface {
	ZAdd(ctx context.Context, key string, members ...db.ScoredMember) error
	ZRangeByScore(ctx context.Context, key string, maxScore float64, limit int64) ([]db.ScoredMember, error)
	ZRemIfScore(ctx context.Context, key, member string, score float64) (bool, error)
	ZCard(ctx context.Context, key string) (int64, error)
	IncrBy(ctx context.Context, key string, val int64) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
	Del(ctx context.Context, key string) error
}

// Config holds backoff bounds.
type Config struct {
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
	// AttemptsTTL bounds how long an attempt counter survives without activity.
	AttemptsTTL time.Duration
}

// Queue implements the healer's durable retry schedule.
type Queue struct {
	store store
	cfg   Config
	now   func() time.Time
}

// New creates a retry queue. Zero config values fall back to 1s base, 10m max, 24h counter TTL.
func New(s store, cfg Config) *Queue {
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = time.Second
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 10 * time.Minute
	}
	if cfg.MaxBackoff < cfg.BaseBackoff {
		cfg.MaxBackoff = cfg.BaseBackoff
	}
	if cfg.AttemptsTTL <= 0 {
		cfg.AttemptsTTL = 24 * time.Hour
	}
	return &Queue{store: s, cfg: cfg, now: time.Now}
}

// Schedule records one more failed attempt for nativeID and schedules the next
// one after an exponential backoff. Rescheduling an id moves it, never duplicates it.
func (q *Queue) Schedule(ctx context.Context, nativeID, reason string) (time.Time, error) {
	key := attemptPrefix + nativeID
	attempts, err := q.store.IncrBy(ctx, key, 1)
	if err != nil {
		return time.Time{}, fmt.Errorf("retry attempts %s: %w", nativeID, err)
	}
	if err := q.store.Expire(ctx, key, q.cfg.AttemptsTTL, false); err != nil {
		return time.Time{}, fmt.Errorf("retry attempts ttl %s: %w", nativeID, err)
	}

	at := q.now().Add(q.Backoff(attempts))
	if err := q.store.ZAdd(ctx, queueKey, db.ScoredMember{Member: nativeID, Score: float64(at.UnixMilli())}); err != nil {
		return time.Time{}, fmt.Errorf("retry schedule %s: %w", nativeID, err)
	}

	metrics.RetryQueueScheduledTotal.WithLabelValues(reason).Inc()
	return at, nil
}

// Due returns up to limit entries whose next attempt time has passed, oldest first.
func (q *Queue) Due(ctx context.Context, limit int) ([]domain.RetryEntry, error) {
	if limit <= 0 {
		return nil, nil
	}
	members, err := q.store.ZRangeByScore(ctx, queueKey, float64(q.now().UnixMilli()), int64(limit))
	if err != nil {
		return nil, fmt.Errorf("retry due: %w", err)
	}
	entries := make([]domain.RetryEntry, len(members))
	for i, m := range members {
		entries[i] = domain.RetryEntry{NativeID: m.Member, At: time.UnixMilli(int64(m.Score))}
	}
	return entries, nil
}

// Done removes a due entry and resets its attempt counter. An id rescheduled
// after Due returned it keeps its newer entry and its counter.
func (q *Queue) Done(ctx context.Context, e domain.RetryEntry) error {
	removed, err := q.store.ZRemIfScore(ctx, queueKey, e.NativeID, float64(e.At.UnixMilli()))
	if err != nil {
		return fmt.Errorf("retry done %s: %w", e.NativeID, err)
	}
	if !removed {
		return nil
	}
	if err := q.store.Del(ctx, attemptPrefix+e.NativeID); err != nil {
		return fmt.Errorf("retry reset %s: %w", e.NativeID, err)
	}
	return nil
}

// Len returns the number of scheduled ids.
func (q *Queue) Len(ctx context.Context) (int64, error) {
	n, err := q.store.ZCard(ctx, queueKey)
	if err != nil {
		return 0, fmt.Errorf("retry len: %w", err)
	}
	return n, nil
}

// Backoff returns base * 2^(attempt-1), capped at the configured maximum.
func (q *Queue) Backoff(attempt int64) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := q.cfg.BaseBackoff
	for i := int64(1); i < attempt; i++ {
		d *= 2
		if d >= q.cfg.MaxBackoff {
			return q.cfg.MaxBackoff
		}
	}
	return d
}
