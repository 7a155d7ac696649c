package db

import (
	"context"
	"time"
)

// Store is the Redis facade combining all sub-interfaces.
type Store interface {
	Pinger
	KVStore
	SortedSetStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KVStore provides simple key-value operations.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
	IncrBy(ctx context.Context, key string, val int64) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
}

// ScoredMember is a sorted set entry.
type ScoredMember struct {
	Member string
	Score  float64
}

// SortedSetStore provides sorted set operations.
type SortedSetStore interface {
	ZAdd(ctx context.Context, key string, members ...ScoredMember) error
	// ZRangeByScore returns up to limit members with score <= maxScore, lowest first.
	ZRangeByScore(ctx context.Context, key string, maxScore float64, limit int64) ([]ScoredMember, error)
	ZRem(ctx context.Context, key string, members ...string) error
	// ZRemIfScore removes member only while its score still equals score.
	ZRemIfScore(ctx context.Context, key, member string, score float64) (bool, error)
	ZCard(ctx context.Context, key string) (int64, error)
}
