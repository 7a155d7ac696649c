package retryqueue

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/kailas-cloud/tripdex/internal/db"
)

// fakeStore is an in-memory sorted set plus counters.
type fakeStore struct {
	zsets    map[string]map[string]float64
	counters map[string]int64
	ttls     map[string]time.Duration
	err      error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		zsets:    map[string]map[string]float64{},
		counters: map[string]int64{},
		ttls:     map[string]time.Duration{},
	}
}

func (f *fakeStore) ZAdd(_ context.Context, key string, members ...db.ScoredMember) error {
	if f.err != nil {
		return f.err
	}
	if f.zsets[key] == nil {
		f.zsets[key] = map[string]float64{}
	}
	for _, m := range members {
		f.zsets[key][m.Member] = m.Score
	}
	return nil
}

func (f *fakeStore) ZRangeByScore(_ context.Context, key string, maxScore float64, limit int64) ([]db.ScoredMember, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []string
	for m, s := range f.zsets[key] {
		if s <= maxScore {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		si, sj := f.zsets[key][out[i]], f.zsets[key][out[j]]
		if si != sj {
			return si < sj
		}
		return out[i] < out[j]
	})
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	members := make([]db.ScoredMember, len(out))
	for i, m := range out {
		members[i] = db.ScoredMember{Member: m, Score: f.zsets[key][m]}
	}
	return members, nil
}

func (f *fakeStore) ZRemIfScore(_ context.Context, key, member string, score float64) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if s, ok := f.zsets[key][member]; !ok || s != score {
		return false, nil
	}
	delete(f.zsets[key], member)
	return true, nil
}

func (f *fakeStore) ZCard(_ context.Context, key string) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return int64(len(f.zsets[key])), nil
}

func (f *fakeStore) IncrBy(_ context.Context, key string, val int64) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.counters[key] += val
	return f.counters[key], nil
}

func (f *fakeStore) Expire(_ context.Context, key string, ttl time.Duration, _ bool) error {
	if f.err != nil {
		return f.err
	}
	f.ttls[key] = ttl
	return nil
}

func (f *fakeStore) Del(_ context.Context, key string) error {
	if f.err != nil {
		return f.err
	}
	delete(f.counters, key)
	return nil
}

var errDown = errors.New("connection refused")

func newTestQueue(s *fakeStore, now *time.Time) *Queue {
	q := New(s, Config{BaseBackoff: time.Second, MaxBackoff: 8 * time.Second})
	q.now = func() time.Time { return *now }
	return q
}
