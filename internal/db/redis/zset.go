package redis

import (
	"context"
	"strconv"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/tripdex/internal/db"
)

// zremIfScore removes ARGV[1] from KEYS[1] when its score equals ARGV[2].
var zremIfScore = rueidis.NewLuaScript(`
local score = redis.call('ZSCORE', KEYS[1], ARGV[1])
if score and tonumber(score) == tonumber(ARGV[2]) then
	return redis.call('ZREM', KEYS[1], ARGV[1])
end
return 0
`)

// ZAdd adds or updates members of a sorted set.
func (s *Store) ZAdd(ctx context.Context, key string, members ...db.ScoredMember) error {
	if len(members) == 0 {
		return nil
	}
	sm := s.b().Zadd().Key(key).ScoreMember()
	for _, m := range members {
		sm = sm.ScoreMember(m.Score, m.Member)
	}
	if err := s.do(ctx, sm.Build()).Error(); err != nil {
		return &db.Error{Op: db.OpZAdd, Err: err}
	}
	return nil
}

// ZRangeByScore returns up to limit members with score <= maxScore, lowest score first.
func (s *Store) ZRangeByScore(ctx context.Context, key string, maxScore float64, limit int64) ([]db.ScoredMember, error) {
	cmd := s.b().Zrangebyscore().Key(key).Min("-inf").Max(formatScore(maxScore)).
		Withscores().Limit(0, limit).Build()
	scores, err := s.do(ctx, cmd).AsZScores()
	if err != nil {
		return nil, &db.Error{Op: db.OpZRangeByScore, Err: err}
	}
	members := make([]db.ScoredMember, len(scores))
	for i, z := range scores {
		members[i] = db.ScoredMember{Member: z.Member, Score: z.Score}
	}
	return members, nil
}

// ZRem removes members from a sorted set. Missing members are ignored.
func (s *Store) ZRem(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	cmd := s.b().Zrem().Key(key).Member(members...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpZRem, Err: err}
	}
	return nil
}

// ZRemIfScore removes member only if its score is unchanged, atomically on the server.
func (s *Store) ZRemIfScore(ctx context.Context, key, member string, score float64) (bool, error) {
	n, err := zremIfScore.Exec(ctx, s.client, []string{key}, []string{member, formatScore(score)}).AsInt64()
	if err != nil {
		return false, &db.Error{Op: db.OpZRemIfScore, Err: err}
	}
	return n > 0, nil
}

// ZCard returns the number of members in a sorted set.
func (s *Store) ZCard(ctx context.Context, key string) (int64, error) {
	cmd := s.b().Zcard().Key(key).Build()
	n, err := s.do(ctx, cmd).AsInt64()
	if err != nil {
		return 0, &db.Error{Op: db.OpZCard, Err: err}
	}
	return n, nil
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
