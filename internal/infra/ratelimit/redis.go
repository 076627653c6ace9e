package ratelimit

import (
	"context"
	"strconv"
	"time"

	"wallet/internal/domain/service"
	"wallet/internal/errors"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable is returned when the redis backend cannot be reached.
var ErrRedisUnavailable = errors.New("ratelimit: redis unavailable")

// RedisStore keeps one sorted set per key, scored by hit time in milliseconds.
// It is shared by every replica pointing at the same redis.
type RedisStore struct {
	redis redis.UniversalClient
}

// NewRedisStore creates a store backed by the given client.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{redis: client}
}

var _ service.RateLimitStore = (*RedisStore)(nil)

// Hit prunes, records and counts in one MULTI/EXEC so concurrent callers see consistent counts.
func (s *RedisStore) Hit(ctx context.Context, key string, window time.Duration, now time.Time) (*service.RateLimitHit, error) {
	ticket := uuid.NewString()
	nowMs := now.UnixMilli()
	cutoff := strconv.FormatInt(nowMs-window.Milliseconds(), 10)

	var (
		count  *redis.IntCmd
		oldest *redis.ZSliceCmd
	)
	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRemRangeByScore(ctx, key, "-inf", cutoff)
		pipe.ZAdd(ctx, key, redis.Z{Score: float64(nowMs), Member: ticket})
		count = pipe.ZCard(ctx, key)
		oldest = pipe.ZRangeWithScores(ctx, key, 0, 0)
		pipe.PExpire(ctx, key, window)

		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(ErrRedisUnavailable, "hit %s: %v", key, err)
	}

	hit := &service.RateLimitHit{
		Count:    int(count.Val()),
		Ticket:   ticket,
		OldestAt: now,
	}
	if first := oldest.Val(); len(first) > 0 {
		hit.OldestAt = time.UnixMilli(int64(first[0].Score))
	}

	return hit, nil
}

// Undo removes the hit identified by ticket.
func (s *RedisStore) Undo(ctx context.Context, key, ticket string) error {
	if err := s.redis.ZRem(ctx, key, ticket).Err(); err != nil {
		return errors.Wrapf(ErrRedisUnavailable, "undo %s: %v", key, err)
	}

	return nil
}
