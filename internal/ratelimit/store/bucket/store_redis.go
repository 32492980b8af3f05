package bucket

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"entgate/internal/ratelimit/models"
)

// RedisBucketStore implements BucketStore with a Redis ZSET sliding window
// so buckets are shared across replicas. Each request is a ZSET member
// scored by its millisecond timestamp; members older than the window are
// trimmed on every check.
type RedisBucketStore struct {
	rdb *redis.Client
}

// NewRedisBucketStore creates a Redis-backed bucket store.
func NewRedisBucketStore(rdb *redis.Client) *RedisBucketStore {
	return &RedisBucketStore{rdb: rdb}
}

// Allow checks whether one more request fits the limit and records it if so.
// The add/trim/count round is a single transactional pipeline; an over-limit
// request removes its own member again so rejected requests don't consume
// budget.
func (s *RedisBucketStore) Allow(ctx context.Context, key string, limit models.Limit) (*models.Result, error) {
	now := time.Now()
	nowMs := now.UnixMilli()
	windowStart := nowMs - limit.Window.Milliseconds()

	pipe := s.rdb.TxPipeline()
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(nowMs), Member: nowMs})
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart, 10))
	countCmd := pipe.ZCard(ctx, key)
	pipe.Expire(ctx, key, limit.Window+time.Second)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}

	count, err := countCmd.Result()
	if err != nil {
		return nil, err
	}
	if count > int64(limit.Limit) {
		s.rdb.ZRem(ctx, key, nowMs)
		return &models.Result{
			Allowed: false,
			Limit:   limit.Limit,
			ResetAt: now.Add(limit.Window),
		}, nil
	}

	return &models.Result{
		Allowed:   true,
		Remaining: limit.Limit - int(count),
		Limit:     limit.Limit,
		ResetAt:   now.Add(limit.Window),
	}, nil
}

// Reset clears the counter for a key.
func (s *RedisBucketStore) Reset(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}
