package ratelimit

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Limiter is a sliding-window rate limiter on Redis sorted sets. It fronts
// the compute endpoints, where one request can carry a whole document worth
// of engine work, so the window counts requests per caller rather than per
// route.
type Limiter struct {
	Client *redis.Client
	Prefix string
}

func (l Limiter) bucket(key string) string {
	prefix := l.Prefix
	if prefix == "" {
		prefix = "ratelimit:compute:"
	}
	return prefix + key
}

// Allow records one request under key and reports whether the caller is
// still inside the window. Entries older than the window are pruned on every
// call, so the count slides instead of resetting at fixed boundaries. A nil
// client or non-positive limit disables limiting rather than blocking
// compute traffic.
func (l Limiter) Allow(ctx context.Context, key string, window time.Duration, max int) (allowed bool, remaining int, reset time.Time, err error) {
	if l.Client == nil || max <= 0 || window <= 0 {
		return true, max, time.Now().Add(window), nil
	}

	now := time.Now()
	reset = now.Add(window)
	cutoff := strconv.FormatInt(now.Add(-window).UnixNano(), 10)
	bucket := l.bucket(key)

	pipe := l.Client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, bucket, "-inf", cutoff)
	pipe.ZAdd(ctx, bucket, redis.Z{
		Score:  float64(now.UnixNano()),
		Member: uuid.NewString(),
	})
	countCmd := pipe.ZCard(ctx, bucket)
	pipe.Expire(ctx, bucket, window)
	if _, err = pipe.Exec(ctx); err != nil {
		return false, 0, reset, err
	}

	current := int(countCmd.Val())
	remaining = max - current
	if remaining < 0 {
		remaining = 0
	}
	return current <= max, remaining, reset, nil
}
