package api

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateCounter is the subset of *redis.Client used for fixed-window counters.
type RateCounter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

func incrWithTTL(ctx context.Context, client RateCounter, key string, ttl time.Duration) (int64, error) {
	count, err := client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		_ = client.Expire(ctx, key, ttl).Err()
	}
	return count, nil
}

// rateLimiter 以固定窗口计数限制每个 key 的请求数。counter 为 nil 或 limit<=0 时不限。
type rateLimiter struct {
	counter RateCounter
	prefix  string
	limit   int64
	window  time.Duration
}

// allow 报告本次请求是否在额度内。Redis 故障时放行。
func (l rateLimiter) allow(ctx context.Context, key string) (bool, error) {
	if l.counter == nil || l.limit <= 0 {
		return true, nil
	}
	count, err := incrWithTTL(ctx, l.counter, l.prefix+key, l.window)
	if err != nil {
		return true, err
	}
	return count <= l.limit, nil
}
