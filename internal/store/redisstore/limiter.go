package redisstore

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const limiterKeyPrefix = "ratelimit:"

// Limiter is a fixed-window request counter.
type Limiter struct {
	client redis.Cmdable
	now    func() time.Time
}

func NewLimiter(client redis.Cmdable) *Limiter {
	return &Limiter{client: client, now: time.Now}
}

// Allow counts one hit for key in the current window and reports whether it
// is within limit.
func (l *Limiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if limit <= 0 || window <= 0 {
		return true, nil
	}
	k := l.windowKey(key, window)

	var incr *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, k)
		pipe.Expire(ctx, k, window)
		return nil
	})
	if err != nil {
		return false, err
	}
	return incr.Val() <= int64(limit), nil
}

func (l *Limiter) windowKey(key string, window time.Duration) string {
	slot := l.now().UnixNano() / int64(window)
	return limiterKeyPrefix + key + ":" + strconv.FormatInt(slot, 10)
}
