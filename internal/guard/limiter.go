package guard

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const limiterPrefix = "social:replies:"

// ReplyLimiter caps public replies per author over a rolling window,
// backed by a redis sorted set of reply timestamps.
type ReplyLimiter struct {
	client *redis.Client
	window time.Duration
	max    int
	now    func() time.Time
}

// NewReplyLimiter builds a limiter allowing max replies per author within
// the rolling window.
func NewReplyLimiter(client *redis.Client, max int, window time.Duration) *ReplyLimiter {
	return &ReplyLimiter{client: client, window: window, max: max, now: time.Now}
}

// Allow reports whether another reply to author may be sent now and, when
// it may, records the reply against the window.
func (l *ReplyLimiter) Allow(ctx context.Context, author string) (bool, error) {
	key := limiterPrefix + author
	now := l.now()
	cutoff := now.Add(-l.window)

	if err := l.client.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(cutoff.UnixMilli(), 10)).Err(); err != nil {
		return false, err
	}
	count, err := l.client.ZCard(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if count >= int64(l.max) {
		return false, nil
	}

	member := redis.Z{Score: float64(now.UnixMilli()), Member: uuid.NewString()}
	if err := l.client.ZAdd(ctx, key, member).Err(); err != nil {
		return false, err
	}
	// Idle authors should not leak keys forever.
	if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
		return false, err
	}
	return true, nil
}
