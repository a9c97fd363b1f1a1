package guard

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestDedupSetSeenOncePerWindow(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	dedup := NewDedupSet(client, time.Hour)

	seen, err := dedup.Seen(ctx, "post-1")
	require.NoError(t, err)
	assert.False(t, seen)

	seen, err = dedup.Seen(ctx, "post-1")
	require.NoError(t, err)
	assert.True(t, seen)

	seen, err = dedup.Seen(ctx, "post-2")
	require.NoError(t, err)
	assert.False(t, seen, "distinct ids are independent")

	mr.FastForward(time.Hour + time.Minute)

	seen, err = dedup.Seen(ctx, "post-1")
	require.NoError(t, err)
	assert.False(t, seen, "expired ids may be processed again")
}

func TestReplyLimiterCapsPerAuthor(t *testing.T) {
	ctx := context.Background()
	client := testRedis(t)

	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewReplyLimiter(client, 2, time.Hour)
	limiter.now = func() time.Time { return current }

	for i := 0; i < 2; i++ {
		ok, err := limiter.Allow(ctx, "alice")
		require.NoError(t, err)
		assert.True(t, ok)
	}

	ok, err := limiter.Allow(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, ok, "third reply within the window is suppressed")

	ok, err = limiter.Allow(ctx, "bob")
	require.NoError(t, err)
	assert.True(t, ok, "authors are limited independently")
}

func TestReplyLimiterWindowSlides(t *testing.T) {
	ctx := context.Background()
	client := testRedis(t)

	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewReplyLimiter(client, 1, time.Hour)
	limiter.now = func() time.Time { return current }

	ok, err := limiter.Allow(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, ok)

	current = current.Add(30 * time.Minute)
	ok, err = limiter.Allow(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, ok, "still inside the rolling window")

	current = current.Add(31 * time.Minute)
	ok, err = limiter.Allow(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, ok, "first reply has aged out of the window")
}
