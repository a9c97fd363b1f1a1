package guard

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const dedupPrefix = "social:seen:"

// DedupSet remembers already-processed post ids for a bounded window so
// restarts and overlapping polls never double-process a post.
type DedupSet struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDedupSet builds a dedup set with the given retention window.
func NewDedupSet(client *redis.Client, ttl time.Duration) *DedupSet {
	return &DedupSet{client: client, ttl: ttl}
}

// Seen marks id as processed and reports whether it had been recorded
// before within the window. Check and record are one SETNX so concurrent
// callers cannot both claim the same id.
func (d *DedupSet) Seen(ctx context.Context, id string) (bool, error) {
	claimed, err := d.client.SetNX(ctx, dedupPrefix+id, 1, d.ttl).Result()
	if err != nil {
		return false, err
	}
	return !claimed, nil
}
