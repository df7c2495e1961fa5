package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DedupeGuard keeps the webhook and the manual sync endpoint from reconciling
// the same call concurrently. The TTL bounds how long a crashed sync can hold
// the lock.
type DedupeGuard struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDedupeGuard creates a guard. A non-positive TTL defaults to 30 seconds.
func NewDedupeGuard(client *redis.Client, ttl time.Duration) *DedupeGuard {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &DedupeGuard{client: client, ttl: ttl}
}

func dedupeKey(callID int64) string {
	return fmt.Sprintf("sync:call:%d", callID)
}

// Acquire claims the sync slot for a call. A nil guard always grants it.
func (g *DedupeGuard) Acquire(ctx context.Context, callID int64) (bool, error) {
	if g == nil || g.client == nil {
		return true, nil
	}
	ok, err := g.client.SetNX(ctx, dedupeKey(callID), 1, g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("reconcile: acquire dedupe lock: %w", err)
	}
	return ok, nil
}

// Release frees the slot early; expiry handles the rest.
func (g *DedupeGuard) Release(ctx context.Context, callID int64) {
	if g == nil || g.client == nil {
		return
	}
	g.client.Del(ctx, dedupeKey(callID))
}
