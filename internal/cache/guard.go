package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const handoffGuardTTL = 24 * time.Hour

// HandoffGuard claims a session's feedback hand-off with SET NX so that only
// one holder across all server instances ever runs it.
type HandoffGuard struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewHandoffGuard(rdb *redis.Client) *HandoffGuard {
	return &HandoffGuard{rdb: rdb, ttl: handoffGuardTTL}
}

func (g *HandoffGuard) Acquire(ctx context.Context, sessionID string) (bool, error) {
	return g.rdb.SetNX(ctx, HandoffKey(sessionID), time.Now().UTC().Format(time.RFC3339), g.ttl).Result()
}

