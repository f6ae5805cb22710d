package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const lockTTL = 30 * time.Second

// EntityLock serializes mutations on a single entity using Redis SET NX.
// The TTL guards against a crashed holder wedging the entity forever.
// Key format: lock:<scope>:<entity_id>
type EntityLock struct {
	client *redis.Client
	scope  string
}

// NewEntityLock creates a lock namespace for the given scope, e.g.
// "lead_convert".
func NewEntityLock(client *redis.Client, scope string) *EntityLock {
	return &EntityLock{client: client, scope: scope}
}

// Acquire attempts to take the lock. It returns false, without error, when
// another caller already holds it.
func (l *EntityLock) Acquire(ctx context.Context, entityID string) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.key(entityID), "1", lockTTL).Result()
	if err != nil {
		return false, fmt.Errorf("acquire lock: %w", err)
	}
	return ok, nil
}

// Release drops the lock. Releasing a lock that already expired is a no-op.
func (l *EntityLock) Release(ctx context.Context, entityID string) error {
	return l.client.Del(ctx, l.key(entityID)).Err()
}

func (l *EntityLock) key(entityID string) string {
	return fmt.Sprintf("lock:%s:%s", l.scope, entityID)
}
