package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// VehicleStatusCache keeps the latest poll snapshot per connection in redis
// so UI reads don't hit the state table. Entries expire on their own; the
// database row stays the source of truth.
type VehicleStatusCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewVehicleStatusCache(rdb *redis.Client, ttl time.Duration) *VehicleStatusCache {
	return &VehicleStatusCache{rdb: rdb, ttl: ttl}
}

func statusKey(connectionID uuid.UUID) string {
	return fmt.Sprintf("vehicle:%s:status", connectionID)
}

func (c *VehicleStatusCache) SetLatest(ctx context.Context, connectionID uuid.UUID, snapshot interface{}) error {
	if c == nil || c.rdb == nil {
		return nil
	}

	b, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, statusKey(connectionID), b, c.ttl).Err()
}

// GetLatest returns the cached snapshot bytes, or (nil, nil) on a miss.
func (c *VehicleStatusCache) GetLatest(ctx context.Context, connectionID uuid.UUID) ([]byte, error) {
	if c == nil || c.rdb == nil {
		return nil, nil
	}

	b, err := c.rdb.Get(ctx, statusKey(connectionID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}
