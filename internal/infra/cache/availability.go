package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/bookora/booking-scheduler/internal/domain/scheduling"
)

// AvailabilityCache keeps short-lived snapshots of public availability
// lookups. A cached list is only ever a snapshot, never a reservation
// guarantee, so a small TTL plus write-time invalidation is enough.
type AvailabilityCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewAvailabilityCache(client *redis.Client, ttl time.Duration) *AvailabilityCache {
	return &AvailabilityCache{client: client, ttl: ttl}
}

func slotKey(providerID uint, date string, durationMin int) string {
	return fmt.Sprintf("availability:%d:%s:%d", providerID, date, durationMin)
}

func (c *AvailabilityCache) Get(
	ctx context.Context,
	providerID uint,
	date string,
	durationMin int,
) ([]scheduling.Slot, bool) {

	val, err := c.client.Get(ctx, slotKey(providerID, date, durationMin)).Result()
	if err != nil {
		return nil, false
	}

	var slots []scheduling.Slot
	if err := json.Unmarshal([]byte(val), &slots); err != nil {
		return nil, false
	}
	return slots, true
}

func (c *AvailabilityCache) Set(
	ctx context.Context,
	providerID uint,
	date string,
	durationMin int,
	slots []scheduling.Slot,
) error {

	data, err := json.Marshal(slots)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, slotKey(providerID, date, durationMin), data, c.ttl).Err()
}

// Invalidate drops every cached duration for the provider's day. Called
// after any booking or settings mutation that touches that day.
func (c *AvailabilityCache) Invalidate(
	ctx context.Context,
	providerID uint,
	date string,
) error {

	pattern := fmt.Sprintf("availability:%d:%s:*", providerID, date)
	return c.deletePattern(ctx, pattern)
}

// InvalidateAll drops every cached day for the provider. Used when a
// weekly rule changes, since that touches an unbounded set of dates.
func (c *AvailabilityCache) InvalidateAll(ctx context.Context, providerID uint) error {
	pattern := fmt.Sprintf("availability:%d:*", providerID)
	return c.deletePattern(ctx, pattern)
}

func (c *AvailabilityCache) deletePattern(ctx context.Context, pattern string) error {
	keys, err := c.client.Keys(ctx, pattern).Result()
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}
