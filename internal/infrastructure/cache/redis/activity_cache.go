package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// lateNightStart and lateNightEnd bound the 01:00-05:00 window the
// unusual-time rule watches.
const (
	lateNightStart = 1
	lateNightEnd   = 5
)

// ActivityCache tracks short-window user activity for fraud scoring:
// transaction velocity, distinct merchants and late-night usage, plus
// fraud-flag counters per merchant.
type ActivityCache struct {
	client *Client
}

// NewActivityCache creates a new activity cache
func NewActivityCache(client *Client) *ActivityCache {
	return &ActivityCache{client: client}
}

// RecordCheckout records one checkout attempt for velocity tracking.
func (c *ActivityCache) RecordCheckout(ctx context.Context, userID, txID, merchantID uuid.UUID, at time.Time) error {
	velocityKey := fmt.Sprintf("activity:tx:%s", userID)
	member := redis.Z{Score: float64(at.Unix()), Member: txID.String()}
	if err := c.client.ZAdd(ctx, velocityKey, member); err != nil {
		return fmt.Errorf("failed to record transaction: %w", err)
	}
	if err := c.client.Expire(ctx, velocityKey, 24*time.Hour); err != nil {
		return fmt.Errorf("failed to set expiration: %w", err)
	}
	// Best-effort cleanup of entries older than the retention window.
	cutoff := at.Add(-24 * time.Hour).Unix()
	_ = c.client.ZRemRangeByScore(ctx, velocityKey, "-inf", strconv.FormatInt(cutoff, 10))

	// Distinct merchants: one member per merchant, score refreshed on
	// every checkout so ZCount over a window yields distinct merchants.
	merchantKey := fmt.Sprintf("activity:merchants:%s", userID)
	if err := c.client.ZAdd(ctx, merchantKey, redis.Z{Score: float64(at.Unix()), Member: merchantID.String()}); err != nil {
		return fmt.Errorf("failed to record merchant: %w", err)
	}
	if err := c.client.Expire(ctx, merchantKey, 24*time.Hour); err != nil {
		return fmt.Errorf("failed to set expiration: %w", err)
	}

	if hour := at.Hour(); hour >= lateNightStart && hour < lateNightEnd {
		nightKey := fmt.Sprintf("activity:latenight:%s", userID)
		if err := c.client.rdb.Set(ctx, nightKey, "1", 90*24*time.Hour).Err(); err != nil {
			return fmt.Errorf("failed to record late-night activity: %w", err)
		}
	}

	return nil
}

// TxCountInWindow returns how many transactions the user made in the
// trailing window ending now.
func (c *ActivityCache) TxCountInWindow(ctx context.Context, userID uuid.UUID, now time.Time, window time.Duration) (int, error) {
	key := fmt.Sprintf("activity:tx:%s", userID)
	min := strconv.FormatInt(now.Add(-window).Unix(), 10)
	max := strconv.FormatInt(now.Unix(), 10)
	count, err := c.client.ZCount(ctx, key, min, max)
	if err != nil {
		return 0, fmt.Errorf("failed to get transaction count: %w", err)
	}
	return int(count), nil
}

// DistinctMerchantsInWindow returns how many distinct merchants the
// user transacted with in the trailing window.
func (c *ActivityCache) DistinctMerchantsInWindow(ctx context.Context, userID uuid.UUID, now time.Time, window time.Duration) (int, error) {
	key := fmt.Sprintf("activity:merchants:%s", userID)
	min := strconv.FormatInt(now.Add(-window).Unix(), 10)
	max := strconv.FormatInt(now.Unix(), 10)
	count, err := c.client.ZCount(ctx, key, min, max)
	if err != nil {
		return 0, fmt.Errorf("failed to get merchant count: %w", err)
	}
	return int(count), nil
}

// HasLateNightHistory reports whether the user has transacted in the
// late-night window before.
func (c *ActivityCache) HasLateNightHistory(ctx context.Context, userID uuid.UUID) (bool, error) {
	key := fmt.Sprintf("activity:latenight:%s", userID)
	n, err := c.client.Exists(ctx, key)
	if err != nil {
		return false, fmt.Errorf("failed to check late-night history: %w", err)
	}
	return n > 0, nil
}

// RecordMerchantFlag bumps a merchant's fraud-flag counter.
func (c *ActivityCache) RecordMerchantFlag(ctx context.Context, merchantID uuid.UUID) error {
	key := fmt.Sprintf("activity:merchantflags:%s", merchantID)
	if _, err := c.client.Incr(ctx, key); err != nil {
		return fmt.Errorf("failed to record merchant flag: %w", err)
	}
	if err := c.client.Expire(ctx, key, 30*24*time.Hour); err != nil {
		return fmt.Errorf("failed to set expiration: %w", err)
	}
	return nil
}

// MerchantFlagCount returns the merchant's recent fraud-flag count.
func (c *ActivityCache) MerchantFlagCount(ctx context.Context, merchantID uuid.UUID) (int, error) {
	key := fmt.Sprintf("activity:merchantflags:%s", merchantID)
	val, err := c.client.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get merchant flags: %w", err)
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("corrupt merchant flag counter: %w", err)
	}
	return n, nil
}
