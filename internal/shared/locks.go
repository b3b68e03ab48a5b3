package shared

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrOrderLocked indicates another reconciliation for the same order is in flight.
var ErrOrderLocked = errors.New("order is locked by another reconciliation")

// OrderLockKey builds redis keys for order reconciliation critical sections.
func OrderLockKey(orderID int64) string {
	return fmt.Sprintf("orders:order:%d:lock", orderID)
}

// OrderLocker serialises reconciliation attempts per order using redis.
type OrderLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewOrderLocker constructs an OrderLocker. TTL bounds how long a crashed
// holder can keep the order locked.
func NewOrderLocker(client *redis.Client, ttl time.Duration) *OrderLocker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &OrderLocker{client: client, ttl: ttl}
}

// Acquire takes the per-order lock. Callers must Release on every path.
func (l *OrderLocker) Acquire(ctx context.Context, orderID int64) error {
	if l == nil || l.client == nil {
		return nil
	}
	ok, err := l.client.SetNX(ctx, OrderLockKey(orderID), "1", l.ttl).Result()
	if err != nil {
		return fmt.Errorf("shared: acquire order lock: %w", err)
	}
	if !ok {
		return ErrOrderLocked
	}
	return nil
}

// Release frees the per-order lock.
func (l *OrderLocker) Release(ctx context.Context, orderID int64) {
	if l == nil || l.client == nil {
		return
	}
	_ = l.client.Del(ctx, OrderLockKey(orderID)).Err()
}
