package storage

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	stockKeyPrefix    = "stock:"
	idempotencyKeyTTL = 24 * time.Hour
)

// RedisAdapter backs the request idempotency guard and the read-side stock
// mirror. The mirror is a snapshot for display only; the in-process ledger
// stays authoritative.
type RedisAdapter struct {
	client *redis.Client
}

func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{client: client}
}

func (r *RedisAdapter) SetIdempotency(ctx context.Context, key string) (bool, error) {
	ok, err := r.client.SetNX(ctx, key, 1, idempotencyKeyTTL).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}

func (r *RedisAdapter) SetStock(ctx context.Context, itemID string, quantity int) error {
	key := stockKeyPrefix + itemID
	return r.client.Set(ctx, key, quantity, 0).Err()
}

func (r *RedisAdapter) GetStock(ctx context.Context, itemID string) (int, bool, error) {
	key := stockKeyPrefix + itemID

	quantity, err := r.client.Get(ctx, key).Int()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}

	return quantity, true, nil
}
