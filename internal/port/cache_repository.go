package port

import "context"

type CacheRepository interface {
	// SetIdempotency claims a request key, returns false if already claimed
	SetIdempotency(ctx context.Context, key string) (bool, error)

	// SetStock publishes a read-side stock snapshot for an item
	SetStock(ctx context.Context, itemID string, quantity int) error

	// GetStock reads a published snapshot, returns false when absent
	GetStock(ctx context.Context, itemID string) (int, bool, error)
}
