package port

import (
	"context"
	"time"

	"github.com/plateful/plateful/internal/core/domain"
)

type OrderStore interface {
	// Save persists a new order with its items
	Save(ctx context.Context, order domain.Order) error

	// FindByID returns nil when the order does not exist
	FindByID(ctx context.Context, id string) (*domain.Order, error)

	// ListByRestaurant returns every order belonging to a restaurant
	ListByRestaurant(ctx context.Context, restaurantID string) ([]domain.Order, error)

	// UpdateStatus changes the status of a persisted order
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error

	// SetNotified records when the order confirmation was sent
	SetNotified(ctx context.Context, id string, at time.Time) error
}
