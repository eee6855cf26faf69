package port

import (
	"context"

	"github.com/plateful/plateful/internal/core/domain"
)

type MenuCatalog interface {
	// FindRestaurant returns nil when the restaurant does not exist
	FindRestaurant(ctx context.Context, id string) (*domain.Restaurant, error)

	// FindMenuItem returns nil when the item does not exist
	FindMenuItem(ctx context.Context, id string) (*domain.MenuItem, error)

	// ListMenu returns every menu item belonging to a restaurant
	ListMenu(ctx context.Context, restaurantID string) ([]domain.MenuItem, error)

	// CreateMenuItem inserts a new item and registers tracked stock with the ledger
	CreateMenuItem(ctx context.Context, item domain.MenuItem) error

	// UpdateMenuItem applies the non-nil fields and keeps the ledger in sync
	UpdateMenuItem(ctx context.Context, id string, updates domain.MenuItemUpdate) (*domain.MenuItem, error)

	// DeleteMenuItem removes an item and clears its tracked stock
	DeleteMenuItem(ctx context.Context, id string) (bool, error)
}
