package storage

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/plateful/plateful/internal/core/domain"
	"github.com/plateful/plateful/internal/core/inventory"
)

var ErrOrderNotFound = errors.New("order not found")

// MemoryStore is an in-process menu catalog and order store. Tracked stock is
// never held here: menu writes forward stock changes to the ledger, and reads
// report the ledger's current count, so the ledger stays the single mutation
// point.
type MemoryStore struct {
	mu          sync.RWMutex
	ledger      *inventory.StockLedger
	restaurants map[string]domain.Restaurant
	items       map[string]domain.MenuItem
	orders      map[string]domain.Order
}

func NewMemoryStore(ledger *inventory.StockLedger) *MemoryStore {
	return &MemoryStore{
		ledger:      ledger,
		restaurants: make(map[string]domain.Restaurant),
		items:       make(map[string]domain.MenuItem),
		orders:      make(map[string]domain.Order),
	}
}

func (m *MemoryStore) AddRestaurant(r domain.Restaurant) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.restaurants[r.ID] = r
}

func (m *MemoryStore) FindRestaurant(ctx context.Context, id string) (*domain.Restaurant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.restaurants[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (m *MemoryStore) FindMenuItem(ctx context.Context, id string) (*domain.MenuItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	item, ok := m.items[id]
	if !ok {
		return nil, nil
	}
	m.attachStock(&item)
	return &item, nil
}

func (m *MemoryStore) ListMenu(ctx context.Context, restaurantID string) ([]domain.MenuItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var items []domain.MenuItem
	for _, item := range m.items {
		if item.RestaurantID != restaurantID {
			continue
		}
		m.attachStock(&item)
		items = append(items, item)
	}
	return items, nil
}

func (m *MemoryStore) CreateMenuItem(ctx context.Context, item domain.MenuItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if item.TrackedStock != nil {
		m.ledger.SetTracked(item.ID, *item.TrackedStock)
	}
	item.TrackedStock = nil
	m.items[item.ID] = item
	return nil
}

func (m *MemoryStore) UpdateMenuItem(ctx context.Context, id string, updates domain.MenuItemUpdate) (*domain.MenuItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[id]
	if !ok {
		return nil, nil
	}

	if updates.Name != nil {
		item.Name = *updates.Name
	}
	if updates.Description != nil {
		item.Description = *updates.Description
	}
	if updates.Price != nil {
		item.Price = *updates.Price
	}
	if updates.Category != nil {
		item.Category = *updates.Category
	}
	if updates.Available != nil {
		item.Available = *updates.Available
	}
	switch {
	case updates.Untrack:
		m.ledger.ClearTracked(id)
	case updates.TrackedStock != nil:
		m.ledger.SetTracked(id, *updates.TrackedStock)
	}
	item.UpdatedAt = time.Now()
	m.items[id] = item

	m.attachStock(&item)
	return &item, nil
}

func (m *MemoryStore) DeleteMenuItem(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.items[id]; !ok {
		return false, nil
	}
	delete(m.items, id)
	m.ledger.ClearTracked(id)
	return true, nil
}

func (m *MemoryStore) Save(ctx context.Context, order domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	order.Items = append([]domain.OrderItem(nil), order.Items...)
	m.orders[order.ID] = order
	return nil
}

func (m *MemoryStore) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	order, ok := m.orders[id]
	if !ok {
		return nil, nil
	}
	order.Items = append([]domain.OrderItem(nil), order.Items...)
	return &order, nil
}

func (m *MemoryStore) ListByRestaurant(ctx context.Context, restaurantID string) ([]domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var orders []domain.Order
	for _, order := range m.orders {
		if order.RestaurantID != restaurantID {
			continue
		}
		order.Items = append([]domain.OrderItem(nil), order.Items...)
		orders = append(orders, order)
	}
	return orders, nil
}

func (m *MemoryStore) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	order, ok := m.orders[id]
	if !ok {
		return ErrOrderNotFound
	}
	order.Status = status
	order.UpdatedAt = time.Now()
	m.orders[id] = order
	return nil
}

func (m *MemoryStore) SetNotified(ctx context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	order, ok := m.orders[id]
	if !ok {
		return ErrOrderNotFound
	}
	order.NotifiedAt = &at
	order.UpdatedAt = time.Now()
	m.orders[id] = order
	return nil
}

// attachStock fills TrackedStock from the ledger so reads always reflect the
// authoritative count.
func (m *MemoryStore) attachStock(item *domain.MenuItem) {
	if stock, ok := m.ledger.TrackedStock(item.ID); ok {
		item.TrackedStock = &stock
	} else {
		item.TrackedStock = nil
	}
}

// MemoryCache is an in-process CacheRepository used in tests and when no
// Redis address is configured.
type MemoryCache struct {
	mu    sync.Mutex
	keys  map[string]bool
	stock map[string]int
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		keys:  make(map[string]bool),
		stock: make(map[string]int),
	}
}

func (c *MemoryCache) SetIdempotency(ctx context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.keys[key] {
		return false, nil
	}
	c.keys[key] = true
	return true, nil
}

func (c *MemoryCache) SetStock(ctx context.Context, itemID string, quantity int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stock[itemID] = quantity
	return nil
}

func (c *MemoryCache) GetStock(ctx context.Context, itemID string) (int, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	quantity, ok := c.stock[itemID]
	return quantity, ok, nil
}
