package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/plateful/plateful/internal/core/domain"
	"github.com/plateful/plateful/internal/core/inventory"
	"github.com/plateful/plateful/internal/port"
)

var (
	ErrMissingFields    = errors.New("missing required fields")
	ErrDuplicateRequest = errors.New("duplicate request")
)

type ItemNotFoundError struct {
	MenuItemID string
}

func (e *ItemNotFoundError) Error() string {
	return fmt.Sprintf("menu item not found: %s", e.MenuItemID)
}

type ItemUnavailableError struct {
	Name string
}

func (e *ItemUnavailableError) Error() string {
	return fmt.Sprintf("menu item not available: %s", e.Name)
}

// OrderService coordinates the order lifecycle: validate, reserve, persist,
// commit, notify. Validation and persistence run outside the reservation
// critical section; only the reserve/commit/release calls themselves are
// serialized, inside the manager.
type OrderService struct {
	catalog      port.MenuCatalog
	store        port.OrderStore
	reservations *inventory.ReservationManager
	notifier     port.Notifier
	cache        port.CacheRepository
	log          *zap.Logger
}

// NewOrderService wires the coordinator. cache is optional: when nil, the
// request-level idempotency guard and the read-side stock mirror are skipped.
func NewOrderService(
	catalog port.MenuCatalog,
	store port.OrderStore,
	reservations *inventory.ReservationManager,
	notifier port.Notifier,
	cache port.CacheRepository,
	log *zap.Logger,
) *OrderService {
	if log == nil {
		log = zap.NewNop()
	}
	return &OrderService{
		catalog:      catalog,
		store:        store,
		reservations: reservations,
		notifier:     notifier,
		cache:        cache,
		log:          log,
	}
}

// SubmitOrder is the single entry point for placing an order. On success the
// returned order is persisted with status pending, its stock is committed,
// and a confirmation notification has been dispatched (not awaited). A
// failure after a successful reservation always releases the hold.
//
// requestID is an optional client-supplied idempotency key; a repeated
// requestID fails with ErrDuplicateRequest before any stock is touched.
func (s *OrderService) SubmitOrder(ctx context.Context, restaurantID, requestID, customerName string, lines []domain.OrderLine) (*domain.Order, error) {
	if customerName == "" || len(lines) == 0 {
		return nil, ErrMissingFields
	}
	for _, line := range lines {
		if line.MenuItemID == "" || line.Quantity <= 0 {
			return nil, ErrMissingFields
		}
	}

	if requestID != "" && s.cache != nil {
		ok, err := s.cache.SetIdempotency(ctx, "order:"+requestID)
		if err != nil {
			return nil, fmt.Errorf("idempotency check failed: %w", err)
		}
		if !ok {
			return nil, ErrDuplicateRequest
		}
	}

	items := make([]domain.OrderItem, 0, len(lines))
	var total float64
	for _, line := range lines {
		menuItem, err := s.catalog.FindMenuItem(ctx, line.MenuItemID)
		if err != nil {
			return nil, fmt.Errorf("find menu item: %w", err)
		}
		if menuItem == nil || menuItem.RestaurantID != restaurantID {
			return nil, &ItemNotFoundError{MenuItemID: line.MenuItemID}
		}
		if !menuItem.Available {
			return nil, &ItemUnavailableError{Name: menuItem.Name}
		}

		items = append(items, domain.OrderItem{
			MenuItemID: menuItem.ID,
			Name:       menuItem.Name,
			Quantity:   line.Quantity,
			Price:      menuItem.Price,
		})
		total += menuItem.Price * float64(line.Quantity)
	}

	orderID := uuid.New().String()

	if err := s.reservations.TryReserveAll(orderID, lines); err != nil {
		return nil, err
	}

	now := time.Now()
	order := domain.Order{
		ID:           orderID,
		RestaurantID: restaurantID,
		CustomerName: customerName,
		Items:        items,
		Total:        roundCents(total),
		Status:       domain.OrderStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.Save(ctx, order); err != nil {
		s.reservations.Release(orderID)
		s.log.Warn("order save failed, reservation released",
			zap.String("order_id", orderID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("save order: %w", err)
	}

	if err := s.reservations.Commit(orderID); err != nil {
		var violation *inventory.InvariantError
		if errors.As(err, &violation) {
			// The reservation is already terminated by the manager; mark the
			// persisted order cancelled so it is not served from phantom stock.
			if updErr := s.store.UpdateStatus(ctx, orderID, domain.OrderStatusCancelled); updErr != nil {
				s.log.Error("failed to cancel order after invariant violation",
					zap.String("order_id", orderID),
					zap.Error(updErr),
				)
			}
			return nil, err
		}
		return nil, fmt.Errorf("commit reservation: %w", err)
	}

	s.notifier.OrderCreated(order)
	if s.cache != nil {
		go s.mirrorStock(order)
	}

	return &order, nil
}

// GetOrder returns a tenant-scoped order, nil when absent or owned by a
// different restaurant.
func (s *OrderService) GetOrder(ctx context.Context, restaurantID, orderID string) (*domain.Order, error) {
	order, err := s.store.FindByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("find order: %w", err)
	}
	if order == nil || order.RestaurantID != restaurantID {
		return nil, nil
	}
	return order, nil
}

// ListOrders returns every order belonging to a restaurant.
func (s *OrderService) ListOrders(ctx context.Context, restaurantID string) ([]domain.Order, error) {
	orders, err := s.store.ListByRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// Analytics summarizes a restaurant's sales: order and revenue totals, the
// five most ordered items, and a per-day breakdown. Revenue uses the prices
// captured on the orders, so later menu price changes do not rewrite history.
func (s *OrderService) Analytics(ctx context.Context, restaurantID string) (*domain.Analytics, error) {
	orders, err := s.store.ListByRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	result := &domain.Analytics{
		TopItems:    []domain.ItemSales{},
		OrdersByDay: []domain.DaySales{},
	}

	itemSales := make(map[string]*domain.ItemSales)
	daySales := make(map[string]*domain.DaySales)

	for _, order := range orders {
		result.TotalOrders++
		result.TotalRevenue += order.Total

		for _, item := range order.Items {
			sales, ok := itemSales[item.MenuItemID]
			if !ok {
				sales = &domain.ItemSales{Name: item.Name}
				itemSales[item.MenuItemID] = sales
			}
			sales.Count += item.Quantity
			sales.Revenue += item.Price * float64(item.Quantity)
		}

		day := order.CreatedAt.UTC().Format("2006-01-02")
		bucket, ok := daySales[day]
		if !ok {
			bucket = &domain.DaySales{Date: day}
			daySales[day] = bucket
		}
		bucket.Count++
		bucket.Revenue += order.Total
	}

	for _, sales := range itemSales {
		result.TopItems = append(result.TopItems, domain.ItemSales{
			Name:    sales.Name,
			Count:   sales.Count,
			Revenue: roundCents(sales.Revenue),
		})
	}
	sort.Slice(result.TopItems, func(i, j int) bool {
		if result.TopItems[i].Count != result.TopItems[j].Count {
			return result.TopItems[i].Count > result.TopItems[j].Count
		}
		return result.TopItems[i].Name < result.TopItems[j].Name
	})
	if len(result.TopItems) > 5 {
		result.TopItems = result.TopItems[:5]
	}

	for _, bucket := range daySales {
		result.OrdersByDay = append(result.OrdersByDay, domain.DaySales{
			Date:    bucket.Date,
			Count:   bucket.Count,
			Revenue: roundCents(bucket.Revenue),
		})
	}
	sort.Slice(result.OrdersByDay, func(i, j int) bool {
		return result.OrdersByDay[i].Date < result.OrdersByDay[j].Date
	})

	result.TotalRevenue = roundCents(result.TotalRevenue)
	return result, nil
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// mirrorStock publishes post-commit availability snapshots for read-side
// consumers. Best effort: failures are logged and never affect the order.
func (s *OrderService) mirrorStock(order domain.Order) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	for _, item := range order.Items {
		available, tracked := s.reservations.Available(item.MenuItemID)
		if !tracked {
			continue
		}
		if err := s.cache.SetStock(ctx, item.MenuItemID, available); err != nil {
			s.log.Debug("stock mirror update failed",
				zap.String("item_id", item.MenuItemID),
				zap.Error(err),
			)
		}
	}
}
