package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/plateful/plateful/internal/core/domain"
)

type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

func (m *MySQLAdapter) Save(ctx context.Context, order domain.Order) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, restaurant_id, customer_name, total, status, notified_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, NULL, ?, ?)`,
		order.ID, order.RestaurantID, order.CustomerName, order.Total, order.Status,
		order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for _, item := range order.Items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, menu_item_id, name, quantity, price)
			VALUES (?, ?, ?, ?, ?)`,
			order.ID, item.MenuItemID, item.Name, item.Quantity, item.Price,
		)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	return tx.Commit()
}

func (m *MySQLAdapter) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	var order domain.Order
	var notifiedAt sql.NullTime

	err := m.db.QueryRowContext(ctx, `
		SELECT id, restaurant_id, customer_name, total, status, notified_at, created_at, updated_at
		FROM orders WHERE id = ?`, id,
	).Scan(&order.ID, &order.RestaurantID, &order.CustomerName, &order.Total,
		&order.Status, &notifiedAt, &order.CreatedAt, &order.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query order: %w", err)
	}
	if notifiedAt.Valid {
		order.NotifiedAt = &notifiedAt.Time
	}

	items, err := m.orderItems(ctx, id)
	if err != nil {
		return nil, err
	}
	order.Items = items

	return &order, nil
}

func (m *MySQLAdapter) ListByRestaurant(ctx context.Context, restaurantID string) ([]domain.Order, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, restaurant_id, customer_name, total, status, notified_at, created_at, updated_at
		FROM orders WHERE restaurant_id = ? ORDER BY created_at`, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var order domain.Order
		var notifiedAt sql.NullTime
		if err := rows.Scan(&order.ID, &order.RestaurantID, &order.CustomerName, &order.Total,
			&order.Status, &notifiedAt, &order.CreatedAt, &order.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		if notifiedAt.Valid {
			order.NotifiedAt = &notifiedAt.Time
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}

	for i := range orders {
		items, err := m.orderItems(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}

	return orders, nil
}

func (m *MySQLAdapter) orderItems(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT menu_item_id, name, quantity, price
		FROM order_items WHERE order_id = ?`, orderID)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.MenuItemID, &item.Name, &item.Quantity, &item.Price); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}
	return items, nil
}

func (m *MySQLAdapter) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	result, err := m.db.ExecContext(ctx, `
		UPDATE orders SET status = ?, updated_at = NOW() WHERE id = ?`,
		status, id,
	)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrOrderNotFound
	}

	return nil
}

func (m *MySQLAdapter) SetNotified(ctx context.Context, id string, at time.Time) error {
	result, err := m.db.ExecContext(ctx, `
		UPDATE orders SET notified_at = ?, updated_at = NOW() WHERE id = ?`,
		at, id,
	)
	if err != nil {
		return fmt.Errorf("update order notified_at: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrOrderNotFound
	}

	return nil
}
