package domain

import "time"

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// OrderLine is what a customer submits: a menu item reference and a quantity.
type OrderLine struct {
	MenuItemID string
	Quantity   int
}

// OrderItem is a finalized line on a persisted order, with the name and price
// captured at order time.
type OrderItem struct {
	MenuItemID string
	Name       string
	Quantity   int
	Price      float64
}

type Order struct {
	ID           string
	RestaurantID string
	CustomerName string
	Items        []OrderItem
	Total        float64
	Status       OrderStatus
	NotifiedAt   *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
