package domain

import "time"

type Restaurant struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// MenuItem belongs to exactly one restaurant. TrackedStock is nil for
// untracked items, which are never subject to reservation checks.
type MenuItem struct {
	ID           string
	RestaurantID string
	Name         string
	Description  string
	Price        float64
	Category     string
	Available    bool
	TrackedStock *int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// MenuItemUpdate carries a partial update; nil fields are left unchanged.
// Untrack removes stock tracking and wins over TrackedStock when both are set.
type MenuItemUpdate struct {
	Name         *string
	Description  *string
	Price        *float64
	Category     *string
	Available    *bool
	TrackedStock *int
	Untrack      bool
}
