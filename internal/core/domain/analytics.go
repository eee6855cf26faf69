package domain

// ItemSales aggregates how often a menu item was ordered and the revenue it
// brought in, at the prices captured on the orders.
type ItemSales struct {
	Name    string
	Count   int
	Revenue float64
}

// DaySales buckets order count and revenue by calendar day (UTC).
type DaySales struct {
	Date    string
	Count   int
	Revenue float64
}

// Analytics is the per-restaurant sales summary: totals, the five most
// ordered items, and a per-day breakdown.
type Analytics struct {
	TotalOrders  int
	TotalRevenue float64
	TopItems     []ItemSales
	OrdersByDay  []DaySales
}
