package domain

import "time"

type ReservationState string

const (
	ReservationActive    ReservationState = "active"
	ReservationCommitted ReservationState = "committed"
	ReservationReleased  ReservationState = "released"
)

// Reservation is a temporary hold on stock for one order. It is created only
// by a successful reserve-all attempt and transitions to exactly one of
// committed or released.
type Reservation struct {
	OrderID   string
	Entries   map[string]int // item id -> held quantity
	State     ReservationState
	CreatedAt time.Time
}
