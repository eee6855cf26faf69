package inventory

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/plateful/plateful/internal/core/domain"
)

var (
	ErrDuplicateReservation = errors.New("duplicate reservation")
	ErrNoSuchReservation    = errors.New("no such reservation")
	ErrInvalidQuantity      = errors.New("reserved quantity must be positive")
)

// InsufficientStockError names every item that could not cover the requested
// quantity, not just the first.
type InsufficientStockError struct {
	Items []string
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for: %s", strings.Join(e.Items, ", "))
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

// InvariantError reports a ledger decrement that failed for a quantity the
// reservation was already holding. It indicates a bug in the locking
// discipline, not an expected runtime condition.
type InvariantError struct {
	OrderID string
	ItemID  string
	Want    int
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("ledger invariant violated: order %s holds %d of %s but the ledger cannot cover it", e.OrderID, e.Want, e.ItemID)
}

// ReservationManager owns the active reservation table and performs atomic
// check-then-hold across all items of one order. A single mutex serializes
// reserve, commit and release, so no attempt ever observes another attempt's
// intermediate state. All operations are pure in-memory and never block on
// I/O while holding the lock.
type ReservationManager struct {
	mu     sync.Mutex
	ledger *StockLedger
	active map[string]*domain.Reservation
	held   map[string]int // item id -> total quantity held by active reservations
	ttl    time.Duration
	log    *zap.Logger
}

// NewReservationManager wires a manager around a ledger. Reservations older
// than ttl are reclaimed by ReleaseExpired; ttl <= 0 disables expiry.
func NewReservationManager(ledger *StockLedger, ttl time.Duration, log *zap.Logger) *ReservationManager {
	if log == nil {
		log = zap.NewNop()
	}
	return &ReservationManager{
		ledger: ledger,
		active: make(map[string]*domain.Reservation),
		held:   make(map[string]int),
		ttl:    ttl,
		log:    log,
	}
}

// TryReserveAll atomically checks and holds every requested quantity for one
// order. Either all entries are held or none are. Untracked items are always
// sufficient and hold nothing. Duplicate lines for the same item are merged.
// Non-positive quantities are rejected outright: a negative hold would inflate
// availability past the ledger.
func (m *ReservationManager) TryReserveAll(orderID string, lines []domain.OrderLine) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.active[orderID]; ok {
		return ErrDuplicateReservation
	}

	want := make(map[string]int, len(lines))
	for _, line := range lines {
		if line.Quantity <= 0 {
			return ErrInvalidQuantity
		}
		want[line.MenuItemID] += line.Quantity
	}

	ids := make([]string, 0, len(want))
	for id := range want {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	entries := make(map[string]int, len(want))
	var short []string
	for _, id := range ids {
		stock, tracked := m.ledger.TrackedStock(id)
		if !tracked {
			continue
		}
		if stock-m.held[id] < want[id] {
			short = append(short, id)
			continue
		}
		entries[id] = want[id]
	}
	if len(short) > 0 {
		return &InsufficientStockError{Items: short}
	}

	for id, qty := range entries {
		m.held[id] += qty
	}
	m.active[orderID] = &domain.Reservation{
		OrderID:   orderID,
		Entries:   entries,
		State:     domain.ReservationActive,
		CreatedAt: time.Now(),
	}
	return nil
}

// Commit converts an active reservation into permanent ledger decrements and
// removes it from the active set. A second commit for the same order returns
// ErrNoSuchReservation instead of decrementing twice.
//
// A failed decrement means the ledger drifted below a quantity the
// reservation was holding. Remaining entries are skipped, the reservation is
// still terminated so the held capacity is not leaked, and the violation is
// logged and returned.
func (m *ReservationManager) Commit(orderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.active[orderID]
	if !ok {
		return ErrNoSuchReservation
	}

	ids := make([]string, 0, len(r.Entries))
	for id := range r.Entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var violation *InvariantError
	for _, id := range ids {
		qty := r.Entries[id]
		_, err := m.ledger.Decrement(id, qty)
		if errors.Is(err, ErrNotTracked) {
			// Item went untracked while held; nothing left to decrement.
			continue
		}
		if err != nil {
			violation = &InvariantError{OrderID: orderID, ItemID: id, Want: qty}
			m.log.Error("ledger below reserved quantity on commit",
				zap.String("order_id", orderID),
				zap.String("item_id", id),
				zap.Int("quantity", qty),
			)
			break
		}
	}

	m.terminate(r, domain.ReservationCommitted)
	if violation != nil {
		return violation
	}
	return nil
}

// Release discards an active reservation without touching the ledger, making
// the held quantities immediately available again. Releasing an unknown or
// already terminal reservation is a no-op.
func (m *ReservationManager) Release(orderID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.active[orderID]
	if !ok {
		return
	}
	m.terminate(r, domain.ReservationReleased)
}

// Available returns ledger stock minus active holds for a tracked item. The
// second return is false for untracked items.
func (m *ReservationManager) Available(itemID string) (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stock, tracked := m.ledger.TrackedStock(itemID)
	if !tracked {
		return 0, false
	}
	return stock - m.held[itemID], true
}

// ActiveReserved returns the total quantity of an item held by active
// reservations.
func (m *ReservationManager) ActiveReserved(itemID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.held[itemID]
}

// terminate must be called with m.mu held.
func (m *ReservationManager) terminate(r *domain.Reservation, state domain.ReservationState) {
	for id, qty := range r.Entries {
		m.held[id] -= qty
		if m.held[id] <= 0 {
			delete(m.held, id)
		}
	}
	r.State = state
	delete(m.active, r.OrderID)
}
