package inventory

import (
	"errors"
	"sync"
)

var (
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrNotTracked        = errors.New("item is not tracked")
)

// StockLedger is the single source of truth for tracked stock counts.
// Items without an entry are untracked and have unlimited availability.
// Menu writes that change stock must go through SetTracked/ClearTracked;
// nothing else mutates the counts except Decrement on commit.
type StockLedger struct {
	mu      sync.Mutex
	tracked map[string]int
}

func NewStockLedger() *StockLedger {
	return &StockLedger{tracked: make(map[string]int)}
}

// TrackedStock returns the current count for a tracked item. The second
// return is false for untracked items.
func (l *StockLedger) TrackedStock(itemID string) (int, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	stock, ok := l.tracked[itemID]
	return stock, ok
}

func (l *StockLedger) SetTracked(itemID string, stock int) {
	if stock < 0 {
		stock = 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tracked[itemID] = stock
}

// ClearTracked makes an item untracked, removing it from reservation checks.
func (l *StockLedger) ClearTracked(itemID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.tracked, itemID)
}

// Decrement atomically subtracts quantity from a tracked item and returns the
// new count. It fails with ErrInsufficientStock rather than ever going
// negative, even though callers are expected to have reserved first.
func (l *StockLedger) Decrement(itemID string, quantity int) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	current, ok := l.tracked[itemID]
	if !ok {
		return 0, ErrNotTracked
	}
	if quantity > current {
		return current, ErrInsufficientStock
	}

	l.tracked[itemID] = current - quantity
	return current - quantity, nil
}
