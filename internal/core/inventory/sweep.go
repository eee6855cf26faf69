package inventory

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/plateful/plateful/internal/core/domain"
)

// ReleaseExpired releases every active reservation older than the configured
// ttl and reports how many were reclaimed. It guards against callers that
// reserved but never committed or released.
func (m *ReservationManager) ReleaseExpired() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ttl <= 0 {
		return 0
	}

	cutoff := time.Now().Add(-m.ttl)
	released := 0
	for _, r := range m.active {
		if r.CreatedAt.Before(cutoff) {
			m.log.Warn("releasing expired reservation",
				zap.String("order_id", r.OrderID),
				zap.Time("created_at", r.CreatedAt),
			)
			m.terminate(r, domain.ReservationReleased)
			released++
		}
	}
	return released
}

// RunSweeper periodically reclaims expired reservations until ctx is done.
func (m *ReservationManager) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.ReleaseExpired()
		}
	}
}
