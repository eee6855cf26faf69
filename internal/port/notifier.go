package port

import "github.com/plateful/plateful/internal/core/domain"

type Notifier interface {
	// OrderCreated dispatches an order confirmation without blocking the
	// caller; completion is not ordered with respect to the submit response
	OrderCreated(order domain.Order)
}
