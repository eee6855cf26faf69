package notify

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/plateful/plateful/internal/core/domain"
	"github.com/plateful/plateful/internal/port"
)

// Dispatcher delivers order confirmations off the request path. OrderCreated
// never blocks: orders are queued to a worker pool, and when the queue is
// full the notification is dropped with a warning rather than delaying the
// submit response. Delivery is recorded by stamping notified_at on the order
// and moving it from pending to confirmed.
type Dispatcher struct {
	store port.OrderStore
	log   *zap.Logger
	queue chan domain.Order

	workers   sync.WaitGroup
	pending   sync.WaitGroup
	closeOnce sync.Once
}

func NewDispatcher(store port.OrderStore, log *zap.Logger, workers, queueSize int) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	d := &Dispatcher{
		store: store,
		log:   log,
		queue: make(chan domain.Order, queueSize),
	}

	for i := 0; i < workers; i++ {
		d.workers.Add(1)
		go func(id int) {
			defer d.workers.Done()
			d.workerLoop(id)
		}(i)
	}
	return d
}

func (d *Dispatcher) OrderCreated(order domain.Order) {
	d.pending.Add(1)
	select {
	case d.queue <- order:
	default:
		d.pending.Done()
		d.log.Warn("notification queue full, dropping confirmation",
			zap.String("order_id", order.ID),
		)
	}
}

// Flush blocks until every queued notification has been processed. Intended
// for tests that need to assert on notification side effects without sleeps.
func (d *Dispatcher) Flush() {
	d.pending.Wait()
}

// Close stops the workers after draining the queue.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		close(d.queue)
	})
	d.workers.Wait()
}

func (d *Dispatcher) workerLoop(id int) {
	for order := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)

		if err := d.store.SetNotified(ctx, order.ID, time.Now()); err != nil {
			d.log.Warn("failed to record order notification",
				zap.Int("worker", id),
				zap.String("order_id", order.ID),
				zap.Error(err),
			)
		} else {
			if err := d.store.UpdateStatus(ctx, order.ID, domain.OrderStatusConfirmed); err != nil {
				d.log.Warn("failed to confirm order after notification",
					zap.Int("worker", id),
					zap.String("order_id", order.ID),
					zap.Error(err),
				)
			}
			d.log.Info("order confirmation sent",
				zap.Int("worker", id),
				zap.String("order_id", order.ID),
				zap.String("customer", order.CustomerName),
			)
		}

		cancel()
		d.pending.Done()
	}
}
