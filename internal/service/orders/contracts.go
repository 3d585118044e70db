package orders

import (
	"context"

	"pharmadispatch/internal/domain"
)

// DeliveryStore abstracts the delivery persistence the Processor needs when
// handling order events.
type DeliveryStore interface {
	Create(ctx context.Context, d *domain.Delivery) (int64, error)
	GetByOrderID(ctx context.Context, orderID string) (*domain.Delivery, error)
}

// Dispatcher abstracts the subset of assignment operations needed by the
// Processor.
type Dispatcher interface {
	Assign(ctx context.Context, deliveryID int64) (*domain.AssignResult, error)
	Cancel(ctx context.Context, deliveryID int64, reason string) error
}

// Pricer quotes order totals at delivery creation time.
type Pricer interface {
	Quote(subtotal int64, distanceKm float64, method domain.PaymentMethod) domain.OrderTotals
}
