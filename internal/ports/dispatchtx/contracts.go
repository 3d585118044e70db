package dispatchtx

import (
	"context"
	"time"

	"pharmadispatch/internal/dispatch"
	"pharmadispatch/internal/domain"
	"pharmadispatch/internal/ports/wallettx"
)

// Repository is the dispatch storage surface visible inside one transaction.
// It embeds the wallet ledger surface so that delivery completion and
// commission settlement commit as a single unit of work.
type Repository interface {
	wallettx.Repository

	GetDeliveryForUpdate(ctx context.Context, id int64) (*domain.Delivery, error)
	SetDeliveryAssigned(ctx context.Context, id, courierID int64, at time.Time) error
	SetDeliveryStatus(ctx context.Context, id int64, status domain.DeliveryStatus, at time.Time) error
	ResetDeliveryToPending(ctx context.Context, id int64, reason string) error
	SetDeliveryCancelReason(ctx context.Context, id int64, reason string) error

	GetCourierForUpdate(ctx context.Context, id int64) (*domain.Courier, error)
	UpdateCourierStatus(ctx context.Context, id int64, status domain.CourierStatus) error
	IncrementCompletedDeliveries(ctx context.Context, courierID int64) error
	CountActiveDeliveries(ctx context.Context, courierID int64) (int, error)
	ListCandidates(ctx context.Context) ([]dispatch.Candidate, error)
}

// Runner is a transaction runner
type Runner interface {
	WithTx(ctx context.Context, fn func(tx Repository) error) error
}
