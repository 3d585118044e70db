package assignment

import (
	"context"

	"pharmadispatch/internal/domain"
	"pharmadispatch/internal/ports/dispatchtx"
	"pharmadispatch/internal/ports/wallettx"
)

// repository is the storage surface the orchestrator needs: a transaction
// runner for the locked state-machine steps and a pending-delivery scan for
// bulk runs.
type repository interface {
	dispatchtx.Runner
	ListPending(ctx context.Context, limit int) ([]int64, error)
}

// settler gates and settles courier money movements inside the orchestrator's
// own transactions.
type settler interface {
	CanAcceptWorkTx(ctx context.Context, tx wallettx.Repository, courierID int64) error
	SettleDeliveryTx(ctx context.Context, tx wallettx.Repository, courierID, deliveryID, earning int64) error
}

// notifier pushes an assignment notification to a courier. Delivery of the
// notification is best effort and never affects the assignment itself.
type notifier interface {
	NotifyAssigned(ctx context.Context, r domain.AssignResult) error
}
