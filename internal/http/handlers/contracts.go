package handlers

import (
	"context"

	"pharmadispatch/internal/domain"
	"pharmadispatch/internal/geo"
)

type courierUsecase interface {
	Get(ctx context.Context, id int64) (*domain.Courier, error)
	List(ctx context.Context, limit, offset *int) ([]domain.Courier, error)
	Create(ctx context.Context, c *domain.Courier) (int64, error)
	UpdatePartial(ctx context.Context, u domain.PartialCourierUpdate) (bool, error)
	UpdateLocation(ctx context.Context, id int64, p geo.Point) error
}

type dispatchUsecase interface {
	Assign(ctx context.Context, deliveryID int64) (*domain.AssignResult, error)
	ManualAssign(ctx context.Context, deliveryID, courierID int64) (*domain.AssignResult, error)
	Reassign(ctx context.Context, deliveryID int64, reason string) (*domain.AssignResult, error)
	BulkAssign(ctx context.Context, limit int) (domain.BulkAssignReport, error)
	Accept(ctx context.Context, deliveryID, courierID int64) error
	Pickup(ctx context.Context, deliveryID, courierID int64) error
	Transit(ctx context.Context, deliveryID, courierID int64) error
	Complete(ctx context.Context, deliveryID, courierID int64) error
	Cancel(ctx context.Context, deliveryID int64, reason string) error
	Fail(ctx context.Context, deliveryID int64, reason string) error
}

type walletUsecase interface {
	Balance(ctx context.Context, owner domain.WalletOwner) (*domain.Wallet, error)
	Transactions(ctx context.Context, owner domain.WalletOwner, limit, offset int) ([]domain.WalletTransaction, error)
	Topup(ctx context.Context, owner domain.WalletOwner, amount int64) (*domain.WalletTransaction, error)
	Withdraw(ctx context.Context, owner domain.WalletOwner, amount int64) (*domain.WalletTransaction, error)
	SettleWithdrawal(ctx context.Context, reference string, succeeded bool) error
}
