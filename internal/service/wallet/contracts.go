package wallet

import (
	"context"

	"pharmadispatch/internal/domain"
	"pharmadispatch/internal/ports/wallettx"
)

// walletRepository defines storage operations required by the ledger layer.
type walletRepository interface {
	wallettx.Runner
	GetByOwner(ctx context.Context, owner domain.WalletOwner) (*domain.Wallet, error)
	ListTransactions(ctx context.Context, walletID int64, limit, offset int) ([]domain.WalletTransaction, error)
}
