package wallettx

import (
	"context"

	"pharmadispatch/internal/domain"
)

// Repository is the wallet ledger surface visible inside one transaction.
// Rows fetched ForUpdate stay locked until the transaction ends.
type Repository interface {
	GetWalletForUpdate(ctx context.Context, id int64) (*domain.Wallet, error)
	GetWalletByOwnerForUpdate(ctx context.Context, owner domain.WalletOwner) (*domain.Wallet, error)
	CreateWallet(ctx context.Context, owner domain.WalletOwner, currency string) (*domain.Wallet, error)
	UpdateWalletBalance(ctx context.Context, id int64, balance int64) error
	InsertWalletTransaction(ctx context.Context, t *domain.WalletTransaction) error
	SumPendingDebits(ctx context.Context, walletID int64) (int64, error)
	GetPendingTransactionForUpdate(ctx context.Context, reference string) (*domain.WalletTransaction, error)
	SetTransactionStatus(ctx context.Context, id int64, status domain.TxStatus) error
}

// Runner is a transaction runner
type Runner interface {
	WithTx(ctx context.Context, fn func(tx Repository) error) error
}
