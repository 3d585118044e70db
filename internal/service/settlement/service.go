package settlement

import (
	"context"

	"pharmadispatch/internal/apperr"
	"pharmadispatch/internal/config"
	"pharmadispatch/internal/domain"
	"pharmadispatch/internal/logx"
	"pharmadispatch/internal/ports/wallettx"
	"pharmadispatch/internal/service/wallet"
)

// ledger is the slice of the wallet service settlement runs on. All methods
// operate inside a caller-owned transaction.
type ledger interface {
	CreditTx(ctx context.Context, tx wallettx.Repository, owner domain.WalletOwner, amount int64, p wallet.EntryParams) (*domain.WalletTransaction, error)
	TransferTx(ctx context.Context, tx wallettx.Repository, from, to domain.WalletOwner, amount int64, p wallet.EntryParams) (*domain.WalletTransaction, *domain.WalletTransaction, error)
}

// Service settles money between couriers and the platform when deliveries
// move through their lifecycle.
type Service struct {
	wallets    ledger
	commission config.Commission
	logger     logx.Logger
}

// NewService creates and configures a settlement Service.
func NewService(wallets ledger, commission config.Commission, logger logx.Logger) *Service {
	return &Service{wallets: wallets, commission: commission, logger: logger}
}

// CanAcceptWorkTx reports whether the courier's available balance covers the
// per-delivery commission. It runs inside the acceptance transaction so the
// check and the acceptance commit together.
func (s *Service) CanAcceptWorkTx(ctx context.Context, tx wallettx.Repository, courierID int64) error {
	if s.commission.Amount == 0 {
		return nil
	}

	w, err := tx.GetWalletByOwnerForUpdate(ctx, domain.CourierOwner(courierID))
	if err != nil {
		return err
	}
	if w == nil {
		return apperr.ErrInsufficientBalance
	}

	holds, err := tx.SumPendingDebits(ctx, w.ID)
	if err != nil {
		return err
	}
	if w.Balance-holds < s.commission.Amount {
		return apperr.ErrInsufficientBalance
	}
	return nil
}

// SettleDeliveryTx credits the courier's delivery earning and collects the
// platform commission as one paired transfer, all inside the caller's
// transaction. Settlement is all or nothing with the delivery completion.
func (s *Service) SettleDeliveryTx(ctx context.Context, tx wallettx.Repository, courierID, deliveryID, earning int64) error {
	courier := domain.CourierOwner(courierID)

	if earning > 0 {
		if _, err := s.wallets.CreditTx(ctx, tx, courier, earning, wallet.EntryParams{
			Category:    domain.CategoryDeliveryEarning,
			Description: "delivery earning",
			DeliveryID:  &deliveryID,
		}); err != nil {
			return err
		}
	}

	if s.commission.Amount > 0 {
		if _, _, err := s.wallets.TransferTx(ctx, tx, courier, domain.PlatformOwner(), s.commission.Amount, wallet.EntryParams{
			Category:    domain.CategoryCommission,
			Description: "platform commission",
			DeliveryID:  &deliveryID,
		}); err != nil {
			return err
		}
	}

	s.logger.Info("delivery settled",
		logx.Int64("courier_id", courierID),
		logx.Int64("delivery_id", deliveryID),
		logx.Int64("earning", earning),
		logx.Int64("commission", s.commission.Amount),
	)
	return nil
}
