package wallet

import (
	"context"
	"time"

	"github.com/google/uuid"

	"pharmadispatch/internal/apperr"
	"pharmadispatch/internal/domain"
	"pharmadispatch/internal/logx"
	"pharmadispatch/internal/ports/wallettx"
)

// DefaultCurrency is assigned to wallets created on first use.
const DefaultCurrency = "UZS"

// EntryParams describes one requested ledger movement.
type EntryParams struct {
	Category    domain.TxCategory
	Reference   string // generated when empty
	Description string
	DeliveryID  *int64
}

// Service is the append-only wallet ledger. Every mutation runs as one
// transaction: the balance update and the ledger entry commit together or
// not at all.
type Service struct {
	repo             walletRepository
	operationTimeout time.Duration
	logger           logx.Logger
	newRef           func() string
}

// NewService creates and configures a wallet Service.
func NewService(r walletRepository, timeout time.Duration, logger logx.Logger) *Service {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Service{
		repo:             r,
		operationTimeout: timeout,
		logger:           logger,
		newRef:           uuid.NewString,
	}
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.operationTimeout)
}

// Credit adds amount to the owner's wallet, creating the wallet on first use.
func (s *Service) Credit(ctx context.Context, owner domain.WalletOwner, amount int64, p EntryParams) (*domain.WalletTransaction, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var out *domain.WalletTransaction
	err := s.repo.WithTx(ctx, func(tx wallettx.Repository) error {
		t, err := s.CreditTx(ctx, tx, owner, amount, p)
		if err != nil {
			return err
		}
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("wallet credited",
		logx.String("owner_kind", string(owner.Kind)),
		logx.Int64("owner_id", owner.ID),
		logx.Int64("amount", amount),
		logx.String("category", string(out.Category)),
		logx.String("reference", out.Reference),
	)
	return out, nil
}

// Debit removes amount from the owner's wallet. The balance check and the
// decrement are one locked step; a debit that would go negative changes
// nothing.
func (s *Service) Debit(ctx context.Context, owner domain.WalletOwner, amount int64, p EntryParams) (*domain.WalletTransaction, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var out *domain.WalletTransaction
	err := s.repo.WithTx(ctx, func(tx wallettx.Repository) error {
		t, err := s.DebitTx(ctx, tx, owner, amount, p)
		if err != nil {
			return err
		}
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("wallet debited",
		logx.String("owner_kind", string(owner.Kind)),
		logx.Int64("owner_id", owner.ID),
		logx.Int64("amount", amount),
		logx.String("category", string(out.Category)),
		logx.String("reference", out.Reference),
	)
	return out, nil
}

// Transfer moves amount between two wallets as a correlated debit/credit
// pair sharing one reference. Either both entries commit or neither does.
func (s *Service) Transfer(ctx context.Context, from, to domain.WalletOwner, amount int64, p EntryParams) (debit, credit *domain.WalletTransaction, err error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	err = s.repo.WithTx(ctx, func(tx wallettx.Repository) error {
		debit, credit, err = s.TransferTx(ctx, tx, from, to, amount, p)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return debit, credit, nil
}

// CreditTx is Credit running inside a caller-owned transaction.
func (s *Service) CreditTx(ctx context.Context, tx wallettx.Repository, owner domain.WalletOwner, amount int64, p EntryParams) (*domain.WalletTransaction, error) {
	if err := validateEntry(owner, amount, &p, s.newRef); err != nil {
		return nil, err
	}

	w, err := s.walletForUpdate(ctx, tx, owner, true)
	if err != nil {
		return nil, err
	}

	newBalance := w.Balance + amount
	if err := tx.UpdateWalletBalance(ctx, w.ID, newBalance); err != nil {
		return nil, err
	}

	t := &domain.WalletTransaction{
		WalletID:     w.ID,
		Type:         domain.TxCredit,
		Amount:       amount,
		BalanceAfter: newBalance,
		Category:     p.Category,
		DeliveryID:   p.DeliveryID,
		Status:       domain.TxCompleted,
		Reference:    p.Reference,
		Description:  p.Description,
	}
	if err := tx.InsertWalletTransaction(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// DebitTx is Debit running inside a caller-owned transaction.
func (s *Service) DebitTx(ctx context.Context, tx wallettx.Repository, owner domain.WalletOwner, amount int64, p EntryParams) (*domain.WalletTransaction, error) {
	if err := validateEntry(owner, amount, &p, s.newRef); err != nil {
		return nil, err
	}

	w, err := s.walletForUpdate(ctx, tx, owner, false)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, apperr.ErrInsufficientBalance
	}

	available, err := availableBalance(ctx, tx, w)
	if err != nil {
		return nil, err
	}
	if available < amount {
		return nil, apperr.ErrInsufficientBalance
	}

	newBalance := w.Balance - amount
	if err := tx.UpdateWalletBalance(ctx, w.ID, newBalance); err != nil {
		return nil, err
	}

	t := &domain.WalletTransaction{
		WalletID:     w.ID,
		Type:         domain.TxDebit,
		Amount:       amount,
		BalanceAfter: newBalance,
		Category:     p.Category,
		DeliveryID:   p.DeliveryID,
		Status:       domain.TxCompleted,
		Reference:    p.Reference,
		Description:  p.Description,
	}
	if err := tx.InsertWalletTransaction(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// TransferTx is Transfer running inside a caller-owned transaction. Wallets
// are locked in a stable owner order to avoid deadlocks between concurrent
// opposite transfers.
func (s *Service) TransferTx(ctx context.Context, tx wallettx.Repository, from, to domain.WalletOwner, amount int64, p EntryParams) (debit, credit *domain.WalletTransaction, err error) {
	if err := validateEntry(from, amount, &p, s.newRef); err != nil {
		return nil, nil, err
	}
	if !to.Valid() || from == to {
		return nil, nil, apperr.ErrInvalid
	}

	if ownerBefore(from, to) {
		debit, err = s.DebitTx(ctx, tx, from, amount, p)
		if err != nil {
			return nil, nil, err
		}
		credit, err = s.CreditTx(ctx, tx, to, amount, p)
		if err != nil {
			return nil, nil, err
		}
	} else {
		credit, err = s.CreditTx(ctx, tx, to, amount, p)
		if err != nil {
			return nil, nil, err
		}
		debit, err = s.DebitTx(ctx, tx, from, amount, p)
		if err != nil {
			return nil, nil, err
		}
	}
	return debit, credit, nil
}

// Topup credits a deposit to the owner's wallet.
func (s *Service) Topup(ctx context.Context, owner domain.WalletOwner, amount int64) (*domain.WalletTransaction, error) {
	return s.Credit(ctx, owner, amount, EntryParams{Category: domain.CategoryTopup, Description: "wallet topup"})
}

// Withdraw places a pending debit hold for an asynchronous payout. The
// stored balance stays untouched until the payout settles; the hold is
// counted against every later balance check.
func (s *Service) Withdraw(ctx context.Context, owner domain.WalletOwner, amount int64) (*domain.WalletTransaction, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	p := EntryParams{Category: domain.CategoryWithdrawal}
	if err := validateEntry(owner, amount, &p, s.newRef); err != nil {
		return nil, err
	}

	var out *domain.WalletTransaction
	err := s.repo.WithTx(ctx, func(tx wallettx.Repository) error {
		w, err := s.walletForUpdate(ctx, tx, owner, false)
		if err != nil {
			return err
		}
		if w == nil {
			return apperr.ErrInsufficientBalance
		}

		available, err := availableBalance(ctx, tx, w)
		if err != nil {
			return err
		}
		if available < amount {
			return apperr.ErrInsufficientBalance
		}

		t := &domain.WalletTransaction{
			WalletID:     w.ID,
			Type:         domain.TxDebit,
			Amount:       amount,
			BalanceAfter: w.Balance - amount,
			Category:     domain.CategoryWithdrawal,
			Status:       domain.TxPending,
			Reference:    p.Reference,
			Description:  "withdrawal request",
		}
		if err := tx.InsertWalletTransaction(ctx, t); err != nil {
			return err
		}
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("withdrawal requested",
		logx.String("owner_kind", string(owner.Kind)),
		logx.Int64("owner_id", owner.ID),
		logx.Int64("amount", amount),
		logx.String("reference", out.Reference),
	)
	return out, nil
}

// SettleWithdrawal resolves a pending withdrawal hold once the payout
// provider reports the outcome. A successful payout completes the entry and
// decrements the balance in the same transaction; a failed payout releases
// the hold without touching the balance.
func (s *Service) SettleWithdrawal(ctx context.Context, reference string, succeeded bool) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	err := s.repo.WithTx(ctx, func(tx wallettx.Repository) error {
		t, err := tx.GetPendingTransactionForUpdate(ctx, reference)
		if err != nil {
			return err
		}
		if t == nil {
			return apperr.ErrNotFound
		}

		if !succeeded {
			return tx.SetTransactionStatus(ctx, t.ID, domain.TxFailed)
		}

		w, err := tx.GetWalletForUpdate(ctx, t.WalletID)
		if err != nil {
			return err
		}
		if w == nil {
			return apperr.ErrNotFound
		}
		if err := tx.UpdateWalletBalance(ctx, w.ID, w.Balance-t.Amount); err != nil {
			return err
		}
		return tx.SetTransactionStatus(ctx, t.ID, domain.TxCompleted)
	})
	if err != nil {
		return err
	}

	s.logger.Info("withdrawal settled",
		logx.String("reference", reference),
		logx.Any("succeeded", succeeded),
	)
	return nil
}

// Balance returns the owner's wallet.
func (s *Service) Balance(ctx context.Context, owner domain.WalletOwner) (*domain.Wallet, error) {
	if !owner.Valid() {
		return nil, apperr.ErrInvalid
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	w, err := s.repo.GetByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, apperr.ErrNotFound
	}
	return w, nil
}

// Transactions returns the owner's ledger history, newest first.
func (s *Service) Transactions(ctx context.Context, owner domain.WalletOwner, limit, offset int) ([]domain.WalletTransaction, error) {
	if !owner.Valid() {
		return nil, apperr.ErrInvalid
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	w, err := s.repo.GetByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return []domain.WalletTransaction{}, nil
	}
	return s.repo.ListTransactions(ctx, w.ID, limit, offset)
}

func validateEntry(owner domain.WalletOwner, amount int64, p *EntryParams, newRef func() string) error {
	if !owner.Valid() {
		return apperr.ErrInvalid
	}
	if amount <= 0 {
		return apperr.ErrInvalidAmount
	}
	if !p.Category.Valid() {
		return apperr.ErrInvalid
	}
	if p.Reference == "" {
		p.Reference = newRef()
	}
	return nil
}

// walletForUpdate locks the owner's wallet, optionally creating it.
func (s *Service) walletForUpdate(ctx context.Context, tx wallettx.Repository, owner domain.WalletOwner, create bool) (*domain.Wallet, error) {
	w, err := tx.GetWalletByOwnerForUpdate(ctx, owner)
	if err != nil {
		return nil, err
	}
	if w == nil && create {
		return tx.CreateWallet(ctx, owner, DefaultCurrency)
	}
	return w, nil
}

func availableBalance(ctx context.Context, tx wallettx.Repository, w *domain.Wallet) (int64, error) {
	holds, err := tx.SumPendingDebits(ctx, w.ID)
	if err != nil {
		return 0, err
	}
	return w.Balance - holds, nil
}

// ownerBefore is a stable total order over wallet owners used for lock ordering.
func ownerBefore(a, b domain.WalletOwner) bool {
	if a.Kind != b.Kind {
		return a.Kind < b.Kind
	}
	return a.ID < b.ID
}
