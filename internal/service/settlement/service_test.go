package settlement

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"pharmadispatch/internal/apperr"
	"pharmadispatch/internal/config"
	"pharmadispatch/internal/domain"
	"pharmadispatch/internal/logx"
	"pharmadispatch/internal/ports/wallettx"
	"pharmadispatch/internal/service/wallet"
)

// stubTx is an in-memory wallettx.Repository. There is no rollback here;
// tests acting through it assert final state only.
type stubTx struct {
	wallets map[int64]*domain.Wallet
	entries []domain.WalletTransaction
	nextID  int64
}

func newStubTx() *stubTx {
	return &stubTx{wallets: map[int64]*domain.Wallet{}, nextID: 1}
}

func (s *stubTx) seed(owner domain.WalletOwner, balance int64) *domain.Wallet {
	w := &domain.Wallet{ID: s.nextID, Owner: owner, Balance: balance, Currency: wallet.DefaultCurrency}
	s.nextID++
	s.wallets[w.ID] = w
	return w
}

func (s *stubTx) WithTx(_ context.Context, fn func(tx wallettx.Repository) error) error {
	return fn(s)
}

func (s *stubTx) GetWalletForUpdate(_ context.Context, id int64) (*domain.Wallet, error) {
	return s.wallets[id], nil
}

func (s *stubTx) GetWalletByOwnerForUpdate(_ context.Context, owner domain.WalletOwner) (*domain.Wallet, error) {
	for _, w := range s.wallets {
		if w.Owner == owner {
			return w, nil
		}
	}
	return nil, nil
}

func (s *stubTx) CreateWallet(_ context.Context, owner domain.WalletOwner, currency string) (*domain.Wallet, error) {
	w := &domain.Wallet{ID: s.nextID, Owner: owner, Currency: currency}
	s.nextID++
	s.wallets[w.ID] = w
	return w, nil
}

func (s *stubTx) UpdateWalletBalance(_ context.Context, id int64, balance int64) error {
	s.wallets[id].Balance = balance
	return nil
}

func (s *stubTx) InsertWalletTransaction(_ context.Context, t *domain.WalletTransaction) error {
	t.ID = s.nextID
	s.nextID++
	t.CreatedAt = time.Now()
	s.entries = append(s.entries, *t)
	return nil
}

func (s *stubTx) SumPendingDebits(_ context.Context, walletID int64) (int64, error) {
	var sum int64
	for _, e := range s.entries {
		if e.WalletID == walletID && e.Type == domain.TxDebit && e.Status == domain.TxPending {
			sum += e.Amount
		}
	}
	return sum, nil
}

func (s *stubTx) GetPendingTransactionForUpdate(_ context.Context, reference string) (*domain.WalletTransaction, error) {
	for i := range s.entries {
		if s.entries[i].Reference == reference && s.entries[i].Status == domain.TxPending {
			cp := s.entries[i]
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *stubTx) SetTransactionStatus(_ context.Context, id int64, status domain.TxStatus) error {
	for i := range s.entries {
		if s.entries[i].ID == id {
			s.entries[i].Status = status
			return nil
		}
	}
	return apperr.ErrNotFound
}

func (s *stubTx) GetByOwner(ctx context.Context, owner domain.WalletOwner) (*domain.Wallet, error) {
	return s.GetWalletByOwnerForUpdate(ctx, owner)
}

func (s *stubTx) ListTransactions(_ context.Context, walletID int64, _, _ int) ([]domain.WalletTransaction, error) {
	var out []domain.WalletTransaction
	for _, e := range s.entries {
		if e.WalletID == walletID {
			out = append(out, e)
		}
	}
	return out, nil
}

func newTestService(tx *stubTx, commission int64) *Service {
	wallets := wallet.NewService(tx, time.Second, logx.Nop())
	return NewService(wallets, config.Commission{Amount: commission}, logx.Nop())
}

func TestCanAcceptWorkTx(t *testing.T) {
	tests := []struct {
		name    string
		balance int64
		hold    int64
		wantErr error
	}{
		{name: "covers commission", balance: 200},
		{name: "exceeds commission", balance: 1000},
		{name: "below commission", balance: 150, wantErr: apperr.ErrInsufficientBalance},
		{name: "hold eats the balance", balance: 400, hold: 300, wantErr: apperr.ErrInsufficientBalance},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := newStubTx()
			w := tx.seed(domain.CourierOwner(7), tt.balance)
			if tt.hold > 0 {
				require.NoError(t, tx.InsertWalletTransaction(context.Background(), &domain.WalletTransaction{
					WalletID: w.ID,
					Type:     domain.TxDebit,
					Amount:   tt.hold,
					Category: domain.CategoryWithdrawal,
					Status:   domain.TxPending,
				}))
			}
			svc := newTestService(tx, 200)

			err := svc.CanAcceptWorkTx(context.Background(), tx, 7)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestCanAcceptWorkTx_NoWallet(t *testing.T) {
	tx := newStubTx()
	svc := newTestService(tx, 200)

	require.ErrorIs(t, svc.CanAcceptWorkTx(context.Background(), tx, 7), apperr.ErrInsufficientBalance)
}

func TestCanAcceptWorkTx_ZeroCommissionAlwaysPasses(t *testing.T) {
	tx := newStubTx()
	svc := newTestService(tx, 0)

	require.NoError(t, svc.CanAcceptWorkTx(context.Background(), tx, 7))
}

func TestSettleDeliveryTx_EarningAndCommission(t *testing.T) {
	tx := newStubTx()
	courier := tx.seed(domain.CourierOwner(7), 500)
	svc := newTestService(tx, 200)

	require.NoError(t, svc.SettleDeliveryTx(context.Background(), tx, 7, 42, 800))

	// 500 + 800 earning - 200 commission
	require.Equal(t, int64(1100), tx.wallets[courier.ID].Balance)

	platform, err := tx.GetByOwner(context.Background(), domain.PlatformOwner())
	require.NoError(t, err)
	require.Equal(t, int64(200), platform.Balance)
}

func TestSettleDeliveryTx_CommissionEntriesArePaired(t *testing.T) {
	tx := newStubTx()
	tx.seed(domain.CourierOwner(7), 500)
	svc := newTestService(tx, 200)

	require.NoError(t, svc.SettleDeliveryTx(context.Background(), tx, 7, 42, 800))

	var debit, credit *domain.WalletTransaction
	for i := range tx.entries {
		if tx.entries[i].Category != domain.CategoryCommission {
			continue
		}
		if tx.entries[i].Type == domain.TxDebit {
			debit = &tx.entries[i]
		} else {
			credit = &tx.entries[i]
		}
	}
	require.NotNil(t, debit)
	require.NotNil(t, credit)
	require.Equal(t, debit.Reference, credit.Reference)
	require.Equal(t, domain.TxCompleted, debit.Status)
	require.Equal(t, domain.TxCompleted, credit.Status)
	require.Equal(t, int64(42), *debit.DeliveryID)
}

func TestSettleDeliveryTx_EarningCoversCommission(t *testing.T) {
	// a courier that passed the acceptance gate never fails settlement: the
	// earning lands before the commission is collected
	tx := newStubTx()
	courier := tx.seed(domain.CourierOwner(7), 200)
	svc := newTestService(tx, 200)

	require.NoError(t, svc.SettleDeliveryTx(context.Background(), tx, 7, 42, 800))
	require.Equal(t, int64(800), tx.wallets[courier.ID].Balance)
}

func TestSettleDeliveryTx_ZeroEarningSkipsCredit(t *testing.T) {
	tx := newStubTx()
	courier := tx.seed(domain.CourierOwner(7), 500)
	svc := newTestService(tx, 200)

	require.NoError(t, svc.SettleDeliveryTx(context.Background(), tx, 7, 42, 0))
	require.Equal(t, int64(300), tx.wallets[courier.ID].Balance)

	for _, e := range tx.entries {
		require.NotEqual(t, domain.CategoryDeliveryEarning, e.Category)
	}
}
