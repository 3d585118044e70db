package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pharmadispatch/internal/domain"
	"pharmadispatch/internal/ports/wallettx"
)

const walletColumns = `id, owner_kind, owner_id, balance, currency, created_at, updated_at`

const walletTxColumns = `id, wallet_id, type, amount, balance_after, category,
	delivery_id, status, reference, description, created_at`

// WalletRepo represents wallet repository.
type WalletRepo struct {
	db *pgxpool.Pool
}

// NewWalletRepo creates a new WalletRepo.
func NewWalletRepo(db *pgxpool.Pool) *WalletRepo {
	return &WalletRepo{db: db}
}

// WithTx opens a transaction and executes fn within it.
func (r *WalletRepo) WithTx(ctx context.Context, fn func(tx wallettx.Repository) error) (err error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			err = tx.Rollback(ctx)
			if err != nil {
				panic(err)
			}
			panic(p)
		}
	}()

	wrapped := &TxRepo{tx: tx}

	if err := fn(wrapped); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("rollback tx: %w (original error: %s)", rbErr, err.Error())
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetByOwner returns the wallet for an owner, or nil when none exists yet.
func (r *WalletRepo) GetByOwner(ctx context.Context, owner domain.WalletOwner) (*domain.Wallet, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+walletColumns+` FROM wallets WHERE owner_kind = $1 AND owner_id = $2`,
		owner.Kind, owner.ID)
	w, err := scanWallet(row)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get wallet for %s/%d: %w", owner.Kind, owner.ID, err)
	}
	return w, nil
}

// ListTransactions returns the wallet's ledger entries, newest first.
func (r *WalletRepo) ListTransactions(ctx context.Context, walletID int64, limit, offset int) ([]domain.WalletTransaction, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(ctx, `
        SELECT `+walletTxColumns+`
        FROM wallet_transactions
        WHERE wallet_id = $1
        ORDER BY id DESC
        LIMIT $2 OFFSET $3
    `, walletID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list transactions for wallet %d: %w", walletID, err)
	}
	defer rows.Close()

	out := make([]domain.WalletTransaction, 0, limit)
	for rows.Next() {
		t, err := scanWalletTx(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// GetWalletForUpdate loads and locks a wallet row by ID.
func (r *TxRepo) GetWalletForUpdate(ctx context.Context, id int64) (*domain.Wallet, error) {
	row := r.tx.QueryRow(ctx,
		`SELECT `+walletColumns+` FROM wallets WHERE id = $1 FOR UPDATE`, id)
	w, err := scanWallet(row)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock wallet %d: %w", id, err)
	}
	return w, nil
}

// GetWalletByOwnerForUpdate loads and locks a wallet row by owner.
func (r *TxRepo) GetWalletByOwnerForUpdate(ctx context.Context, owner domain.WalletOwner) (*domain.Wallet, error) {
	row := r.tx.QueryRow(ctx,
		`SELECT `+walletColumns+` FROM wallets
         WHERE owner_kind = $1 AND owner_id = $2 FOR UPDATE`,
		owner.Kind, owner.ID)
	w, err := scanWallet(row)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock wallet for %s/%d: %w", owner.Kind, owner.ID, err)
	}
	return w, nil
}

// CreateWallet creates an empty wallet for the owner.
func (r *TxRepo) CreateWallet(ctx context.Context, owner domain.WalletOwner, currency string) (*domain.Wallet, error) {
	row := r.tx.QueryRow(ctx, `
        INSERT INTO wallets (owner_kind, owner_id, currency)
        VALUES ($1, $2, $3)
        RETURNING `+walletColumns+`
    `, owner.Kind, owner.ID, currency)
	w, err := scanWallet(row)
	if err != nil {
		return nil, fmt.Errorf("create wallet for %s/%d: %w", owner.Kind, owner.ID, err)
	}
	return w, nil
}

// UpdateWalletBalance stores the new running balance.
func (r *TxRepo) UpdateWalletBalance(ctx context.Context, id int64, balance int64) error {
	ct, err := r.tx.Exec(ctx, `
        UPDATE wallets SET balance = $2, updated_at = now() WHERE id = $1
    `, id, balance)
	if err != nil {
		return fmt.Errorf("update wallet %d balance: %w", id, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("wallet %d not found", id)
	}
	return nil
}

// InsertWalletTransaction appends one ledger entry and fills in its ID.
func (r *TxRepo) InsertWalletTransaction(ctx context.Context, t *domain.WalletTransaction) error {
	err := r.tx.QueryRow(ctx, `
        INSERT INTO wallet_transactions
            (wallet_id, type, amount, balance_after, category,
             delivery_id, status, reference, description)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING id, created_at
    `, t.WalletID, t.Type, t.Amount, t.BalanceAfter, t.Category,
		t.DeliveryID, t.Status, t.Reference, t.Description,
	).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert wallet transaction: %w", err)
	}
	return nil
}

// SumPendingDebits returns the total of pending debit holds on the wallet.
func (r *TxRepo) SumPendingDebits(ctx context.Context, walletID int64) (int64, error) {
	var sum int64
	err := r.tx.QueryRow(ctx, `
        SELECT COALESCE(SUM(amount), 0) FROM wallet_transactions
        WHERE wallet_id = $1 AND type = $2 AND status = $3
    `, walletID, domain.TxDebit, domain.TxPending).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("sum pending debits for wallet %d: %w", walletID, err)
	}
	return sum, nil
}

// GetPendingTransactionForUpdate loads and locks a pending entry by its reference.
func (r *TxRepo) GetPendingTransactionForUpdate(ctx context.Context, reference string) (*domain.WalletTransaction, error) {
	row := r.tx.QueryRow(ctx, `
        SELECT `+walletTxColumns+` FROM wallet_transactions
        WHERE reference = $1 AND status = $2 FOR UPDATE
    `, reference, domain.TxPending)
	t, err := scanWalletTx(row)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock pending transaction %q: %w", reference, err)
	}
	return t, nil
}

// SetTransactionStatus moves a ledger entry out of pending. No other field
// of an entry is ever mutated.
func (r *TxRepo) SetTransactionStatus(ctx context.Context, id int64, status domain.TxStatus) error {
	ct, err := r.tx.Exec(ctx, `
        UPDATE wallet_transactions SET status = $2
        WHERE id = $1 AND status = $3
    `, id, status, domain.TxPending)
	if err != nil {
		return fmt.Errorf("set transaction %d status %s: %w", id, status, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("pending transaction %d not found", id)
	}
	return nil
}

func scanWallet(row rowScanner) (*domain.Wallet, error) {
	var w domain.Wallet
	err := row.Scan(&w.ID, &w.Owner.Kind, &w.Owner.ID, &w.Balance, &w.Currency,
		&w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func scanWalletTx(row rowScanner) (*domain.WalletTransaction, error) {
	var t domain.WalletTransaction
	err := row.Scan(&t.ID, &t.WalletID, &t.Type, &t.Amount, &t.BalanceAfter,
		&t.Category, &t.DeliveryID, &t.Status, &t.Reference, &t.Description,
		&t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
