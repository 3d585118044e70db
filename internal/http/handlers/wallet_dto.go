package handlers

import (
	"time"

	"pharmadispatch/internal/domain"
)

type moveMoneyRequest struct {
	OwnerKind string `json:"owner_kind"`
	OwnerID   int64  `json:"owner_id"`
	Amount    int64  `json:"amount"`
}

func (r moveMoneyRequest) owner() domain.WalletOwner {
	return domain.WalletOwner{Kind: domain.OwnerKind(r.OwnerKind), ID: r.OwnerID}
}

type settleWithdrawalRequest struct {
	Reference string `json:"reference"`
	Succeeded bool   `json:"succeeded"`
}

type walletResponse struct {
	ID        int64     `json:"id"`
	OwnerKind string    `json:"owner_kind"`
	OwnerID   int64     `json:"owner_id"`
	Balance   int64     `json:"balance"`
	Currency  string    `json:"currency"`
	UpdatedAt time.Time `json:"updated_at"`
}

func walletToResponse(w domain.Wallet) walletResponse {
	return walletResponse{
		ID:        w.ID,
		OwnerKind: string(w.Owner.Kind),
		OwnerID:   w.Owner.ID,
		Balance:   w.Balance,
		Currency:  w.Currency,
		UpdatedAt: w.UpdatedAt,
	}
}

type transactionResponse struct {
	ID           int64     `json:"id"`
	WalletID     int64     `json:"wallet_id"`
	Type         string    `json:"type"`
	Amount       int64     `json:"amount"`
	BalanceAfter int64     `json:"balance_after"`
	Category     string    `json:"category"`
	DeliveryID   *int64    `json:"delivery_id,omitempty"`
	Status       string    `json:"status"`
	Reference    string    `json:"reference"`
	Description  string    `json:"description,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func transactionToResponse(t domain.WalletTransaction) transactionResponse {
	return transactionResponse{
		ID:           t.ID,
		WalletID:     t.WalletID,
		Type:         string(t.Type),
		Amount:       t.Amount,
		BalanceAfter: t.BalanceAfter,
		Category:     string(t.Category),
		DeliveryID:   t.DeliveryID,
		Status:       string(t.Status),
		Reference:    t.Reference,
		Description:  t.Description,
		CreatedAt:    t.CreatedAt,
	}
}

func transactionsToResponse(txs []domain.WalletTransaction) []transactionResponse {
	out := make([]transactionResponse, 0, len(txs))
	for _, t := range txs {
		out = append(out, transactionToResponse(t))
	}
	return out
}
