package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"pharmadispatch/internal/domain"
	"pharmadispatch/internal/logx"
)

// WalletHandler serves HTTP endpoints for wallet resources.
type WalletHandler struct {
	uc     walletUsecase
	logger logx.Logger
}

// NewWalletHandler wires the wallet usecase into HTTP handlers.
func NewWalletHandler(logger logx.Logger, uc walletUsecase) *WalletHandler {
	return &WalletHandler{uc: uc, logger: logger}
}

// ownerFromURL parses /{owner}/{id} path segments into a WalletOwner. The
// platform owner is addressed as /platform/0.
func ownerFromURL(r *http.Request) (domain.WalletOwner, bool) {
	kind := domain.OwnerKind(chi.URLParam(r, "owner"))
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return domain.WalletOwner{}, false
	}
	owner := domain.WalletOwner{Kind: kind, ID: id}
	return owner, owner.Valid()
}

// Balance handles GET /wallets/{owner}/{id}.
func (h *WalletHandler) Balance(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFromURL(r)
	if !ok {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid owner")
		return
	}

	wallet, err := h.uc.Balance(r.Context(), owner)
	if err != nil {
		writeServiceError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, walletToResponse(*wallet))
}

// Transactions handles GET /wallets/{owner}/{id}/transactions.
func (h *WalletHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFromURL(r)
	if !ok {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid owner")
		return
	}

	q := r.URL.Query()
	limit, offset := 0, 0
	if s := q.Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 0 {
			writeError(h.logger, w, r, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = v
	}
	if s := q.Get("offset"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 0 {
			writeError(h.logger, w, r, http.StatusBadRequest, "invalid offset")
			return
		}
		offset = v
	}

	txs, err := h.uc.Transactions(r.Context(), owner, limit, offset)
	if err != nil {
		writeServiceError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, transactionsToResponse(txs))
}

// Topup handles POST /wallets/topup.
func (h *WalletHandler) Topup(w http.ResponseWriter, r *http.Request) {
	var req moveMoneyRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}

	tx, err := h.uc.Topup(r.Context(), req.owner(), req.Amount)
	if err != nil {
		writeServiceError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusCreated, transactionToResponse(*tx))
}

// Withdraw handles POST /wallets/withdraw.
func (h *WalletHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	var req moveMoneyRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}

	tx, err := h.uc.Withdraw(r.Context(), req.owner(), req.Amount)
	if err != nil {
		writeServiceError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusAccepted, transactionToResponse(*tx))
}

// SettleWithdrawal handles POST /wallets/withdrawals/settle, the callback
// the payout provider hits once a withdrawal finishes.
func (h *WalletHandler) SettleWithdrawal(w http.ResponseWriter, r *http.Request) {
	var req settleWithdrawalRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}
	if req.Reference == "" {
		writeError(h.logger, w, r, http.StatusBadRequest, "missing reference")
		return
	}

	if err := h.uc.SettleWithdrawal(r.Context(), req.Reference, req.Succeeded); err != nil {
		writeServiceError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, map[string]string{"status": "ok"})
}
