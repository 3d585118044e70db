package handlers

import (
	"context"
	"net/http"

	"pharmadispatch/internal/logx"
)

// DeliveryHandler serves HTTP endpoints for the delivery state machine.
type DeliveryHandler struct {
	uc     dispatchUsecase
	logger logx.Logger
}

// NewDeliveryHandler wires the assignment usecase into HTTP handlers.
func NewDeliveryHandler(logger logx.Logger, uc dispatchUsecase) *DeliveryHandler {
	return &DeliveryHandler{uc: uc, logger: logger}
}

// Assign handles POST /deliveries/{id}/assign.
func (h *DeliveryHandler) Assign(w http.ResponseWriter, r *http.Request) {
	id, err := idFromURL(r, "id")
	if err != nil {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid id")
		return
	}

	res, err := h.uc.Assign(r.Context(), id)
	if err != nil {
		writeServiceError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, assignResultToResponse(*res))
}

// ManualAssign handles POST /deliveries/{id}/assign-manual.
func (h *DeliveryHandler) ManualAssign(w http.ResponseWriter, r *http.Request) {
	id, err := idFromURL(r, "id")
	if err != nil {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid id")
		return
	}

	var req manualAssignRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}
	if req.CourierID <= 0 {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid courier_id")
		return
	}

	res, err := h.uc.ManualAssign(r.Context(), id, req.CourierID)
	if err != nil {
		writeServiceError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, assignResultToResponse(*res))
}

// Reassign handles POST /deliveries/{id}/reassign.
func (h *DeliveryHandler) Reassign(w http.ResponseWriter, r *http.Request) {
	id, err := idFromURL(r, "id")
	if err != nil {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid id")
		return
	}

	var req reasonRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}

	res, err := h.uc.Reassign(r.Context(), id, req.Reason)
	if err != nil {
		writeServiceError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, assignResultToResponse(*res))
}

// BulkAssign handles POST /deliveries/bulk-assign.
func (h *DeliveryHandler) BulkAssign(w http.ResponseWriter, r *http.Request) {
	var req bulkAssignRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}

	report, err := h.uc.BulkAssign(r.Context(), req.Limit)
	if err != nil {
		writeServiceError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, reportToResponse(report))
}

// Accept handles POST /deliveries/{id}/accept.
func (h *DeliveryHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.progress(w, r, h.uc.Accept)
}

// Pickup handles POST /deliveries/{id}/pickup.
func (h *DeliveryHandler) Pickup(w http.ResponseWriter, r *http.Request) {
	h.progress(w, r, h.uc.Pickup)
}

// Transit handles POST /deliveries/{id}/transit.
func (h *DeliveryHandler) Transit(w http.ResponseWriter, r *http.Request) {
	h.progress(w, r, h.uc.Transit)
}

// Complete handles POST /deliveries/{id}/complete.
func (h *DeliveryHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.progress(w, r, h.uc.Complete)
}

type progressFunc func(ctx context.Context, deliveryID, courierID int64) error

func (h *DeliveryHandler) progress(w http.ResponseWriter, r *http.Request, fn progressFunc) {
	id, err := idFromURL(r, "id")
	if err != nil {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid id")
		return
	}

	var req progressRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}
	if req.CourierID <= 0 {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid courier_id")
		return
	}

	if err := fn(r.Context(), id, req.CourierID); err != nil {
		writeServiceError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// Cancel handles POST /deliveries/{id}/cancel.
func (h *DeliveryHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.terminate(w, r, h.uc.Cancel)
}

// Fail handles POST /deliveries/{id}/fail.
func (h *DeliveryHandler) Fail(w http.ResponseWriter, r *http.Request) {
	h.terminate(w, r, h.uc.Fail)
}

type terminateFunc func(ctx context.Context, deliveryID int64, reason string) error

func (h *DeliveryHandler) terminate(w http.ResponseWriter, r *http.Request, fn terminateFunc) {
	id, err := idFromURL(r, "id")
	if err != nil {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid id")
		return
	}

	var req reasonRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}

	if err := fn(r.Context(), id, req.Reason); err != nil {
		writeServiceError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, map[string]string{"status": "ok"})
}
