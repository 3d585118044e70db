package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmadispatch/internal/apperr"
	"pharmadispatch/internal/domain"
	"pharmadispatch/internal/http/handlers"
)

type stubDispatchUsecase struct {
	assignFn       func(ctx context.Context, deliveryID int64) (*domain.AssignResult, error)
	manualAssignFn func(ctx context.Context, deliveryID, courierID int64) (*domain.AssignResult, error)
	reassignFn     func(ctx context.Context, deliveryID int64, reason string) (*domain.AssignResult, error)
	bulkAssignFn   func(ctx context.Context, limit int) (domain.BulkAssignReport, error)
	acceptFn       func(ctx context.Context, deliveryID, courierID int64) error
	pickupFn       func(ctx context.Context, deliveryID, courierID int64) error
	transitFn      func(ctx context.Context, deliveryID, courierID int64) error
	completeFn     func(ctx context.Context, deliveryID, courierID int64) error
	cancelFn       func(ctx context.Context, deliveryID int64, reason string) error
	failFn         func(ctx context.Context, deliveryID int64, reason string) error
}

func (s *stubDispatchUsecase) Assign(ctx context.Context, deliveryID int64) (*domain.AssignResult, error) {
	if s.assignFn == nil {
		panic("Assign not expected in this test")
	}
	return s.assignFn(ctx, deliveryID)
}

func (s *stubDispatchUsecase) ManualAssign(ctx context.Context, deliveryID, courierID int64) (*domain.AssignResult, error) {
	if s.manualAssignFn == nil {
		panic("ManualAssign not expected in this test")
	}
	return s.manualAssignFn(ctx, deliveryID, courierID)
}

func (s *stubDispatchUsecase) Reassign(ctx context.Context, deliveryID int64, reason string) (*domain.AssignResult, error) {
	if s.reassignFn == nil {
		panic("Reassign not expected in this test")
	}
	return s.reassignFn(ctx, deliveryID, reason)
}

func (s *stubDispatchUsecase) BulkAssign(ctx context.Context, limit int) (domain.BulkAssignReport, error) {
	if s.bulkAssignFn == nil {
		panic("BulkAssign not expected in this test")
	}
	return s.bulkAssignFn(ctx, limit)
}

func (s *stubDispatchUsecase) Accept(ctx context.Context, deliveryID, courierID int64) error {
	if s.acceptFn == nil {
		panic("Accept not expected in this test")
	}
	return s.acceptFn(ctx, deliveryID, courierID)
}

func (s *stubDispatchUsecase) Pickup(ctx context.Context, deliveryID, courierID int64) error {
	if s.pickupFn == nil {
		panic("Pickup not expected in this test")
	}
	return s.pickupFn(ctx, deliveryID, courierID)
}

func (s *stubDispatchUsecase) Transit(ctx context.Context, deliveryID, courierID int64) error {
	if s.transitFn == nil {
		panic("Transit not expected in this test")
	}
	return s.transitFn(ctx, deliveryID, courierID)
}

func (s *stubDispatchUsecase) Complete(ctx context.Context, deliveryID, courierID int64) error {
	if s.completeFn == nil {
		panic("Complete not expected in this test")
	}
	return s.completeFn(ctx, deliveryID, courierID)
}

func (s *stubDispatchUsecase) Cancel(ctx context.Context, deliveryID int64, reason string) error {
	if s.cancelFn == nil {
		panic("Cancel not expected in this test")
	}
	return s.cancelFn(ctx, deliveryID, reason)
}

func (s *stubDispatchUsecase) Fail(ctx context.Context, deliveryID int64, reason string) error {
	if s.failFn == nil {
		panic("Fail not expected in this test")
	}
	return s.failFn(ctx, deliveryID, reason)
}

func TestDeliveryHandler_Assign_OK(t *testing.T) {
	t.Parallel()

	assignedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	uc := &stubDispatchUsecase{
		assignFn: func(ctx context.Context, deliveryID int64) (*domain.AssignResult, error) {
			require.Equal(t, int64(10), deliveryID)
			return &domain.AssignResult{
				DeliveryID: 10,
				OrderID:    "order-123",
				CourierID:  42,
				Score:      87.5,
				AssignedAt: assignedAt,
			}, nil
		},
	}

	h := handlers.NewDeliveryHandler(testLogger(), uc)

	req := newRequest(http.MethodPost, "/deliveries/10/assign", nil, map[string]string{"id": "10"})
	rr := httptest.NewRecorder()

	h.Assign(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	expectedJSON := `{
        "delivery_id": 10,
        "order_id": "order-123",
        "courier_id": 42,
        "score": 87.5,
        "assigned_at": "2025-06-01T12:00:00Z"
    }`
	assert.JSONEq(t, expectedJSON, rr.Body.String())
}

func TestDeliveryHandler_Assign_NoCourier(t *testing.T) {
	t.Parallel()

	uc := &stubDispatchUsecase{
		assignFn: func(ctx context.Context, deliveryID int64) (*domain.AssignResult, error) {
			return nil, apperr.ErrNoCourierAvailable
		},
	}

	h := handlers.NewDeliveryHandler(testLogger(), uc)

	req := newRequest(http.MethodPost, "/deliveries/10/assign", nil, map[string]string{"id": "10"})
	rr := httptest.NewRecorder()

	h.Assign(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.JSONEq(t, `{"error": "no courier available"}`, rr.Body.String())
}

func TestDeliveryHandler_Assign_NotEligible(t *testing.T) {
	t.Parallel()

	uc := &stubDispatchUsecase{
		assignFn: func(ctx context.Context, deliveryID int64) (*domain.AssignResult, error) {
			return nil, apperr.ErrNotEligible
		},
	}

	h := handlers.NewDeliveryHandler(testLogger(), uc)

	req := newRequest(http.MethodPost, "/deliveries/10/assign", nil, map[string]string{"id": "10"})
	rr := httptest.NewRecorder()

	h.Assign(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.JSONEq(t, `{"error": "not eligible"}`, rr.Body.String())
}

func TestDeliveryHandler_Assign_InvalidID(t *testing.T) {
	t.Parallel()

	h := handlers.NewDeliveryHandler(testLogger(), &stubDispatchUsecase{})

	req := newRequest(http.MethodPost, "/deliveries/abc/assign", nil, map[string]string{"id": "abc"})
	rr := httptest.NewRecorder()

	h.Assign(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestDeliveryHandler_ManualAssign_OK(t *testing.T) {
	t.Parallel()

	uc := &stubDispatchUsecase{
		manualAssignFn: func(ctx context.Context, deliveryID, courierID int64) (*domain.AssignResult, error) {
			require.Equal(t, int64(10), deliveryID)
			require.Equal(t, int64(7), courierID)
			return &domain.AssignResult{DeliveryID: 10, CourierID: 7}, nil
		},
	}

	h := handlers.NewDeliveryHandler(testLogger(), uc)

	body := `{"courier_id":7}`
	req := newRequest(http.MethodPost, "/deliveries/10/assign-manual", strings.NewReader(body), map[string]string{"id": "10"})
	rr := httptest.NewRecorder()

	h.ManualAssign(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestDeliveryHandler_ManualAssign_MissingCourier(t *testing.T) {
	t.Parallel()

	h := handlers.NewDeliveryHandler(testLogger(), &stubDispatchUsecase{})

	body := `{"courier_id":0}`
	req := newRequest(http.MethodPost, "/deliveries/10/assign-manual", strings.NewReader(body), map[string]string{"id": "10"})
	rr := httptest.NewRecorder()

	h.ManualAssign(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestDeliveryHandler_Reassign_PassesReason(t *testing.T) {
	t.Parallel()

	var gotReason string

	uc := &stubDispatchUsecase{
		reassignFn: func(ctx context.Context, deliveryID int64, reason string) (*domain.AssignResult, error) {
			gotReason = reason
			return &domain.AssignResult{DeliveryID: deliveryID, CourierID: 8}, nil
		},
	}

	h := handlers.NewDeliveryHandler(testLogger(), uc)

	body := `{"reason":"courier unreachable"}`
	req := newRequest(http.MethodPost, "/deliveries/10/reassign", strings.NewReader(body), map[string]string{"id": "10"})
	rr := httptest.NewRecorder()

	h.Reassign(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "courier unreachable", gotReason)
}

func TestDeliveryHandler_BulkAssign_OK(t *testing.T) {
	t.Parallel()

	uc := &stubDispatchUsecase{
		bulkAssignFn: func(ctx context.Context, limit int) (domain.BulkAssignReport, error) {
			require.Equal(t, 50, limit)
			return domain.BulkAssignReport{Assigned: 3, NoCourier: 2, NotEligible: 1}, nil
		},
	}

	h := handlers.NewDeliveryHandler(testLogger(), uc)

	body := `{"limit":50}`
	req := httptest.NewRequest(http.MethodPost, "/deliveries/bulk-assign", strings.NewReader(body))
	rr := httptest.NewRecorder()

	h.BulkAssign(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{
        "total": 6,
        "assigned": 3,
        "no_courier": 2,
        "not_eligible": 1,
        "failed": 0
    }`, rr.Body.String())
}

func TestDeliveryHandler_Accept_OK(t *testing.T) {
	t.Parallel()

	var gotDelivery, gotCourier int64

	uc := &stubDispatchUsecase{
		acceptFn: func(ctx context.Context, deliveryID, courierID int64) error {
			gotDelivery, gotCourier = deliveryID, courierID
			return nil
		},
	}

	h := handlers.NewDeliveryHandler(testLogger(), uc)

	body := `{"courier_id":7}`
	req := newRequest(http.MethodPost, "/deliveries/10/accept", strings.NewReader(body), map[string]string{"id": "10"})
	rr := httptest.NewRecorder()

	h.Accept(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, int64(10), gotDelivery)
	assert.Equal(t, int64(7), gotCourier)
}

func TestDeliveryHandler_Accept_InsufficientBalance(t *testing.T) {
	t.Parallel()

	uc := &stubDispatchUsecase{
		acceptFn: func(ctx context.Context, deliveryID, courierID int64) error {
			return apperr.ErrInsufficientBalance
		},
	}

	h := handlers.NewDeliveryHandler(testLogger(), uc)

	body := `{"courier_id":7}`
	req := newRequest(http.MethodPost, "/deliveries/10/accept", strings.NewReader(body), map[string]string{"id": "10"})
	rr := httptest.NewRecorder()

	h.Accept(rr, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.JSONEq(t, `{"error": "insufficient balance"}`, rr.Body.String())
}

func TestDeliveryHandler_Pickup_WrongCourier(t *testing.T) {
	t.Parallel()

	uc := &stubDispatchUsecase{
		pickupFn: func(ctx context.Context, deliveryID, courierID int64) error {
			return apperr.ErrNotEligible
		},
	}

	h := handlers.NewDeliveryHandler(testLogger(), uc)

	body := `{"courier_id":99}`
	req := newRequest(http.MethodPost, "/deliveries/10/pickup", strings.NewReader(body), map[string]string{"id": "10"})
	rr := httptest.NewRecorder()

	h.Pickup(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestDeliveryHandler_Transit_MissingCourier(t *testing.T) {
	t.Parallel()

	h := handlers.NewDeliveryHandler(testLogger(), &stubDispatchUsecase{})

	body := `{}`
	req := newRequest(http.MethodPost, "/deliveries/10/transit", strings.NewReader(body), map[string]string{"id": "10"})
	rr := httptest.NewRecorder()

	h.Transit(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestDeliveryHandler_Complete_OK(t *testing.T) {
	t.Parallel()

	uc := &stubDispatchUsecase{
		completeFn: func(ctx context.Context, deliveryID, courierID int64) error {
			return nil
		},
	}

	h := handlers.NewDeliveryHandler(testLogger(), uc)

	body := `{"courier_id":7}`
	req := newRequest(http.MethodPost, "/deliveries/10/complete", strings.NewReader(body), map[string]string{"id": "10"})
	rr := httptest.NewRecorder()

	h.Complete(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status": "ok"}`, rr.Body.String())
}

func TestDeliveryHandler_Cancel_OK(t *testing.T) {
	t.Parallel()

	var gotReason string

	uc := &stubDispatchUsecase{
		cancelFn: func(ctx context.Context, deliveryID int64, reason string) error {
			gotReason = reason
			return nil
		},
	}

	h := handlers.NewDeliveryHandler(testLogger(), uc)

	body := `{"reason":"customer refused"}`
	req := newRequest(http.MethodPost, "/deliveries/10/cancel", strings.NewReader(body), map[string]string{"id": "10"})
	rr := httptest.NewRecorder()

	h.Cancel(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "customer refused", gotReason)
}

func TestDeliveryHandler_Fail_Terminal(t *testing.T) {
	t.Parallel()

	uc := &stubDispatchUsecase{
		failFn: func(ctx context.Context, deliveryID int64, reason string) error {
			return apperr.ErrNotEligible
		},
	}

	h := handlers.NewDeliveryHandler(testLogger(), uc)

	body := `{"reason":"pharmacy closed"}`
	req := newRequest(http.MethodPost, "/deliveries/10/fail", strings.NewReader(body), map[string]string{"id": "10"})
	rr := httptest.NewRecorder()

	h.Fail(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
}
