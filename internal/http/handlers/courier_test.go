package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"pharmadispatch/internal/apperr"
	"pharmadispatch/internal/domain"
	"pharmadispatch/internal/geo"
	"pharmadispatch/internal/http/handlers"
)

type courierResponse struct {
	ID     int64    `json:"id"`
	Name   string   `json:"name"`
	Phone  string   `json:"phone"`
	Status string   `json:"status"`
	Lat    *float64 `json:"lat"`
	Lng    *float64 `json:"lng"`
}

type stubCourierUsecase struct {
	getFn            func(ctx context.Context, id int64) (*domain.Courier, error)
	listFn           func(ctx context.Context, limit, offset *int) ([]domain.Courier, error)
	createFn         func(ctx context.Context, c *domain.Courier) (int64, error)
	updatePartialFn  func(ctx context.Context, u domain.PartialCourierUpdate) (bool, error)
	updateLocationFn func(ctx context.Context, id int64, p geo.Point) error
}

func (s *stubCourierUsecase) Get(ctx context.Context, id int64) (*domain.Courier, error) {
	return s.getFn(ctx, id)
}

func (s *stubCourierUsecase) List(ctx context.Context, limit, offset *int) ([]domain.Courier, error) {
	return s.listFn(ctx, limit, offset)
}

func (s *stubCourierUsecase) Create(ctx context.Context, c *domain.Courier) (int64, error) {
	return s.createFn(ctx, c)
}

func (s *stubCourierUsecase) UpdatePartial(ctx context.Context, u domain.PartialCourierUpdate) (bool, error) {
	return s.updatePartialFn(ctx, u)
}

func (s *stubCourierUsecase) UpdateLocation(ctx context.Context, id int64, p geo.Point) error {
	return s.updateLocationFn(ctx, id, p)
}

func TestCourierHandler_GetByID_OK(t *testing.T) {
	t.Parallel()

	expected := &domain.Courier{
		ID:       99,
		Name:     "Bekzod",
		Phone:    "+998901234567",
		Status:   domain.CourierAvailable,
		Location: &geo.Point{Lat: 41.31, Lng: 69.28},
	}

	uc := &stubCourierUsecase{
		getFn: func(ctx context.Context, id int64) (*domain.Courier, error) {
			require.Equal(t, expected.ID, id)
			return expected, nil
		},
	}

	h := handlers.NewCourierHandler(testLogger(), uc)

	req := newRequest(http.MethodGet, "/couriers/99", nil, map[string]string{"id": "99"})
	rr := httptest.NewRecorder()

	h.GetByID(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp courierResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	require.Equal(t, expected.ID, resp.ID)
	require.Equal(t, expected.Name, resp.Name)
	require.Equal(t, expected.Phone, resp.Phone)
	require.Equal(t, "available", resp.Status)
	require.NotNil(t, resp.Lat)
	require.InDelta(t, 41.31, *resp.Lat, 1e-9)
}

func TestCourierHandler_GetByID_InvalidID(t *testing.T) {
	t.Parallel()

	h := handlers.NewCourierHandler(testLogger(), &stubCourierUsecase{
		getFn: func(ctx context.Context, id int64) (*domain.Courier, error) {
			require.FailNow(t, "usecase.Get should not be called on invalid id")
			return nil, nil
		},
	})

	req := newRequest(http.MethodGet, "/couriers/abc", nil, map[string]string{"id": "abc"})
	rr := httptest.NewRecorder()

	h.GetByID(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCourierHandler_GetByID_NotFound(t *testing.T) {
	t.Parallel()

	uc := &stubCourierUsecase{
		getFn: func(ctx context.Context, id int64) (*domain.Courier, error) {
			return nil, apperr.ErrNotFound
		},
	}
	h := handlers.NewCourierHandler(testLogger(), uc)

	req := newRequest(http.MethodGet, "/couriers/10", nil, map[string]string{"id": "10"})
	rr := httptest.NewRecorder()

	h.GetByID(rr, req)

	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCourierHandler_List_OK(t *testing.T) {
	t.Parallel()

	expected := []domain.Courier{
		{ID: 1, Name: "A"},
		{ID: 2, Name: "B"},
	}

	var gotLimit, gotOffset *int

	uc := &stubCourierUsecase{
		listFn: func(ctx context.Context, limit, offset *int) ([]domain.Courier, error) {
			gotLimit, gotOffset = limit, offset
			return expected, nil
		},
	}
	h := handlers.NewCourierHandler(testLogger(), uc)

	req := httptest.NewRequest(http.MethodGet, "/couriers?limit=10&offset=5", nil)
	rr := httptest.NewRecorder()

	h.List(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, gotLimit)
	require.Equal(t, 10, *gotLimit)
	require.NotNil(t, gotOffset)
	require.Equal(t, 5, *gotOffset)

	var resp []courierResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	require.Len(t, resp, len(expected))
}

func TestCourierHandler_List_InvalidLimit(t *testing.T) {
	t.Parallel()

	h := handlers.NewCourierHandler(testLogger(), &stubCourierUsecase{
		listFn: func(ctx context.Context, limit, offset *int) ([]domain.Courier, error) {
			require.FailNow(t, "List should not be called when limit is invalid")
			return nil, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/couriers?limit=abc", nil)
	rr := httptest.NewRecorder()

	h.List(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCourierHandler_List_InternalError(t *testing.T) {
	t.Parallel()

	uc := &stubCourierUsecase{
		listFn: func(ctx context.Context, limit, offset *int) ([]domain.Courier, error) {
			return nil, errors.New("db error")
		},
	}
	h := handlers.NewCourierHandler(testLogger(), uc)

	req := httptest.NewRequest(http.MethodGet, "/couriers", nil)
	rr := httptest.NewRecorder()

	h.List(rr, req)

	require.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestCourierHandler_Create_OK(t *testing.T) {
	t.Parallel()

	var gotModel *domain.Courier

	uc := &stubCourierUsecase{
		createFn: func(ctx context.Context, c *domain.Courier) (int64, error) {
			gotModel = c
			return 42, nil
		},
	}
	h := handlers.NewCourierHandler(testLogger(), uc)

	body := `{"name":"Bekzod","phone":"+998901234567","status":"available"}`
	req := httptest.NewRequest(http.MethodPost, "/couriers", strings.NewReader(body))
	rr := httptest.NewRecorder()

	h.Create(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)
	require.Equal(t, "/couriers/42", rr.Header().Get("Location"))
	require.NotNil(t, gotModel)
	require.Equal(t, "Bekzod", gotModel.Name)
}

func TestCourierHandler_Create_Invalid(t *testing.T) {
	t.Parallel()

	uc := &stubCourierUsecase{
		createFn: func(ctx context.Context, c *domain.Courier) (int64, error) {
			return 0, apperr.ErrInvalid
		},
	}
	h := handlers.NewCourierHandler(testLogger(), uc)

	body := `{"name":"","phone":"bad"}`
	req := httptest.NewRequest(http.MethodPost, "/couriers", strings.NewReader(body))
	rr := httptest.NewRecorder()

	h.Create(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCourierHandler_Create_BadJSON(t *testing.T) {
	t.Parallel()

	uc := &stubCourierUsecase{
		createFn: func(ctx context.Context, c *domain.Courier) (int64, error) {
			require.FailNow(t, "Create must not be called on invalid JSON")
			return 0, nil
		},
	}
	h := handlers.NewCourierHandler(testLogger(), uc)

	body := `{"name": "Bekzod", "phone": "+998901234567",`
	req := httptest.NewRequest(http.MethodPost, "/couriers", strings.NewReader(body))
	rr := httptest.NewRecorder()

	h.Create(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCourierHandler_Update_OK(t *testing.T) {
	t.Parallel()

	var gotUpdate domain.PartialCourierUpdate

	uc := &stubCourierUsecase{
		updatePartialFn: func(ctx context.Context, u domain.PartialCourierUpdate) (bool, error) {
			gotUpdate = u
			return true, nil
		},
	}
	h := handlers.NewCourierHandler(testLogger(), uc)

	body := `{"name":"New Name"}`
	req := newRequest(http.MethodPatch, "/couriers/1", strings.NewReader(body), map[string]string{"id": "1"})
	rr := httptest.NewRecorder()

	h.Update(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, int64(1), gotUpdate.ID)
	require.NotNil(t, gotUpdate.Name)
	require.Equal(t, "New Name", *gotUpdate.Name)
}

func TestCourierHandler_Update_NotFound(t *testing.T) {
	t.Parallel()

	uc := &stubCourierUsecase{
		updatePartialFn: func(ctx context.Context, u domain.PartialCourierUpdate) (bool, error) {
			return false, apperr.ErrNotFound
		},
	}
	h := handlers.NewCourierHandler(testLogger(), uc)

	body := `{"name":"X"}`
	req := newRequest(http.MethodPatch, "/couriers/123", strings.NewReader(body), map[string]string{"id": "123"})
	rr := httptest.NewRecorder()

	h.Update(rr, req)

	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCourierHandler_UpdateLocation_OK(t *testing.T) {
	t.Parallel()

	var gotID int64
	var gotPoint geo.Point

	uc := &stubCourierUsecase{
		updateLocationFn: func(ctx context.Context, id int64, p geo.Point) error {
			gotID, gotPoint = id, p
			return nil
		},
	}
	h := handlers.NewCourierHandler(testLogger(), uc)

	body := `{"lat":41.31,"lng":69.28}`
	req := newRequest(http.MethodPost, "/couriers/7/location", strings.NewReader(body), map[string]string{"id": "7"})
	rr := httptest.NewRecorder()

	h.UpdateLocation(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, int64(7), gotID)
	require.InDelta(t, 41.31, gotPoint.Lat, 1e-9)
	require.InDelta(t, 69.28, gotPoint.Lng, 1e-9)
}

func TestCourierHandler_UpdateLocation_InvalidCoordinates(t *testing.T) {
	t.Parallel()

	uc := &stubCourierUsecase{
		updateLocationFn: func(ctx context.Context, id int64, p geo.Point) error {
			return apperr.ErrInvalid
		},
	}
	h := handlers.NewCourierHandler(testLogger(), uc)

	body := `{"lat":123.0,"lng":69.28}`
	req := newRequest(http.MethodPost, "/couriers/7/location", strings.NewReader(body), map[string]string{"id": "7"})
	rr := httptest.NewRecorder()

	h.UpdateLocation(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
}
