package handlers

import (
	"time"

	"pharmadispatch/internal/domain"
)

type manualAssignRequest struct {
	CourierID int64 `json:"courier_id"`
}

type progressRequest struct {
	CourierID int64 `json:"courier_id"`
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

type bulkAssignRequest struct {
	Limit int `json:"limit"`
}

type assignResponse struct {
	DeliveryID int64     `json:"delivery_id"`
	OrderID    string    `json:"order_id"`
	CourierID  int64     `json:"courier_id"`
	Score      float64   `json:"score"`
	AssignedAt time.Time `json:"assigned_at"`
}

type bulkAssignResponse struct {
	Total       int `json:"total"`
	Assigned    int `json:"assigned"`
	NoCourier   int `json:"no_courier"`
	NotEligible int `json:"not_eligible"`
	Failed      int `json:"failed"`
}

func assignResultToResponse(r domain.AssignResult) assignResponse {
	return assignResponse{
		DeliveryID: r.DeliveryID,
		OrderID:    r.OrderID,
		CourierID:  r.CourierID,
		Score:      r.Score,
		AssignedAt: r.AssignedAt,
	}
}

func reportToResponse(r domain.BulkAssignReport) bulkAssignResponse {
	return bulkAssignResponse{
		Total:       r.Total(),
		Assigned:    r.Assigned,
		NoCourier:   r.NoCourier,
		NotEligible: r.NotEligible,
		Failed:      r.Failed,
	}
}
