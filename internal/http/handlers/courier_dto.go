package handlers

import (
	"time"

	"pharmadispatch/internal/domain"
)

type courierDTO struct {
	ID                  int64                `json:"id"`
	Name                string               `json:"name"`
	Phone               string               `json:"phone"`
	Status              domain.CourierStatus `json:"status"`
	Lat                 *float64             `json:"lat,omitempty"`
	Lng                 *float64             `json:"lng,omitempty"`
	LocationUpdatedAt   *time.Time           `json:"location_updated_at,omitempty"`
	Rating              *float64             `json:"rating,omitempty"`
	CompletedDeliveries int                  `json:"completed_deliveries"`
}

type createCourierRequest struct {
	Name   string               `json:"name"`
	Phone  string               `json:"phone"`
	Status domain.CourierStatus `json:"status"`
}

type updateCourierRequest struct {
	Name   *string               `json:"name,omitempty"`
	Phone  *string               `json:"phone,omitempty"`
	Status *domain.CourierStatus `json:"status,omitempty"`
	Rating *float64              `json:"rating,omitempty"`
}

type locationRequest struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (req createCourierRequest) toModel() *domain.Courier {
	return &domain.Courier{
		Name:   req.Name,
		Phone:  req.Phone,
		Status: req.Status,
	}
}

func (req updateCourierRequest) toModel(id int64) domain.PartialCourierUpdate {
	return domain.PartialCourierUpdate{
		ID:     id,
		Name:   req.Name,
		Phone:  req.Phone,
		Status: req.Status,
		Rating: req.Rating,
	}
}

func courierToResponse(c domain.Courier) courierDTO {
	dto := courierDTO{
		ID:                  c.ID,
		Name:                c.Name,
		Phone:               c.Phone,
		Status:              c.Status,
		LocationUpdatedAt:   c.LocationUpdatedAt,
		Rating:              c.Rating,
		CompletedDeliveries: c.CompletedDeliveries,
	}
	if c.Location != nil {
		dto.Lat = &c.Location.Lat
		dto.Lng = &c.Location.Lng
	}
	return dto
}

func couriersToResponse(list []domain.Courier) []courierDTO {
	out := make([]courierDTO, 0, len(list))
	for _, c := range list {
		out = append(out, courierToResponse(c))
	}
	return out
}
