package kafka

import (
	"strings"
	"time"

	"pharmadispatch/internal/service/orders"
)

// EventDTO is a data transfer object for orders.Event
type EventDTO struct {
	OrderID       string    `json:"order_id"`
	Status        string    `json:"status"`
	PickupLat     *float64  `json:"pickup_lat,omitempty"`
	PickupLng     *float64  `json:"pickup_lng,omitempty"`
	DropoffLat    float64   `json:"dropoff_lat"`
	DropoffLng    float64   `json:"dropoff_lng"`
	Subtotal      int64     `json:"subtotal"`
	PaymentMethod string    `json:"payment_method"`
	CreatedAt     time.Time `json:"created_at"`
}

// ToDomain converts EventDTO to orders.Event
func ToDomain(dto EventDTO) orders.Event {
	return orders.Event{
		OrderID:       strings.TrimSpace(dto.OrderID),
		Status:        strings.TrimSpace(dto.Status),
		PickupLat:     dto.PickupLat,
		PickupLng:     dto.PickupLng,
		DropoffLat:    dto.DropoffLat,
		DropoffLng:    dto.DropoffLng,
		Subtotal:      dto.Subtotal,
		PaymentMethod: strings.TrimSpace(dto.PaymentMethod),
		CreatedAt:     dto.CreatedAt,
	}
}
