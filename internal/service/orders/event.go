package orders

import (
	"time"
)

// Event is a single order event as published by order management.
// Pickup coordinates are optional: not every pharmacy has them on file.
type Event struct {
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
