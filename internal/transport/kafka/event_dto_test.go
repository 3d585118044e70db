package kafka_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"pharmadispatch/internal/service/orders"
	"pharmadispatch/internal/transport/kafka"
)

func TestToDomain_TrimsAndCopiesFields(t *testing.T) {
	t.Parallel()

	ts := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	lat, lng := 41.31, 69.24

	dto := kafka.EventDTO{
		OrderID:       "  order-1  ",
		Status:        "  ready  ",
		PickupLat:     &lat,
		PickupLng:     &lng,
		DropoffLat:    41.32,
		DropoffLng:    69.25,
		Subtotal:      10000,
		PaymentMethod: " cash ",
		CreatedAt:     ts,
	}

	got := kafka.ToDomain(dto)

	require.Equal(t, orders.Event{
		OrderID:       "order-1",
		Status:        "ready",
		PickupLat:     &lat,
		PickupLng:     &lng,
		DropoffLat:    41.32,
		DropoffLng:    69.25,
		Subtotal:      10000,
		PaymentMethod: "cash",
		CreatedAt:     ts,
	}, got)
}
