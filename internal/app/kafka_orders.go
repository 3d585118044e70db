package app

import (
	"context"
	"time"

	"pharmadispatch/internal/service/orders"
	"pharmadispatch/internal/transport/kafka"
)

type ordersHandler interface {
	Handle(ctx context.Context, e orders.Event) error
}

// makeOrdersKafka bounds the time one order event may spend in the processor
// so a stuck database call cannot stall the whole partition.
func makeOrdersKafka(h ordersHandler) kafka.HandleFunc {
	return func(ctx context.Context, event orders.Event) error {
		hCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return h.Handle(hCtx, event)
	}
}
