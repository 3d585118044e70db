package orders

import (
	"context"
	"errors"

	"pharmadispatch/internal/apperr"
	"pharmadispatch/internal/domain"
	"pharmadispatch/internal/geo"
	"pharmadispatch/internal/logx"
)

// Processor reacts to order events: a "ready" order becomes a priced pending
// delivery with an immediate assignment attempt, a cancelled order terminates
// its delivery. Events it cannot act on are logged and skipped, never
// re-queued.
type Processor struct {
	store    DeliveryStore
	dispatch Dispatcher
	pricer   Pricer
	logger   logx.Logger
	factory  *actionFactory
}

// NewProcessor creates a new orders.Processor
func NewProcessor(store DeliveryStore, dispatch Dispatcher, pricer Pricer, logger logx.Logger) *Processor {
	p := &Processor{
		store:    store,
		dispatch: dispatch,
		pricer:   pricer,
		logger:   logger,
	}
	p.factory = newActionFactory(p.onReady, p.onCancelled)
	return p
}

// Handle processes a single orders.Event
func (p *Processor) Handle(ctx context.Context, e Event) error {
	if e.OrderID == "" {
		p.logger.Warn("order event without order id skipped", logx.String("status", e.Status))
		return nil
	}
	fn, ok := p.factory.get(e.Status)
	if !ok {
		return nil
	}
	return fn(ctx, e)
}

func (p *Processor) onReady(ctx context.Context, e Event) error {
	existing, err := p.store.GetByOrderID(ctx, e.OrderID)
	if err != nil {
		return err
	}
	if existing != nil {
		// replayed event
		return nil
	}

	dropoff := geo.Point{Lat: e.DropoffLat, Lng: e.DropoffLng}
	if !dropoff.Valid() {
		p.logger.Warn("order event with invalid dropoff skipped", logx.String("order_id", e.OrderID))
		return nil
	}

	method := domain.PaymentMethod(e.PaymentMethod)
	if !method.Valid() {
		p.logger.Warn("order event with unknown payment method skipped",
			logx.String("order_id", e.OrderID),
			logx.String("payment_method", e.PaymentMethod),
		)
		return nil
	}

	var pickup *geo.Point
	distanceKm := -1.0
	if e.PickupLat != nil && e.PickupLng != nil {
		pt := geo.Point{Lat: *e.PickupLat, Lng: *e.PickupLng}
		if pt.Valid() {
			pickup = &pt
			distanceKm = geo.DistanceKm(pt, dropoff)
		}
	}

	d := &domain.Delivery{
		OrderID: e.OrderID,
		Status:  domain.DeliveryPending,
		Pickup:  pickup,
		Dropoff: dropoff,
		Totals:  p.pricer.Quote(e.Subtotal, distanceKm, method),
	}
	id, err := p.store.Create(ctx, d)
	if errors.Is(err, apperr.ErrConflict) {
		return nil
	}
	if err != nil {
		return err
	}

	p.logger.Info("delivery created from order",
		logx.String("order_id", e.OrderID),
		logx.Int64("delivery_id", id),
		logx.Int64("total", d.Totals.Total),
	)

	_, err = p.dispatch.Assign(ctx, id)
	if errors.Is(err, apperr.ErrNoCourierAvailable) || errors.Is(err, apperr.ErrNotEligible) {
		// the delivery stays pending for a later bulk run
		return nil
	}
	return err
}

func (p *Processor) onCancelled(ctx context.Context, e Event) error {
	d, err := p.store.GetByOrderID(ctx, e.OrderID)
	if err != nil {
		return err
	}
	if d == nil {
		return nil
	}

	err = p.dispatch.Cancel(ctx, d.ID, "order cancelled")
	if errors.Is(err, apperr.ErrNotEligible) || errors.Is(err, apperr.ErrNotFound) {
		return nil
	}
	return err
}
