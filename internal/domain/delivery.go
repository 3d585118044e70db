package domain

import (
	"time"

	"pharmadispatch/internal/geo"
)

type (
	// DeliveryStatus represents the status of a delivery.
	DeliveryStatus string
	// DeliveryEvent names a transition request against the delivery state machine.
	DeliveryEvent string
)

// List of possible delivery statuses
const (
	DeliveryPending   DeliveryStatus = "pending"
	DeliveryAssigned  DeliveryStatus = "assigned"
	DeliveryAccepted  DeliveryStatus = "accepted"
	DeliveryPickedUp  DeliveryStatus = "picked_up"
	DeliveryInTransit DeliveryStatus = "in_transit"
	DeliveryDelivered DeliveryStatus = "delivered"
	DeliveryCancelled DeliveryStatus = "cancelled"
	DeliveryFailed    DeliveryStatus = "failed"
)

// List of delivery events
const (
	EventAssign  DeliveryEvent = "assign"
	EventRelease DeliveryEvent = "release"
	EventAccept  DeliveryEvent = "accept"
	EventPickup  DeliveryEvent = "pickup"
	EventTransit DeliveryEvent = "transit"
	EventDeliver DeliveryEvent = "deliver"
	EventCancel  DeliveryEvent = "cancel"
	EventFail    DeliveryEvent = "fail"
)

// transitions is the full state-transition table keyed by
// (current status, event). An absent entry means the transition is not
// allowed. cancel and fail are handled separately below: they are legal
// from every non-terminal status.
var transitions = map[DeliveryStatus]map[DeliveryEvent]DeliveryStatus{
	DeliveryPending: {
		EventAssign: DeliveryAssigned,
	},
	DeliveryAssigned: {
		EventAccept:  DeliveryAccepted,
		EventRelease: DeliveryPending,
	},
	DeliveryAccepted: {
		EventPickup:  DeliveryPickedUp,
		EventRelease: DeliveryPending,
	},
	DeliveryPickedUp: {
		EventTransit: DeliveryInTransit,
	},
	DeliveryInTransit: {
		EventDeliver: DeliveryDelivered,
	},
}

// Next returns the status reached from s by event e and whether the
// transition is allowed.
func (s DeliveryStatus) Next(e DeliveryEvent) (DeliveryStatus, bool) {
	if e == EventCancel {
		if s.Terminal() {
			return s, false
		}
		return DeliveryCancelled, true
	}
	if e == EventFail {
		if s.Terminal() {
			return s, false
		}
		return DeliveryFailed, true
	}
	next, ok := transitions[s][e]
	return next, ok
}

// Terminal reports whether the status cannot be left.
func (s DeliveryStatus) Terminal() bool {
	switch s {
	case DeliveryDelivered, DeliveryCancelled, DeliveryFailed:
		return true
	}
	return false
}

// Occupying reports whether a delivery in this status counts toward its
// courier's concurrent-delivery capacity.
func (s DeliveryStatus) Occupying() bool {
	switch s {
	case DeliveryAssigned, DeliveryAccepted, DeliveryPickedUp, DeliveryInTransit:
		return true
	}
	return false
}

// Delivery identifies one physical transport of one order.
//
// A delivery is never deleted, only terminated. Pickup may be nil when the
// pharmacy has no coordinates on file.
type Delivery struct {
	ID        int64
	OrderID   string
	Status    DeliveryStatus
	CourierID *int64
	Pickup    *geo.Point
	Dropoff   geo.Point
	Totals    OrderTotals

	CreatedAt    time.Time
	AssignedAt   *time.Time
	AcceptedAt   *time.Time
	PickedUpAt   *time.Time
	InTransitAt  *time.Time
	DeliveredAt  *time.Time
	CancelledAt  *time.Time
	CancelReason string
}

// AssignResult describes a completed assignment.
type AssignResult struct {
	DeliveryID int64
	OrderID    string
	CourierID  int64
	Score      float64
	AssignedAt time.Time
}

// BulkAssignReport aggregates per-item outcomes of a bulk assignment run.
type BulkAssignReport struct {
	Assigned    int
	NoCourier   int
	NotEligible int
	Failed      int
}

// Total returns the number of deliveries processed.
func (r BulkAssignReport) Total() int {
	return r.Assigned + r.NoCourier + r.NotEligible + r.Failed
}
