package domain

import (
	"regexp"
	"time"

	"pharmadispatch/internal/geo"
)

// CourierStatus represents the status of a courier.
type CourierStatus string

// List of possible courier statuses
const (
	CourierAvailable       CourierStatus = "available"
	CourierBusy            CourierStatus = "busy"
	CourierOffline         CourierStatus = "offline"
	CourierSuspended       CourierStatus = "suspended"
	CourierPendingApproval CourierStatus = "pending_approval"
)

var allowedCourierStatuses = [...]CourierStatus{
	CourierAvailable, CourierBusy, CourierOffline, CourierSuspended, CourierPendingApproval,
}

// Valid checks if the CourierStatus is valid
func (s CourierStatus) Valid() bool {
	for _, v := range allowedCourierStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// DefaultRating is assumed when a courier has no rating yet.
const DefaultRating = 3.0

// Courier represents a dispatchable delivery agent.
//
// Location and LocationUpdatedAt are nil until the courier reports a
// position; Rating is nil until the first review lands.
type Courier struct {
	ID                  int64
	Name                string
	Phone               string
	Status              CourierStatus
	Location            *geo.Point
	LocationUpdatedAt   *time.Time
	Rating              *float64
	CompletedDeliveries int
}

// EffectiveRating returns the courier rating, falling back to DefaultRating.
func (c Courier) EffectiveRating() float64 {
	if c.Rating == nil {
		return DefaultRating
	}
	return *c.Rating
}

// PartialCourierUpdate carries optional fields to update a courier.
// A nil field means “do not change” that attribute.
type PartialCourierUpdate struct {
	ID     int64
	Name   *string
	Phone  *string
	Status *CourierStatus
	Rating *float64
}

// rePhone is a regex to validate phone numbers
var rePhone = regexp.MustCompile(`^\+[0-9]{11,12}$`)

// ValidatePhone validates the phone number format
func ValidatePhone(s string) bool {
	return rePhone.MatchString(s)
}
