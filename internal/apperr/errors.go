package apperr

import "errors"

// ErrInvalid is returned when the input fails domain validation.
var ErrInvalid = errors.New("invalid input")

// ErrNotFound indicates that the requested resource does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict indicates a uniqueness or state conflict (HTTP 409).
var ErrConflict = errors.New("conflict")

// ErrNotEligible is returned when the precondition for the requested
// transition does not hold (e.g. the delivery is already assigned).
// Callers treat it as "nothing to do".
var ErrNotEligible = errors.New("not eligible")

// ErrNoCourierAvailable is returned when filtering and scoring produced no
// candidate. Callers may retry later or fall back to manual assignment.
var ErrNoCourierAvailable = errors.New("no courier available")

// ErrInsufficientBalance is returned when a debit would drive the wallet
// balance negative. The requested amount is never truncated.
var ErrInsufficientBalance = errors.New("insufficient balance")

// ErrInvalidAmount is returned for a non-positive credit or debit amount.
var ErrInvalidAmount = errors.New("invalid amount")
