package reservation

import "errors"

// Errors returned by Manager.  Callers match them with errors.Is.
var (
	ErrUnauthenticated      = errors.New("not authenticated")
	ErrInvalidRequest       = errors.New("invalid reservation request")
	ErrNotScheduled         = errors.New("concert is not scheduled at the requested date-time")
	ErrInsufficientSeats    = errors.New("not enough free seats in the requested price band")
	ErrHoldNotFound         = errors.New("reservation not found")
	ErrHoldExpired          = errors.New("reservation has expired")
	ErrPaymentMethodMissing = errors.New("no valid credit card registered")
	ErrOwnershipMismatch    = errors.New("reservation belongs to another user")
)

// Inventory level errors.  They never leave the package unwrapped.
var (
	ErrSeatConflict = errors.New("seat set changed since it was read")
	ErrSeatNotHeld  = errors.New("seat is not held by the reservation")
)
