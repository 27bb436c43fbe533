package model

import "time"

// HoldStatus tracks the lifecycle of a hold: PENDING until it is either
// confirmed or expired.  Both CONFIRMED and EXPIRED are terminal.
type HoldStatus string

const (
	HoldPending   HoldStatus = "PENDING"
	HoldConfirmed HoldStatus = "CONFIRMED"
	HoldExpired   HoldStatus = "EXPIRED"
)

// Hold is a temporary, time-bounded claim on a set of seats that has not
// been paid for yet.
//
// Fields:
//  ID          – opaque hold identifier returned to the client.
//  UserID      – identity that owns the hold.
//  Performance – performance the seats belong to.
//  PriceBand   – band that was requested.
//  SeatCount   – number of seats that was requested.
//  Seats       – seats claimed for the hold.
//  CreatedAt   – when the seats were claimed.
//  ExpiresAt   – CreatedAt + TTL; confirming at or after this instant fails.
type Hold struct {
	ID          string
	UserID      uint64
	Performance Performance
	PriceBand   PriceBand
	SeatCount   int
	Seats       []SeatRef
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

// ExpiredAt reports whether the hold deadline has been reached at now.
func (h Hold) ExpiredAt(now time.Time) bool { return !now.Before(h.ExpiresAt) }

// Booking is the permanent record created by confirming a still valid
// hold.  It corresponds to a row in `bookings` plus its `booking_seats`.
//
// Fields:
//  ID          – primary key identifier.
//  HoldID      – hold the booking was promoted from.
//  UserID      – owner of the booking.
//  Performance – booked performance.
//  PriceBand   – band of all seats in the booking.
//  Seats       – booked seats.
//  ConfirmedAt – when the hold was confirmed.
type Booking struct {
	ID          uint64
	HoldID      string
	UserID      uint64
	Performance Performance
	PriceBand   PriceBand
	Seats       []SeatRef
	ConfirmedAt time.Time
}
