package model

import (
	"fmt"
	"strings"
	"time"
)

// PriceBand is a pricing tier associated with a fixed set of seat rows.
type PriceBand string

const (
	PriceBandA PriceBand = "PriceBandA"
	PriceBandB PriceBand = "PriceBandB"
	PriceBandC PriceBand = "PriceBandC"
)

// ParsePriceBand accepts either the short form ("A") or the full form
// ("PriceBandA"), case-insensitively.
func ParsePriceBand(s string) (PriceBand, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "PRICEBAND")
	switch s {
	case "A":
		return PriceBandA, true
	case "B":
		return PriceBandB, true
	case "C":
		return PriceBandC, true
	}
	return "", false
}

// SeatStatus is the availability state of a seat for one performance.
type SeatStatus string

const (
	SeatFree   SeatStatus = "FREE"
	SeatHeld   SeatStatus = "HELD"
	SeatBooked SeatStatus = "BOOKED"
)

// SeatRef identifies a seat inside a performance by row label and seat
// number.  Holds and bookings refer to seats only through SeatRef values.
type SeatRef struct {
	Row    string `json:"row"`
	Number int    `json:"number"`
}

func (s SeatRef) String() string { return fmt.Sprintf("%s%d", s.Row, s.Number) }

// Seat is a read-only snapshot of one seat of a performance.
//
// Fields:
//  Row, Number – position of the seat.
//  PriceBand   – derived from the row when the seat table is built; never changes.
//  Status      – FREE, HELD or BOOKED.
//  HeldAt      – set while the seat is HELD.
//  Version     – optimistic locking counter bumped by every status change.
type Seat struct {
	Row       string     `json:"row"`
	Number    int        `json:"number"`
	PriceBand PriceBand  `json:"price_band"`
	Status    SeatStatus `json:"status"`
	HeldAt    *time.Time `json:"held_at,omitempty"`
	Version   uint32     `json:"version"`
}

// Ref returns the SeatRef of s.
func (s Seat) Ref() SeatRef { return SeatRef{Row: s.Row, Number: s.Number} }
