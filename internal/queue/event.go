// Package queue carries booking events over RabbitMQ: a publisher used by
// the booking notifier and a consumer that appends every confirmed booking
// to a feed file.
package queue

import (
	"time"

	"github.com/iliyamo/concert-seat-reservation/internal/model"
)

// BookingConfirmedEvent is published when a hold is confirmed.  It holds
// enough for downstream consumers to build a feed entry without querying
// the database.
type BookingConfirmedEvent struct {
	BookingID    uint64   `json:"booking_id"`
	HoldID       string   `json:"hold_id"`
	UserID       uint64   `json:"user_id"`
	ConcertID    uint64   `json:"concert_id"`
	ConcertTitle string   `json:"concert_title,omitempty"`
	DateTime     string   `json:"date_time"`
	PriceBand    string   `json:"price_band"`
	Seats        []string `json:"seats"`
	ConfirmedAt  string   `json:"confirmed_at"`
}

// NewBookingConfirmedEvent renders b as an event.  title may be empty.
func NewBookingConfirmedEvent(b model.Booking, title string) BookingConfirmedEvent {
	seats := make([]string, len(b.Seats))
	for i, s := range b.Seats {
		seats[i] = s.String()
	}
	return BookingConfirmedEvent{
		BookingID:    b.ID,
		HoldID:       b.HoldID,
		UserID:       b.UserID,
		ConcertID:    b.Performance.ConcertID,
		ConcertTitle: title,
		DateTime:     b.Performance.DateTime.UTC().Format(time.RFC3339),
		PriceBand:    string(b.PriceBand),
		Seats:        seats,
		ConfirmedAt:  b.ConfirmedAt.UTC().Format(time.RFC3339),
	}
}
