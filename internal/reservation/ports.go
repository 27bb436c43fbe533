package reservation

import (
	"context"
	"time"

	"github.com/iliyamo/concert-seat-reservation/internal/model"
)

// Scheduler answers whether a concert is performed at a date-time.
type Scheduler interface {
	IsScheduled(ctx context.Context, concertID uint64, at time.Time) (bool, error)
}

// PaymentChecker reports whether a user has a usable payment method.
type PaymentChecker interface {
	HasValidCard(ctx context.Context, userID uint64) (bool, error)
}

// BookingStore persists confirmed bookings.  Save assigns b.ID.
type BookingStore interface {
	Save(ctx context.Context, b *model.Booking) error
	ListByUser(ctx context.Context, userID uint64) ([]model.Booking, error)
	ListAll(ctx context.Context) ([]model.Booking, error)
}

// Notifier is told about every confirmed booking.  Implementations must
// not block the caller.
type Notifier interface {
	BookingConfirmed(ctx context.Context, b model.Booking)
}

type nopNotifier struct{}

func (nopNotifier) BookingConfirmed(context.Context, model.Booking) {}
