package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/concert-seat-reservation/internal/model"
	"github.com/iliyamo/concert-seat-reservation/internal/queue"
)

// EventPublisher sends booking events to the broker.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.BookingConfirmedEvent) error
}

// ConcertLookup resolves a concert title for the event payload.
type ConcertLookup interface {
	GetByID(ctx context.Context, id uint64) (model.Concert, error)
}

// BookingNotifier hands confirmed bookings to a background publisher
// through a bounded buffer.  BookingConfirmed never blocks: when the
// buffer is full the booking is dropped and a warning is logged.
type BookingNotifier struct {
	pub      EventPublisher
	concerts ConcertLookup
	pending  chan model.Booking
	log      logrus.FieldLogger
}

func NewBookingNotifier(pub EventPublisher, concerts ConcertLookup, buffer int, log logrus.FieldLogger) *BookingNotifier {
	if buffer < 1 {
		buffer = 1
	}
	return &BookingNotifier{
		pub:      pub,
		concerts: concerts,
		pending:  make(chan model.Booking, buffer),
		log:      log.WithField("component", "notifier"),
	}
}

func (n *BookingNotifier) BookingConfirmed(_ context.Context, b model.Booking) {
	select {
	case n.pending <- b:
	default:
		n.log.WithField("booking_id", b.ID).Warn("notification buffer full, dropping booking event")
	}
}

// Run publishes buffered bookings until ctx is cancelled.  Publish
// failures are logged and the booking is not retried.
func (n *BookingNotifier) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case b := <-n.pending:
			n.publish(ctx, b)
		}
	}
}

func (n *BookingNotifier) publish(ctx context.Context, b model.Booking) {
	var title string
	if n.concerts != nil {
		if c, err := n.concerts.GetByID(ctx, b.Performance.ConcertID); err == nil {
			title = c.Title
		}
	}
	if err := n.pub.Publish(ctx, queue.NewBookingConfirmedEvent(b, title)); err != nil {
		n.log.WithError(err).WithField("booking_id", b.ID).Error("publish booking event failed")
		return
	}
	n.log.WithField("booking_id", b.ID).Debug("booking event published")
}
