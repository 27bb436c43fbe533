// Package reservation allocates theatre seats to time-limited holds and
// turns holds into bookings.
//
// Seat state lives in Inventory, outstanding holds in Ledger.  Manager is
// the entry point used by the HTTP layer; Reaper releases expired holds in
// the background.
package reservation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/concert-seat-reservation/internal/model"
)

// ReserveRequest asks for SeatCount seats of PriceBand at one performance.
type ReserveRequest struct {
	ConcertID uint64
	DateTime  time.Time
	PriceBand model.PriceBand
	SeatCount int
}

type Manager struct {
	inv      *Inventory
	ledger   *Ledger
	schedule Scheduler
	payment  PaymentChecker
	store    BookingStore
	notifier Notifier
	log      logrus.FieldLogger

	ttl         time.Duration
	maxAttempts int
	callTimeout time.Duration
}

func NewManager(inv *Inventory, ledger *Ledger, schedule Scheduler, payment PaymentChecker, store BookingStore, opts ...Option) *Manager {
	m := &Manager{
		inv:         inv,
		ledger:      ledger,
		schedule:    schedule,
		payment:     payment,
		store:       store,
		notifier:    nopNotifier{},
		log:         logrus.StandardLogger(),
		ttl:         DefaultHoldTTL,
		maxAttempts: DefaultMaxClaimAttempts,
		callTimeout: DefaultCollaboratorTimeout,
	}
	for _, o := range opts {
		o(m)
	}
	m.log = m.log.WithField("component", "reservation")
	return m
}

func (m *Manager) HoldTTL() time.Duration { return m.ttl }

// Reserve claims SeatCount free seats of the requested band and records a
// hold on them that expires after the hold TTL.
func (m *Manager) Reserve(ctx context.Context, id model.Identity, req ReserveRequest) (model.Hold, error) {
	if id.IsZero() {
		return model.Hold{}, ErrUnauthenticated
	}
	perf := model.NewPerformance(req.ConcertID, req.DateTime)
	if err := m.checkScheduled(ctx, perf); err != nil {
		return model.Hold{}, err
	}
	if req.SeatCount <= 0 || !m.inv.Layout().HasBand(req.PriceBand) {
		return model.Hold{}, ErrInvalidRequest
	}

	holdID := uuid.NewString()
	for attempt := 1; attempt <= m.maxAttempts; attempt++ {
		free := m.inv.FreeSeats(perf, req.PriceBand)
		if len(free) < req.SeatCount {
			return model.Hold{}, ErrInsufficientSeats
		}
		picked := free[:req.SeatCount]
		now := m.ledger.Now()
		err := m.inv.Claim(perf, holdID, picked, now)
		if errors.Is(err, ErrSeatConflict) {
			m.log.WithFields(logrus.Fields{"performance": perf.String(), "attempt": attempt}).
				Debug("seat claim conflict, retrying")
			continue
		}
		if err != nil {
			return model.Hold{}, err
		}

		h := model.Hold{
			ID:          holdID,
			UserID:      id.UserID,
			Performance: perf,
			PriceBand:   req.PriceBand,
			SeatCount:   req.SeatCount,
			Seats:       refs(picked),
			CreatedAt:   now,
			ExpiresAt:   now.Add(m.ttl),
		}
		m.ledger.Put(h)
		m.log.WithFields(logrus.Fields{
			"hold_id":     h.ID,
			"user_id":     h.UserID,
			"performance": perf.String(),
			"seats":       len(h.Seats),
		}).Info("seats held")
		return h, nil
	}
	return model.Hold{}, ErrInsufficientSeats
}

// Confirm turns a hold owned by id into a booking.  A confirm that starts
// before the hold deadline cannot be overtaken by the reaper.
func (m *Manager) Confirm(ctx context.Context, id model.Identity, holdID string) (model.Booking, error) {
	if id.IsZero() {
		return model.Booking{}, ErrUnauthenticated
	}

	now, pinned := m.ledger.Pin(holdID)
	if pinned {
		defer m.ledger.Unpin(holdID)
	}
	unlock := m.ledger.Lock(holdID)
	defer unlock()

	h, err := m.lookup(id, holdID)
	if err != nil {
		return model.Booking{}, err
	}
	if h.ExpiredAt(now) {
		if _, ok := m.ledger.Reap(holdID); ok {
			m.inv.Release(h.Performance, h.ID, h.Seats)
		}
		return model.Booking{}, ErrHoldExpired
	}

	ok, err := m.hasValidCard(ctx, id.UserID)
	if err != nil {
		return model.Booking{}, fmt.Errorf("check payment method: %w", err)
	}
	if !ok {
		return model.Booking{}, ErrPaymentMethodMissing
	}

	if err := m.inv.Promote(h.Performance, h.ID, h.Seats); err != nil {
		m.log.WithField("hold_id", h.ID).WithError(err).Warn("promote failed, treating hold as expired")
		if _, ok := m.ledger.Remove(h.ID, model.HoldExpired); ok {
			m.inv.Release(h.Performance, h.ID, h.Seats)
		}
		return model.Booking{}, ErrHoldExpired
	}

	b := model.Booking{
		HoldID:      h.ID,
		UserID:      h.UserID,
		Performance: h.Performance,
		PriceBand:   h.PriceBand,
		Seats:       append([]model.SeatRef(nil), h.Seats...),
		ConfirmedAt: now,
	}
	if err := m.saveBooking(ctx, &b); err != nil {
		m.inv.Revert(h.Performance, h.ID, h.Seats)
		return model.Booking{}, fmt.Errorf("save booking: %w", err)
	}
	m.ledger.Remove(h.ID, model.HoldConfirmed)

	m.log.WithFields(logrus.Fields{
		"booking_id": b.ID,
		"hold_id":    h.ID,
		"user_id":    b.UserID,
		"seats":      len(b.Seats),
	}).Info("booking confirmed")
	m.notifier.BookingConfirmed(context.WithoutCancel(ctx), b)
	return b, nil
}

// Hold returns the outstanding hold holdID if id owns it.
func (m *Manager) Hold(ctx context.Context, id model.Identity, holdID string) (model.Hold, error) {
	if id.IsZero() {
		return model.Hold{}, ErrUnauthenticated
	}
	h, err := m.lookup(id, holdID)
	if err != nil {
		return model.Hold{}, err
	}
	if h.ExpiredAt(m.ledger.Now()) {
		return model.Hold{}, ErrHoldExpired
	}
	return h, nil
}

// Bookings lists the bookings of id.
func (m *Manager) Bookings(ctx context.Context, id model.Identity) ([]model.Booking, error) {
	if id.IsZero() {
		return nil, ErrUnauthenticated
	}
	ctx, cancel := context.WithTimeout(ctx, m.callTimeout)
	defer cancel()
	return m.store.ListByUser(ctx, id.UserID)
}

// Seats returns the seat map of a scheduled performance.
func (m *Manager) Seats(ctx context.Context, concertID uint64, at time.Time) ([]model.Seat, error) {
	perf := model.NewPerformance(concertID, at)
	if err := m.checkScheduled(ctx, perf); err != nil {
		return nil, err
	}
	return m.inv.Snapshot(perf), nil
}

// Availability counts free, held and booked seats per band.
func (m *Manager) Availability(ctx context.Context, concertID uint64, at time.Time) (map[model.PriceBand]Availability, error) {
	perf := model.NewPerformance(concertID, at)
	if err := m.checkScheduled(ctx, perf); err != nil {
		return nil, err
	}
	return m.inv.Counts(perf), nil
}

// Restore marks the seats of every stored booking as BOOKED.  It must run
// before the first Reserve.
func (m *Manager) Restore(ctx context.Context) (int, error) {
	bookings, err := m.store.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("list bookings: %w", err)
	}
	n := 0
	for _, b := range bookings {
		n += m.inv.MarkBooked(b.Performance, b.Seats)
	}
	m.log.WithFields(logrus.Fields{"bookings": len(bookings), "seats": n}).Info("restored booked seats")
	return n, nil
}

// lookup must be called with the hold lock held.
func (m *Manager) lookup(id model.Identity, holdID string) (model.Hold, error) {
	h, ok := m.ledger.Get(holdID)
	if !ok {
		if outcome, seen := m.ledger.Outcome(holdID); seen && outcome == model.HoldExpired {
			return model.Hold{}, ErrHoldExpired
		}
		return model.Hold{}, ErrHoldNotFound
	}
	if h.UserID != id.UserID {
		return model.Hold{}, ErrOwnershipMismatch
	}
	return h, nil
}

func (m *Manager) checkScheduled(ctx context.Context, perf model.Performance) error {
	ctx, cancel := context.WithTimeout(ctx, m.callTimeout)
	defer cancel()
	ok, err := m.schedule.IsScheduled(ctx, perf.ConcertID, perf.DateTime)
	if err != nil {
		return fmt.Errorf("check schedule: %w", err)
	}
	if !ok {
		return ErrNotScheduled
	}
	return nil
}

func (m *Manager) hasValidCard(ctx context.Context, userID uint64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, m.callTimeout)
	defer cancel()
	return m.payment.HasValidCard(ctx, userID)
}

func (m *Manager) saveBooking(ctx context.Context, b *model.Booking) error {
	ctx, cancel := context.WithTimeout(ctx, m.callTimeout)
	defer cancel()
	return m.store.Save(ctx, b)
}

func refs(cands []Candidate) []model.SeatRef {
	out := make([]model.SeatRef, len(cands))
	for i, c := range cands {
		out[i] = c.Ref
	}
	return out
}
