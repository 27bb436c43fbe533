package reservation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/concert-seat-reservation/internal/clock"
	"github.com/iliyamo/concert-seat-reservation/internal/layout"
	"github.com/iliyamo/concert-seat-reservation/internal/model"
)

var showTime = time.Date(2024, 6, 1, 19, 30, 0, 0, time.UTC)

type fakeSchedule struct {
	err   error
	shows map[uint64][]time.Time
}

func (f *fakeSchedule) IsScheduled(_ context.Context, concertID uint64, at time.Time) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	for _, t := range f.shows[concertID] {
		if t.Equal(at) {
			return true, nil
		}
	}
	return false, nil
}

type fakePayment struct {
	mu    sync.Mutex
	cards map[uint64]bool
}

func (f *fakePayment) HasValidCard(_ context.Context, userID uint64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cards[userID], nil
}

func (f *fakePayment) add(userID uint64) {
	f.mu.Lock()
	f.cards[userID] = true
	f.mu.Unlock()
}

type fakeStore struct {
	mu       sync.Mutex
	nextID   uint64
	bookings []model.Booking
	saveErr  error
}

func (f *fakeStore) Save(_ context.Context, b *model.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.nextID++
	b.ID = f.nextID
	f.bookings = append(f.bookings, *b)
	return nil
}

func (f *fakeStore) ListByUser(_ context.Context, userID uint64) ([]model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Booking
	for _, b := range f.bookings {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeStore) ListAll(context.Context) ([]model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Booking(nil), f.bookings...), nil
}

type recordingNotifier struct {
	mu   sync.Mutex
	seen []model.Booking
}

func (r *recordingNotifier) BookingConfirmed(_ context.Context, b model.Booking) {
	r.mu.Lock()
	r.seen = append(r.seen, b)
	r.mu.Unlock()
}

var errStoreDown = errors.New("store down")

// smallVenue has five band C seats, four band A seats and one band B seat.
const smallVenue = `
name: Small
rows:
  - {row: A, seats: 3, band: C}
  - {row: B, seats: 2, band: C}
  - {row: C, seats: 2, band: A}
  - {row: D, seats: 2, band: A}
  - {row: E, seats: 1, band: B}
`

type harness struct {
	clock    *clock.Fake
	inv      *Inventory
	ledger   *Ledger
	schedule *fakeSchedule
	payment  *fakePayment
	store    *fakeStore
	notifier *recordingNotifier
	mgr      *Manager
	reaper   *Reaper
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	idx, err := layout.Parse([]byte(smallVenue))
	require.NoError(t, err)

	h := &harness{
		clock:    clock.NewFake(showTime.Add(-48 * time.Hour)),
		schedule: &fakeSchedule{shows: map[uint64][]time.Time{1: {showTime}}},
		payment:  &fakePayment{cards: map[uint64]bool{}},
		store:    &fakeStore{},
		notifier: &recordingNotifier{},
	}
	h.inv = NewInventory(idx)
	h.ledger = NewLedger(h.clock)
	opts = append([]Option{WithNotifier(h.notifier), WithHoldTTL(5 * time.Second)}, opts...)
	h.mgr = NewManager(h.inv, h.ledger, h.schedule, h.payment, h.store, opts...)
	h.reaper = NewReaper(h.inv, h.ledger, h.clock, time.Second, time.Minute, nil)
	return h
}

func (h *harness) perf() model.Performance { return model.NewPerformance(1, showTime) }

// assertPartition checks that every seat is in exactly one state and that
// the per-band totals add up to the layout.
func (h *harness) assertPartition(t *testing.T) {
	t.Helper()
	seats := h.inv.Snapshot(h.perf())
	require.Len(t, seats, h.inv.Layout().Capacity())
	for band, a := range h.inv.Counts(h.perf()) {
		require.Equal(t, h.inv.Layout().SeatsInBand(band), a.Free+a.Held+a.Booked, "band %s", band)
	}
}

var (
	alice = model.Identity{UserID: 1, Username: "alice"}
	bob   = model.Identity{UserID: 2, Username: "bob"}
)
