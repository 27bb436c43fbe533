package reservation

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/concert-seat-reservation/internal/layout"
	"github.com/iliyamo/concert-seat-reservation/internal/model"
)

func reserveReq(band model.PriceBand, n int) ReserveRequest {
	return ReserveRequest{ConcertID: 1, DateTime: showTime, PriceBand: band, SeatCount: n}
}

func TestReserveConfirmWholeBand(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.payment.add(alice.UserID)

	hold, err := h.mgr.Reserve(ctx, alice, reserveReq(model.PriceBandC, 5))
	require.NoError(t, err)
	require.Len(t, hold.Seats, 5)
	assert.Equal(t, h.clock.Now().Add(5*time.Second), hold.ExpiresAt)

	distinct := map[model.SeatRef]bool{}
	for _, s := range hold.Seats {
		band, ok := h.inv.Layout().BandForRow(s.Row)
		require.True(t, ok)
		assert.Equal(t, model.PriceBandC, band)
		distinct[s] = true
	}
	assert.Len(t, distinct, 5)

	booking, err := h.mgr.Confirm(ctx, alice, hold.ID)
	require.NoError(t, err)
	assert.Equal(t, hold.Seats, booking.Seats)
	assert.Equal(t, hold.ID, booking.HoldID)
	assert.Equal(t, uint64(1), booking.ID)
	assert.Zero(t, h.ledger.Len())

	_, err = h.mgr.Reserve(ctx, bob, reserveReq(model.PriceBandC, 1))
	assert.ErrorIs(t, err, ErrInsufficientSeats)

	assert.Len(t, h.notifier.seen, 1)
	h.assertPartition(t)
}

func TestConfirmAfterDeadlineExpires(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.payment.add(alice.UserID)

	hold, err := h.mgr.Reserve(ctx, alice, reserveReq(model.PriceBandA, 2))
	require.NoError(t, err)

	h.clock.Advance(6 * time.Second)
	_, err = h.mgr.Confirm(ctx, alice, hold.ID)
	assert.ErrorIs(t, err, ErrHoldExpired)
	assert.Zero(t, h.inv.Counts(h.perf())[model.PriceBandA].Booked)

	h.reaper.Sweep(ctx)
	again, err := h.mgr.Reserve(ctx, bob, reserveReq(model.PriceBandA, 2))
	require.NoError(t, err)
	assert.Equal(t, hold.Seats, again.Seats)

	// the first hold stays expired rather than unknown
	_, err = h.mgr.Confirm(ctx, alice, hold.ID)
	assert.ErrorIs(t, err, ErrHoldExpired)
	assert.Empty(t, h.store.bookings)
}

func TestConfirmAfterReaperRan(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.payment.add(alice.UserID)

	hold, err := h.mgr.Reserve(ctx, alice, reserveReq(model.PriceBandA, 2))
	require.NoError(t, err)

	h.clock.Advance(6 * time.Second)
	require.Equal(t, 1, h.reaper.Sweep(ctx))
	assert.Equal(t, 4, h.inv.Counts(h.perf())[model.PriceBandA].Free)

	_, err = h.mgr.Confirm(ctx, alice, hold.ID)
	assert.ErrorIs(t, err, ErrHoldExpired)
}

func TestConfirmJustBeforeDeadline(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.payment.add(alice.UserID)

	hold, err := h.mgr.Reserve(ctx, alice, reserveReq(model.PriceBandA, 1))
	require.NoError(t, err)

	h.clock.Advance(5*time.Second - time.Nanosecond)
	_, err = h.mgr.Confirm(ctx, alice, hold.ID)
	assert.NoError(t, err)
}

func TestReserveWholeBandThenOneMore(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	total := h.inv.Layout().SeatsInBand(model.PriceBandA)

	_, err := h.mgr.Reserve(ctx, alice, reserveReq(model.PriceBandA, total))
	require.NoError(t, err)

	before := h.inv.Snapshot(h.perf())
	_, err = h.mgr.Reserve(ctx, bob, reserveReq(model.PriceBandA, 1))
	assert.ErrorIs(t, err, ErrInsufficientSeats)
	assert.Equal(t, before, h.inv.Snapshot(h.perf()))
	assert.Equal(t, 1, h.ledger.Len())
}

func TestReserveRejections(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.mgr.Reserve(ctx, model.Identity{}, reserveReq(model.PriceBandA, 1))
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = h.mgr.Reserve(ctx, alice, reserveReq(model.PriceBandA, 0))
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = h.mgr.Reserve(ctx, alice, reserveReq(model.PriceBand("Gold"), 1))
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = h.mgr.Reserve(ctx, alice, ReserveRequest{ConcertID: 1, DateTime: showTime.Add(time.Hour), PriceBand: model.PriceBandA, SeatCount: 1})
	assert.ErrorIs(t, err, ErrNotScheduled)

	_, err = h.mgr.Reserve(ctx, alice, ReserveRequest{ConcertID: 2, DateTime: showTime, PriceBand: model.PriceBandA, SeatCount: 1})
	assert.ErrorIs(t, err, ErrNotScheduled)

	// the schedule is checked before the seat count and band
	_, err = h.mgr.Reserve(ctx, alice, ReserveRequest{ConcertID: 1, DateTime: showTime.Add(time.Hour), PriceBand: model.PriceBandA, SeatCount: 0})
	assert.ErrorIs(t, err, ErrNotScheduled)
	_, err = h.mgr.Reserve(ctx, alice, ReserveRequest{ConcertID: 2, DateTime: showTime, PriceBand: model.PriceBand("Gold"), SeatCount: 1})
	assert.ErrorIs(t, err, ErrNotScheduled)

	_, err = h.mgr.Reserve(ctx, alice, reserveReq(model.PriceBandA, 5))
	assert.ErrorIs(t, err, ErrInsufficientSeats)

	h.schedule.err = errors.New("db down")
	_, err = h.mgr.Reserve(ctx, alice, reserveReq(model.PriceBandA, 1))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotScheduled)

	assert.Zero(t, h.ledger.Len())
}

func TestReserveNormalisesDateTime(t *testing.T) {
	h := newHarness(t)
	local := showTime.In(time.FixedZone("NZST", 12*3600))

	hold, err := h.mgr.Reserve(context.Background(), alice, ReserveRequest{ConcertID: 1, DateTime: local, PriceBand: model.PriceBandB, SeatCount: 1})
	require.NoError(t, err)
	assert.Equal(t, h.perf().Key(), hold.Performance.Key())
}

func TestConfirmRejections(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	hold, err := h.mgr.Reserve(ctx, alice, reserveReq(model.PriceBandC, 2))
	require.NoError(t, err)

	_, err = h.mgr.Confirm(ctx, model.Identity{}, hold.ID)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = h.mgr.Confirm(ctx, bob, hold.ID)
	assert.ErrorIs(t, err, ErrOwnershipMismatch)

	_, err = h.mgr.Confirm(ctx, alice, "no-such-hold")
	assert.ErrorIs(t, err, ErrHoldNotFound)

	_, err = h.mgr.Confirm(ctx, alice, hold.ID)
	assert.ErrorIs(t, err, ErrPaymentMethodMissing)

	// every failure above leaves the hold untouched
	assert.Equal(t, 1, h.ledger.Len())
	assert.Equal(t, 2, h.inv.Counts(h.perf())[model.PriceBandC].Held)

	h.payment.add(alice.UserID)
	_, err = h.mgr.Confirm(ctx, alice, hold.ID)
	require.NoError(t, err)

	_, err = h.mgr.Confirm(ctx, alice, hold.ID)
	assert.ErrorIs(t, err, ErrHoldNotFound, "a confirmed hold cannot be confirmed twice")
}

func TestConfirmStoreFailureKeepsHold(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.payment.add(alice.UserID)

	hold, err := h.mgr.Reserve(ctx, alice, reserveReq(model.PriceBandC, 2))
	require.NoError(t, err)

	h.store.saveErr = errStoreDown
	_, err = h.mgr.Confirm(ctx, alice, hold.ID)
	assert.ErrorIs(t, err, errStoreDown)
	assert.Equal(t, Availability{Free: 3, Held: 2}, h.inv.Counts(h.perf())[model.PriceBandC])
	assert.Empty(t, h.notifier.seen)

	h.store.saveErr = nil
	_, err = h.mgr.Confirm(ctx, alice, hold.ID)
	assert.NoError(t, err)
}

func TestHoldLookup(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	hold, err := h.mgr.Reserve(ctx, alice, reserveReq(model.PriceBandC, 1))
	require.NoError(t, err)

	got, err := h.mgr.Hold(ctx, alice, hold.ID)
	require.NoError(t, err)
	assert.Equal(t, hold, got)

	_, err = h.mgr.Hold(ctx, bob, hold.ID)
	assert.ErrorIs(t, err, ErrOwnershipMismatch)

	h.clock.Advance(5 * time.Second)
	_, err = h.mgr.Hold(ctx, alice, hold.ID)
	assert.ErrorIs(t, err, ErrHoldExpired)
}

func TestBookingsAndRestore(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.payment.add(alice.UserID)

	hold, err := h.mgr.Reserve(ctx, alice, reserveReq(model.PriceBandA, 3))
	require.NoError(t, err)
	_, err = h.mgr.Confirm(ctx, alice, hold.ID)
	require.NoError(t, err)

	mine, err := h.mgr.Bookings(ctx, alice)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
	theirs, err := h.mgr.Bookings(ctx, bob)
	require.NoError(t, err)
	assert.Empty(t, theirs)
	_, err = h.mgr.Bookings(ctx, model.Identity{})
	assert.ErrorIs(t, err, ErrUnauthenticated)

	// a fresh engine over the same store sees the booked seats
	restarted := NewManager(NewInventory(h.inv.Layout()), NewLedger(h.clock), h.schedule, h.payment, h.store)
	n, err := restarted.Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	avail, err := restarted.Availability(ctx, 1, showTime)
	require.NoError(t, err)
	assert.Equal(t, Availability{Free: 1, Booked: 3}, avail[model.PriceBandA])

	seats, err := restarted.Seats(ctx, 1, showTime)
	require.NoError(t, err)
	assert.Len(t, seats, h.inv.Layout().Capacity())

	_, err = restarted.Seats(ctx, 1, showTime.Add(time.Minute))
	assert.ErrorIs(t, err, ErrNotScheduled)
}

func TestConcurrentReserveSingleSeat(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	const n = 50

	var (
		wg           sync.WaitGroup
		wins, losses atomic.Int32
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(uid uint64) {
			defer wg.Done()
			_, err := h.mgr.Reserve(ctx, model.Identity{UserID: uid}, reserveReq(model.PriceBandB, 1))
			switch {
			case err == nil:
				wins.Add(1)
			case errors.Is(err, ErrInsufficientSeats):
				losses.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(uint64(i + 1))
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
	assert.Equal(t, int32(n-1), losses.Load())
	assert.Equal(t, 1, h.ledger.Len())
}

func TestConcurrentReserveConfirmNeverDoubleBooks(t *testing.T) {
	idx, err := layout.Default()
	require.NoError(t, err)
	h := newHarness(t)
	h.inv = NewInventory(idx)
	h.mgr = NewManager(h.inv, h.ledger, h.schedule, h.payment, h.store, WithMaxClaimAttempts(10))
	ctx := context.Background()

	const users = 40
	var wg sync.WaitGroup
	for i := 0; i < users; i++ {
		uid := uint64(i + 1)
		h.payment.add(uid)
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := model.Identity{UserID: uid}
			for j := 0; j < 5; j++ {
				hold, err := h.mgr.Reserve(ctx, id, reserveReq(model.PriceBandC, 3))
				if err != nil {
					continue
				}
				_, _ = h.mgr.Confirm(ctx, id, hold.ID)
			}
		}()
	}
	wg.Wait()

	seen := map[model.SeatRef]uint64{}
	for _, b := range h.store.bookings {
		for _, s := range b.Seats {
			_, dup := seen[s]
			require.False(t, dup, "seat %s booked twice", s)
			seen[s] = b.ID
		}
	}
	booked := h.inv.Counts(h.perf())[model.PriceBandC].Booked
	assert.Equal(t, len(seen), booked)
	assert.LessOrEqual(t, booked, idx.SeatsInBand(model.PriceBandC))
	h.assertPartition(t)
}

func TestConfirmRacesReaper(t *testing.T) {
	for i := 0; i < 50; i++ {
		h := newHarness(t)
		ctx := context.Background()
		h.payment.add(alice.UserID)

		hold, err := h.mgr.Reserve(ctx, alice, reserveReq(model.PriceBandA, 2))
		require.NoError(t, err)
		h.clock.Advance(5*time.Second - time.Millisecond)

		var (
			wg         sync.WaitGroup
			confirmErr error
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, confirmErr = h.mgr.Confirm(ctx, alice, hold.ID)
		}()
		go func() {
			defer wg.Done()
			h.clock.Advance(time.Millisecond)
			h.reaper.Sweep(ctx)
		}()
		wg.Wait()

		counts := h.inv.Counts(h.perf())[model.PriceBandA]
		if confirmErr == nil {
			assert.Equal(t, 2, counts.Booked)
			assert.Len(t, h.store.bookings, 1)
		} else {
			assert.ErrorIs(t, confirmErr, ErrHoldExpired)
			assert.Equal(t, 4, counts.Free)
			assert.Empty(t, h.store.bookings)
		}
		h.assertPartition(t)
	}
}

func TestReturnedHoldDoesNotShareSeats(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	hold, err := h.mgr.Reserve(ctx, alice, reserveReq(model.PriceBandC, 2))
	require.NoError(t, err)
	want := append([]model.SeatRef(nil), hold.Seats...)

	hold.Seats[0] = model.SeatRef{Row: "ZZ", Number: 99}
	got, err := h.mgr.Hold(ctx, alice, hold.ID)
	require.NoError(t, err)
	assert.Equal(t, want, got.Seats)

	got.Seats[1] = model.SeatRef{Row: "ZZ", Number: 98}
	stored, ok := h.ledger.Get(hold.ID)
	require.True(t, ok)
	assert.Equal(t, want, stored.Seats)

	h.payment.add(alice.UserID)
	booking, err := h.mgr.Confirm(ctx, alice, hold.ID)
	require.NoError(t, err)
	assert.Equal(t, want, booking.Seats)
}
