package reservation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/concert-seat-reservation/internal/model"
)

func TestFreeSeatsRowMajor(t *testing.T) {
	h := newHarness(t)

	free := h.inv.FreeSeats(h.perf(), model.PriceBandC)
	require.Len(t, free, 5)
	assert.Equal(t, []model.SeatRef{{Row: "A", Number: 1}, {Row: "A", Number: 2}, {Row: "A", Number: 3}, {Row: "B", Number: 1}, {Row: "B", Number: 2}}, refs(free))
	for _, c := range free {
		assert.Zero(t, c.Version)
	}
}

func TestClaimIsAllOrNothing(t *testing.T) {
	h := newHarness(t)
	now := h.clock.Now()

	free := h.inv.FreeSeats(h.perf(), model.PriceBandA)
	require.NoError(t, h.inv.Claim(h.perf(), "h1", free[:2], now))

	// free[1] is now held, so the overlapping set must fail without touching free[2]
	err := h.inv.Claim(h.perf(), "h2", free[1:3], now)
	assert.ErrorIs(t, err, ErrSeatConflict)

	counts := h.inv.Counts(h.perf())[model.PriceBandA]
	assert.Equal(t, Availability{Free: 2, Held: 2}, counts)
}

func TestClaimRejectsStaleVersion(t *testing.T) {
	h := newHarness(t)
	now := h.clock.Now()

	stale := h.inv.FreeSeats(h.perf(), model.PriceBandB)
	require.NoError(t, h.inv.Claim(h.perf(), "h1", stale, now))
	require.Equal(t, 1, h.inv.Release(h.perf(), "h1", refs(stale)))

	// the seat is FREE again but its version moved twice
	assert.ErrorIs(t, h.inv.Claim(h.perf(), "h2", stale, now), ErrSeatConflict)

	fresh := h.inv.FreeSeats(h.perf(), model.PriceBandB)
	assert.Equal(t, uint32(2), fresh[0].Version)
	assert.NoError(t, h.inv.Claim(h.perf(), "h2", fresh, now))
}

func TestClaimRejectsDuplicateCandidates(t *testing.T) {
	h := newHarness(t)
	free := h.inv.FreeSeats(h.perf(), model.PriceBandC)

	err := h.inv.Claim(h.perf(), "h1", []Candidate{free[0], free[0]}, h.clock.Now())
	assert.ErrorIs(t, err, ErrSeatConflict)
	assert.Len(t, h.inv.FreeSeats(h.perf(), model.PriceBandC), 5)
}

func TestReleaseOnlyTouchesOwnHold(t *testing.T) {
	h := newHarness(t)
	free := h.inv.FreeSeats(h.perf(), model.PriceBandC)
	require.NoError(t, h.inv.Claim(h.perf(), "h1", free[:2], h.clock.Now()))

	assert.Zero(t, h.inv.Release(h.perf(), "other", refs(free[:2])))
	assert.Equal(t, 2, h.inv.Release(h.perf(), "h1", refs(free[:2])))
	assert.Zero(t, h.inv.Release(h.perf(), "h1", refs(free[:2])))
}

func TestPromoteAndRevert(t *testing.T) {
	h := newHarness(t)
	free := h.inv.FreeSeats(h.perf(), model.PriceBandA)
	require.NoError(t, h.inv.Claim(h.perf(), "h1", free[:3], h.clock.Now()))

	// one seat of the set is not held by h1
	assert.ErrorIs(t, h.inv.Promote(h.perf(), "h1", refs(free[:4])), ErrSeatNotHeld)
	assert.Equal(t, Availability{Free: 1, Held: 3}, h.inv.Counts(h.perf())[model.PriceBandA])

	require.NoError(t, h.inv.Promote(h.perf(), "h1", refs(free[:3])))
	assert.Equal(t, Availability{Free: 1, Booked: 3}, h.inv.Counts(h.perf())[model.PriceBandA])
	assert.Zero(t, h.inv.Release(h.perf(), "h1", refs(free[:3])), "booked seats are never released")

	assert.Equal(t, 3, h.inv.Revert(h.perf(), "h1", refs(free[:3])))
	assert.Equal(t, Availability{Free: 1, Held: 3}, h.inv.Counts(h.perf())[model.PriceBandA])
}

func TestSnapshotReportsHeldAt(t *testing.T) {
	h := newHarness(t)
	now := h.clock.Now()
	free := h.inv.FreeSeats(h.perf(), model.PriceBandB)
	require.NoError(t, h.inv.Claim(h.perf(), "h1", free, now))

	var found bool
	for _, s := range h.inv.Snapshot(h.perf()) {
		if s.Row == "E" {
			found = true
			assert.Equal(t, model.SeatHeld, s.Status)
			assert.Equal(t, model.PriceBandB, s.PriceBand)
			require.NotNil(t, s.HeldAt)
			assert.Equal(t, now, *s.HeldAt)
		} else {
			assert.Nil(t, s.HeldAt)
		}
	}
	assert.True(t, found)
	h.assertPartition(t)
}

func TestPerformancesAreIndependent(t *testing.T) {
	h := newHarness(t)
	other := model.NewPerformance(1, showTime.Add(24*time.Hour))

	free := h.inv.FreeSeats(h.perf(), model.PriceBandB)
	require.NoError(t, h.inv.Claim(h.perf(), "h1", free, h.clock.Now()))

	assert.Empty(t, h.inv.FreeSeats(h.perf(), model.PriceBandB))
	assert.Len(t, h.inv.FreeSeats(other, model.PriceBandB), 1)
}

func TestMarkBookedSkipsUnknownSeats(t *testing.T) {
	h := newHarness(t)
	n := h.inv.MarkBooked(h.perf(), []model.SeatRef{{Row: "A", Number: 1}, {Row: "Z", Number: 9}, {Row: "A", Number: 1}})
	assert.Equal(t, 1, n)
	assert.Equal(t, Availability{Free: 4, Booked: 1}, h.inv.Counts(h.perf())[model.PriceBandC])
}
