package reservation

import (
	"sync"
	"time"

	"github.com/iliyamo/concert-seat-reservation/internal/layout"
	"github.com/iliyamo/concert-seat-reservation/internal/model"
)

// Candidate is a free seat as it was observed by FreeSeats.  Claim fails
// if the seat's version moved since.
type Candidate struct {
	Ref     model.SeatRef
	Version uint32
}

// Availability counts the seats of one band by status.
type Availability struct {
	Free   int `json:"free"`
	Held   int `json:"held"`
	Booked int `json:"booked"`
}

type seatState struct {
	band    model.PriceBand
	status  model.SeatStatus
	holdID  string // set while HELD, kept while BOOKED for Revert
	heldAt  time.Time
	version uint32
}

func (s *seatState) set(status model.SeatStatus, holdID string, at time.Time) {
	s.status = status
	s.holdID = holdID
	s.heldAt = at
	s.version++
}

// seatTable is the seat state of one performance.  All reads and writes go
// through mu, which makes operations on one performance linearizable.
type seatTable struct {
	mu    sync.Mutex
	seats map[model.SeatRef]*seatState
}

// Inventory is the single source of truth for seat status.  Tables are
// created lazily from the layout the first time a performance is touched.
type Inventory struct {
	idx *layout.Index

	mu     sync.Mutex
	tables map[model.PerformanceKey]*seatTable
}

func NewInventory(idx *layout.Index) *Inventory {
	return &Inventory{idx: idx, tables: make(map[model.PerformanceKey]*seatTable)}
}

func (inv *Inventory) Layout() *layout.Index { return inv.idx }

func (inv *Inventory) table(perf model.Performance) *seatTable {
	key := perf.Key()
	inv.mu.Lock()
	defer inv.mu.Unlock()
	if t, ok := inv.tables[key]; ok {
		return t
	}
	t := &seatTable{seats: make(map[model.SeatRef]*seatState, inv.idx.Capacity())}
	for _, row := range inv.idx.Rows() {
		band, _ := inv.idx.BandForRow(row)
		for n := 1; n <= inv.idx.SeatsInRow(row); n++ {
			t.seats[model.SeatRef{Row: row, Number: n}] = &seatState{band: band, status: model.SeatFree}
		}
	}
	inv.tables[key] = t
	return t
}

// FreeSeats lists the free seats of band in row-major order.  It has no
// side effect other than creating the performance's table.
func (inv *Inventory) FreeSeats(perf model.Performance, band model.PriceBand) []Candidate {
	t := inv.table(perf)
	t.mu.Lock()
	defer t.mu.Unlock()

	var out []Candidate
	for _, row := range inv.idx.RowsForBand(band) {
		for n := 1; n <= inv.idx.SeatsInRow(row); n++ {
			ref := model.SeatRef{Row: row, Number: n}
			if s := t.seats[ref]; s.status == model.SeatFree {
				out = append(out, Candidate{Ref: ref, Version: s.version})
			}
		}
	}
	return out
}

// Claim moves every candidate from FREE to HELD for holdID, or changes
// nothing and returns ErrSeatConflict.
func (inv *Inventory) Claim(perf model.Performance, holdID string, cands []Candidate, now time.Time) error {
	t := inv.table(perf)
	t.mu.Lock()
	defer t.mu.Unlock()

	seen := make(map[model.SeatRef]struct{}, len(cands))
	for _, c := range cands {
		s, ok := t.seats[c.Ref]
		if !ok || s.status != model.SeatFree || s.version != c.Version {
			return ErrSeatConflict
		}
		if _, dup := seen[c.Ref]; dup {
			return ErrSeatConflict
		}
		seen[c.Ref] = struct{}{}
	}
	for _, c := range cands {
		t.seats[c.Ref].set(model.SeatHeld, holdID, now)
	}
	return nil
}

// Release frees the seats still held by holdID and returns how many it
// freed.  Seats held by another hold, or not held at all, are left alone.
func (inv *Inventory) Release(perf model.Performance, holdID string, seats []model.SeatRef) int {
	t := inv.table(perf)
	t.mu.Lock()
	defer t.mu.Unlock()

	n := 0
	for _, ref := range seats {
		if s, ok := t.seats[ref]; ok && s.status == model.SeatHeld && s.holdID == holdID {
			s.set(model.SeatFree, "", time.Time{})
			n++
		}
	}
	return n
}

// Promote books the whole seat set of holdID.  If any seat is not HELD by
// holdID nothing changes and ErrSeatNotHeld is returned.
func (inv *Inventory) Promote(perf model.Performance, holdID string, seats []model.SeatRef) error {
	t := inv.table(perf)
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, ref := range seats {
		s, ok := t.seats[ref]
		if !ok || s.status != model.SeatHeld || s.holdID != holdID {
			return ErrSeatNotHeld
		}
	}
	for _, ref := range seats {
		s := t.seats[ref]
		s.set(model.SeatBooked, holdID, s.heldAt)
	}
	return nil
}

// Revert undoes a Promote of holdID whose booking could not be stored.
func (inv *Inventory) Revert(perf model.Performance, holdID string, seats []model.SeatRef) int {
	t := inv.table(perf)
	t.mu.Lock()
	defer t.mu.Unlock()

	n := 0
	for _, ref := range seats {
		if s, ok := t.seats[ref]; ok && s.status == model.SeatBooked && s.holdID == holdID {
			s.set(model.SeatHeld, holdID, s.heldAt)
			n++
		}
	}
	return n
}

// MarkBooked forces seats to BOOKED.  It is only used to rebuild state from
// persisted bookings before any hold exists; unknown seats are skipped.
func (inv *Inventory) MarkBooked(perf model.Performance, seats []model.SeatRef) int {
	t := inv.table(perf)
	t.mu.Lock()
	defer t.mu.Unlock()

	n := 0
	for _, ref := range seats {
		if s, ok := t.seats[ref]; ok && s.status != model.SeatBooked {
			s.set(model.SeatBooked, "", time.Time{})
			n++
		}
	}
	return n
}

// Snapshot returns every seat of the performance in layout order.
func (inv *Inventory) Snapshot(perf model.Performance) []model.Seat {
	t := inv.table(perf)
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]model.Seat, 0, len(t.seats))
	for _, row := range inv.idx.Rows() {
		for n := 1; n <= inv.idx.SeatsInRow(row); n++ {
			s := t.seats[model.SeatRef{Row: row, Number: n}]
			seat := model.Seat{Row: row, Number: n, PriceBand: s.band, Status: s.status, Version: s.version}
			if s.status == model.SeatHeld {
				at := s.heldAt
				seat.HeldAt = &at
			}
			out = append(out, seat)
		}
	}
	return out
}

// Counts tallies seat status per band.
func (inv *Inventory) Counts(perf model.Performance) map[model.PriceBand]Availability {
	t := inv.table(perf)
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[model.PriceBand]Availability, len(inv.idx.Bands()))
	for _, s := range t.seats {
		a := out[s.band]
		switch s.status {
		case model.SeatFree:
			a.Free++
		case model.SeatHeld:
			a.Held++
		case model.SeatBooked:
			a.Booked++
		}
		out[s.band] = a
	}
	return out
}
