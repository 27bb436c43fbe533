package reservation

import (
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/iliyamo/concert-seat-reservation/internal/clock"
	"github.com/iliyamo/concert-seat-reservation/internal/model"
)

const lockStripes = 64

type tombstone struct {
	outcome model.HoldStatus
	at      time.Time
}

// Ledger tracks outstanding holds.  Map access is guarded by mu; callers
// that read and then write one hold serialize on Lock(id) first.
//
// Removed holds leave a tombstone with their outcome so that a late
// confirm can tell an expired hold from an unknown one.  A pinned hold is
// one a confirm started on before its deadline; Reap leaves it alone.
type Ledger struct {
	clock clock.Clock

	mu    sync.Mutex
	holds map[string]model.Hold
	pins  map[string]int
	tombs map[string]tombstone

	stripes [lockStripes]sync.Mutex
}

func NewLedger(clk clock.Clock) *Ledger {
	return &Ledger{
		clock: clk,
		holds: make(map[string]model.Hold),
		pins:  make(map[string]int),
		tombs: make(map[string]tombstone),
	}
}

// Lock acquires the mutex stripe of id and returns its release func.
func (l *Ledger) Lock(id string) (unlock func()) {
	m := &l.stripes[xxhash.Sum64String(id)%lockStripes]
	m.Lock()
	return m.Unlock
}

// Put stores a copy of h.  Holds handed out by the ledger never share
// their seat slice with the stored entry.
func (l *Ledger) Put(h model.Hold) {
	l.mu.Lock()
	l.holds[h.ID] = cloneHold(h)
	delete(l.tombs, h.ID)
	l.mu.Unlock()
}

func (l *Ledger) Get(id string) (model.Hold, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	h, ok := l.holds[id]
	if !ok {
		return model.Hold{}, false
	}
	return cloneHold(h), true
}

// Remove deletes id and records outcome.  It reports false when the hold
// was already gone.
func (l *Ledger) Remove(id string, outcome model.HoldStatus) (model.Hold, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.removeLocked(id, outcome)
}

// Reap removes id as EXPIRED unless a confirm has pinned it.
func (l *Ledger) Reap(id string) (model.Hold, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.pins[id] > 0 {
		return model.Hold{}, false
	}
	return l.removeLocked(id, model.HoldExpired)
}

func (l *Ledger) removeLocked(id string, outcome model.HoldStatus) (model.Hold, bool) {
	h, ok := l.holds[id]
	if !ok {
		return model.Hold{}, false
	}
	delete(l.holds, id)
	l.tombs[id] = tombstone{outcome: outcome, at: l.clock.Now()}
	return h, true // no longer stored, safe to hand out
}

// Outcome returns how a removed hold ended.
func (l *Ledger) Outcome(id string) (model.HoldStatus, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	t, ok := l.tombs[id]
	return t.outcome, ok
}

// Pin reads the clock and, if id is outstanding and not yet due, pins it.
// The returned instant is the start of the confirm.  Reading the clock
// under mu orders every pin against every Reap.
func (l *Ledger) Pin(id string) (time.Time, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.clock.Now()
	h, ok := l.holds[id]
	if !ok || h.ExpiredAt(now) {
		return now, false
	}
	l.pins[id]++
	return now, true
}

func (l *Ledger) Unpin(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.pins[id] <= 1 {
		delete(l.pins, id)
		return
	}
	l.pins[id]--
}

// AllExpiredBefore returns the holds whose deadline is at or before instant.
func (l *Ledger) AllExpiredBefore(instant time.Time) []model.Hold {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []model.Hold
	for _, h := range l.holds {
		if h.ExpiredAt(instant) {
			out = append(out, cloneHold(h))
		}
	}
	return out
}

// Prune forgets tombstones recorded before instant.
func (l *Ledger) Prune(before time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for id, t := range l.tombs {
		if t.at.Before(before) {
			delete(l.tombs, id)
			n++
		}
	}
	return n
}

// Len is the number of outstanding holds.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.holds)
}

// Now reads the ledger's clock.
func (l *Ledger) Now() time.Time { return l.clock.Now() }

func cloneHold(h model.Hold) model.Hold {
	h.Seats = append([]model.SeatRef(nil), h.Seats...)
	return h
}
