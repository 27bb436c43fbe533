package model

import (
	"fmt"
	"time"
)

// Concert is a catalog entry that can be performed at one or more
// scheduled date-times.  It corresponds to a row in the `concerts`
// table.
//
// Fields:
//  ID    – primary key identifier.
//  Title – display title of the concert.
type Concert struct {
	ID    uint64 // concerts.id
	Title string // concerts.title
}

// Performance identifies one concert instance: the concert plus the
// date-time it is scheduled at.  Performances are immutable once
// scheduled and are the key into the seat inventory.
type Performance struct {
	ConcertID uint64
	DateTime  time.Time
}

// NewPerformance normalises the date-time to UTC with second precision so
// two requests naming the same instant always map to the same key.
func NewPerformance(concertID uint64, at time.Time) Performance {
	return Performance{ConcertID: concertID, DateTime: at.UTC().Truncate(time.Second)}
}

// PerformanceKey is a comparable map key for a Performance.
type PerformanceKey struct {
	ConcertID uint64
	Unix      int64
}

// Key returns the comparable key of p.
func (p Performance) Key() PerformanceKey {
	return PerformanceKey{ConcertID: p.ConcertID, Unix: p.DateTime.Unix()}
}

func (p Performance) String() string {
	return fmt.Sprintf("concert=%d at=%s", p.ConcertID, p.DateTime.UTC().Format(time.RFC3339))
}
