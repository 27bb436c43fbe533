package reservation

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/concert-seat-reservation/internal/clock"
)

// Reaper releases the seats of holds that passed their deadline.
type Reaper struct {
	inv       *Inventory
	ledger    *Ledger
	clock     clock.Clock
	interval  time.Duration
	retention time.Duration
	log       logrus.FieldLogger
}

func NewReaper(inv *Inventory, ledger *Ledger, clk clock.Clock, interval, retention time.Duration, log logrus.FieldLogger) *Reaper {
	if interval <= 0 {
		interval = time.Second
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Reaper{
		inv:       inv,
		ledger:    ledger,
		clock:     clk,
		interval:  interval,
		retention: retention,
		log:       log.WithField("component", "reaper"),
	}
}

// Run sweeps every interval until ctx is done.
func (r *Reaper) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	r.log.WithField("interval", r.interval).Info("expiry reaper started")
	for {
		select {
		case <-ctx.Done():
			r.log.Info("expiry reaper stopped")
			return nil
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}

// Sweep expires every due hold once and returns how many it reaped.  Holds
// that were confirmed meanwhile, or are pinned by a running confirm, are
// skipped.
func (r *Reaper) Sweep(ctx context.Context) int {
	now := r.clock.Now()
	reaped := 0
	for _, h := range r.ledger.AllExpiredBefore(now) {
		if ctx.Err() != nil {
			break
		}
		unlock := r.ledger.Lock(h.ID)
		if _, ok := r.ledger.Reap(h.ID); ok {
			freed := r.inv.Release(h.Performance, h.ID, h.Seats)
			reaped++
			r.log.WithFields(logrus.Fields{
				"hold_id": h.ID,
				"user_id": h.UserID,
				"freed":   freed,
			}).Debug("hold expired")
		}
		unlock()
	}
	if r.retention > 0 {
		r.ledger.Prune(now.Add(-r.retention))
	}
	if reaped > 0 {
		r.log.WithField("count", reaped).Info("released expired holds")
	}
	return reaped
}
