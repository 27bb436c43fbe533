package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/concert-seat-reservation/internal/model"
)

// BookingRepo stores confirmed bookings.  A booking is written as one row
// in bookings plus one row per seat in booking_seats; the unique key on
// (concert_id, date_time, seat_row, seat_number) rejects a seat booked
// twice even if the in-memory inventory were wrong.
type BookingRepo struct {
	db *sql.DB
}

func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// Save inserts b and its seats in one transaction and sets b.ID.
func (r *BookingRepo) Save(ctx context.Context, b *model.Booking) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() // no-op after commit

	at := utcSecond(b.Performance.DateTime)
	res, err := tx.ExecContext(ctx,
		`INSERT INTO bookings (hold_id, user_id, concert_id, date_time, price_band, confirmed_at) VALUES (?, ?, ?, ?, ?, ?)`,
		b.HoldID, b.UserID, b.Performance.ConcertID, at, string(b.PriceBand), b.ConfirmedAt.UTC())
	if err != nil {
		if isDuplicate(err) {
			return fmt.Errorf("booking for hold %s: %w", b.HoldID, ErrDuplicate)
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}

	if len(b.Seats) > 0 {
		// Build a single INSERT statement with multiple value tuples.
		var (
			sb   strings.Builder
			args = make([]any, 0, len(b.Seats)*5)
		)
		sb.WriteString(`INSERT INTO booking_seats (booking_id, concert_id, date_time, seat_row, seat_number) VALUES `)
		for i, s := range b.Seats {
			if i > 0 {
				sb.WriteString(",")
			}
			sb.WriteString("(?, ?, ?, ?, ?)")
			args = append(args, id, b.Performance.ConcertID, at, s.Row, s.Number)
		}
		if _, err := tx.ExecContext(ctx, sb.String(), args...); err != nil {
			if isDuplicate(err) {
				return fmt.Errorf("seats already booked: %w", ErrDuplicate)
			}
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	b.ID = uint64(id)
	return nil
}

// ListByUser returns the bookings of userID, newest first.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Booking, error) {
	return r.list(ctx, `WHERE b.user_id = ?`, userID)
}

// ListAll returns every booking.  Used to rebuild seat state at startup.
func (r *BookingRepo) ListAll(ctx context.Context) ([]model.Booking, error) {
	return r.list(ctx, ``)
}

func (r *BookingRepo) list(ctx context.Context, where string, args ...any) ([]model.Booking, error) {
	q := `SELECT b.id, b.hold_id, b.user_id, b.concert_id, b.date_time, b.price_band, b.confirmed_at,
	             s.seat_row, s.seat_number
	      FROM bookings b
	      JOIN booking_seats s ON s.booking_id = b.id
	      ` + where + `
	      ORDER BY b.confirmed_at DESC, b.id DESC, s.seat_row, s.seat_number`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Booking{}
	index := map[uint64]int{}
	for rows.Next() {
		var (
			b    model.Booking
			at   time.Time
			band string
			seat model.SeatRef
		)
		if err := rows.Scan(&b.ID, &b.HoldID, &b.UserID, &b.Performance.ConcertID, &at, &band,
			&b.ConfirmedAt, &seat.Row, &seat.Number); err != nil {
			return nil, err
		}
		i, ok := index[b.ID]
		if !ok {
			b.Performance = model.NewPerformance(b.Performance.ConcertID, at)
			b.PriceBand = model.PriceBand(band)
			b.ConfirmedAt = b.ConfirmedAt.UTC()
			out = append(out, b)
			i = len(out) - 1
			index[b.ID] = i
		}
		out[i].Seats = append(out[i].Seats, seat)
	}
	return out, rows.Err()
}
