package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/concert-seat-reservation/internal/model"
)

// ConcertRepo reads the concert catalog and its schedule.  Date-times are
// stored in UTC with second precision.
type ConcertRepo struct {
	db *sql.DB
}

func NewConcertRepo(db *sql.DB) *ConcertRepo { return &ConcertRepo{db: db} }

// Create inserts a concert together with its performance date-times.
func (r *ConcertRepo) Create(ctx context.Context, c *model.Concert, dates ...time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() // no-op after commit

	res, err := tx.ExecContext(ctx, `INSERT INTO concerts (title) VALUES (?)`, c.Title)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)

	for _, d := range dates {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO concert_dates (concert_id, date_time) VALUES (?, ?)`,
			c.ID, utcSecond(d)); err != nil {
			if isDuplicate(err) {
				return ErrDuplicate
			}
			return err
		}
	}
	return tx.Commit()
}

func (r *ConcertRepo) GetByID(ctx context.Context, id uint64) (model.Concert, error) {
	var c model.Concert
	err := r.db.QueryRowContext(ctx, `SELECT id, title FROM concerts WHERE id = ?`, id).Scan(&c.ID, &c.Title)
	if errors.Is(err, sql.ErrNoRows) {
		return c, ErrNotFound
	}
	return c, err
}

// List returns every concert ordered by id.
func (r *ConcertRepo) List(ctx context.Context) ([]model.Concert, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, title FROM concerts ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Concert{}
	for rows.Next() {
		var c model.Concert
		if err := rows.Scan(&c.ID, &c.Title); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Dates returns the scheduled date-times of a concert in ascending order.
// An unknown concert yields ErrNotFound.
func (r *ConcertRepo) Dates(ctx context.Context, concertID uint64) ([]time.Time, error) {
	if _, err := r.GetByID(ctx, concertID); err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT date_time FROM concert_dates WHERE concert_id = ? ORDER BY date_time`, concertID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []time.Time{}
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		out = append(out, t.UTC())
	}
	return out, rows.Err()
}

// IsScheduled reports whether the concert is performed at exactly at.
func (r *ConcertRepo) IsScheduled(ctx context.Context, concertID uint64, at time.Time) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM concert_dates WHERE concert_id = ? AND date_time = ? LIMIT 1`,
		concertID, utcSecond(at)).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func utcSecond(t time.Time) time.Time { return t.UTC().Truncate(time.Second) }
