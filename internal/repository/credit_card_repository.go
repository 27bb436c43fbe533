package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/concert-seat-reservation/internal/model"
)

// CreditCardRepo persists payment cards.  Only the last four digits of a
// card number ever reach the database.
type CreditCardRepo struct {
	db *sql.DB
}

func NewCreditCardRepo(db *sql.DB) *CreditCardRepo { return &CreditCardRepo{db: db} }

func (r *CreditCardRepo) Create(ctx context.Context, c *model.CreditCard) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO credit_cards (user_id, card_type, name, last4, expires_on) VALUES (?, ?, ?, ?, ?)`,
		c.UserID, string(c.Type), c.Name, c.Last4, c.ExpiresOn.UTC().Format("2006-01-02"))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	return nil
}

func (r *CreditCardRepo) ListByUser(ctx context.Context, userID uint64) ([]model.CreditCard, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, card_type, name, last4, expires_on, created_at
		 FROM credit_cards WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.CreditCard{}
	for rows.Next() {
		var (
			c  model.CreditCard
			ct string
		)
		if err := rows.Scan(&c.ID, &c.UserID, &ct, &c.Name, &c.Last4, &c.ExpiresOn, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.Type = model.CardType(ct)
		out = append(out, c)
	}
	return out, rows.Err()
}

// HasValidCard reports whether userID owns a card that has not expired on
// the day of now.
func (r *CreditCardRepo) HasValidCard(ctx context.Context, userID uint64, now time.Time) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM credit_cards WHERE user_id = ? AND expires_on >= ? LIMIT 1`,
		userID, now.UTC().Format("2006-01-02")).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
