package model

import "time"

// User represents an application user record as stored in the
// `users` table. Each field corresponds to a column in the
// database. The json tags are omitted here because these structs
// are primarily used internally by the repository layer; handlers
// define separate response types with appropriate JSON tags.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Username     – unique login name.
//  PasswordHash – bcrypt hashed password.
//  FirstName    – given name.
//  LastName     – family name.
//  CreatedAt    – timestamp of creation.
type User struct {
	ID           uint64    // users.id
	Username     string    // users.username
	PasswordHash string    // users.password_hash
	FirstName    string    // users.first_name
	LastName     string    // users.last_name
	CreatedAt    time.Time // users.created_at
}

// Identity is the authenticated caller as seen by the reservation engine.
// The zero value means "not authenticated".
type Identity struct {
	UserID   uint64
	Username string
}

// IsZero reports whether id carries no authenticated user.
func (id Identity) IsZero() bool { return id.UserID == 0 }

// CardType enumerates the accepted credit card networks.
type CardType string

const (
	CardVisa   CardType = "Visa"
	CardMaster CardType = "Master"
)

// CreditCard models an entry in the `credit_cards` table.  Only the last
// four digits of the number are kept; the engine only needs to know
// whether a valid card exists.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the card.
//  Type      – card network.
//  Name      – name printed on the card.
//  Last4     – last four digits of the card number.
//  ExpiresOn – last valid day of the card.
//  CreatedAt – timestamp of creation.
type CreditCard struct {
	ID        uint64    // credit_cards.id
	UserID    uint64    // credit_cards.user_id
	Type      CardType  // credit_cards.card_type
	Name      string    // credit_cards.name
	Last4     string    // credit_cards.last4
	ExpiresOn time.Time // credit_cards.expires_on
	CreatedAt time.Time // credit_cards.created_at
}

// ValidAt reports whether the card is still usable on the day of now.
func (c CreditCard) ValidAt(now time.Time) bool {
	y1, m1, d1 := now.UTC().Date()
	y2, m2, d2 := c.ExpiresOn.UTC().Date()
	today := time.Date(y1, m1, d1, 0, 0, 0, 0, time.UTC)
	expiry := time.Date(y2, m2, d2, 0, 0, 0, 0, time.UTC)
	return !today.After(expiry)
}
