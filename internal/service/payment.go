package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/iliyamo/concert-seat-reservation/internal/clock"
	"github.com/iliyamo/concert-seat-reservation/internal/model"
	"github.com/iliyamo/concert-seat-reservation/internal/reservation"
)

var ErrInvalidCard = errors.New("invalid credit card")

// CardStore is the persistence the payment service needs.
type CardStore interface {
	Create(ctx context.Context, c *model.CreditCard) error
	HasValidCard(ctx context.Context, userID uint64, now time.Time) (bool, error)
}

// CardInput is a card as entered by the user.
type CardInput struct {
	Type   string
	Name   string
	Number string
	Expiry time.Time
}

// PaymentService registers credit cards and answers whether a user can pay.
// No money moves here.
type PaymentService struct {
	cards CardStore
	clock clock.Clock
}

func NewPaymentService(cards CardStore, clk clock.Clock) *PaymentService {
	return &PaymentService{cards: cards, clock: clk}
}

// RegisterCard validates in and stores it for id.  Only the last four
// digits of the number are kept.
func (s *PaymentService) RegisterCard(ctx context.Context, id model.Identity, in CardInput) (model.CreditCard, error) {
	if id.IsZero() {
		return model.CreditCard{}, reservation.ErrUnauthenticated
	}
	card, err := s.validate(in)
	if err != nil {
		return model.CreditCard{}, err
	}
	card.UserID = id.UserID
	if err := s.cards.Create(ctx, &card); err != nil {
		return model.CreditCard{}, err
	}
	return card, nil
}

// HasValidCard implements the engine's payment check.
func (s *PaymentService) HasValidCard(ctx context.Context, userID uint64) (bool, error) {
	return s.cards.HasValidCard(ctx, userID, s.clock.Now())
}

func (s *PaymentService) validate(in CardInput) (model.CreditCard, error) {
	var card model.CreditCard
	switch strings.ToLower(strings.TrimSpace(in.Type)) {
	case "visa":
		card.Type = model.CardVisa
	case "master", "mastercard":
		card.Type = model.CardMaster
	default:
		return card, fmt.Errorf("%w: unsupported type %q", ErrInvalidCard, in.Type)
	}

	card.Name = strings.TrimSpace(in.Name)
	if card.Name == "" {
		return card, fmt.Errorf("%w: name is required", ErrInvalidCard)
	}

	digits := strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' {
			return -1
		}
		return r
	}, in.Number)
	if len(digits) < 12 || len(digits) > 19 || strings.IndexFunc(digits, func(r rune) bool { return !unicode.IsDigit(r) }) >= 0 {
		return card, fmt.Errorf("%w: number must be 12 to 19 digits", ErrInvalidCard)
	}
	card.Last4 = digits[len(digits)-4:]

	card.ExpiresOn = in.Expiry.UTC()
	if !card.ValidAt(s.clock.Now()) {
		return card, fmt.Errorf("%w: card has expired", ErrInvalidCard)
	}
	return card, nil
}

// ParseExpiry accepts "MM/YY", "MM/YYYY", "YYYY-MM" or "YYYY-MM-DD".
// Month forms resolve to the last day of that month.
func ParseExpiry(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	for _, layout := range []string{"01/06", "01/2006", "2006-01"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.AddDate(0, 1, -1), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unrecognised expiry %q", ErrInvalidCard, s)
}
