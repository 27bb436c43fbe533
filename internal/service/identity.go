// Package service implements the collaborators the reservation engine
// relies on: user identity, payment methods and booking notification.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/concert-seat-reservation/internal/clock"
	"github.com/iliyamo/concert-seat-reservation/internal/model"
	"github.com/iliyamo/concert-seat-reservation/internal/repository"
	"github.com/iliyamo/concert-seat-reservation/internal/utils"
)

var (
	ErrMissingFields = errors.New("username and password are required")
	ErrUsernameTaken = errors.New("username is already taken")
	ErrUnknownUser   = errors.New("unknown user")
	ErrBadPassword   = errors.New("wrong password")
)

// UserStore is the persistence the identity service needs.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByUsername(ctx context.Context, username string) (model.User, error)
}

// Session is what a successful register or login hands back.
type Session struct {
	User        model.User
	AccessToken utils.AccessToken
}

type IdentityService struct {
	users      UserStore
	secret     string
	tokenTTL   time.Duration
	bcryptCost int
	clock      clock.Clock
}

func NewIdentityService(users UserStore, secret string, tokenTTL time.Duration, bcryptCost int, clk clock.Clock) *IdentityService {
	return &IdentityService{users: users, secret: secret, tokenTTL: tokenTTL, bcryptCost: bcryptCost, clock: clk}
}

// Register creates a user and signs them in.
func (s *IdentityService) Register(ctx context.Context, username, password, firstName, lastName string) (Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return Session{}, ErrMissingFields
	}
	hash, err := utils.HashPassword(password, s.bcryptCost)
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}
	u := model.User{
		Username:     username,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(firstName),
		LastName:     strings.TrimSpace(lastName),
	}
	if err := s.users.Create(ctx, &u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return Session{}, ErrUsernameTaken
		}
		return Session{}, err
	}
	return s.session(u)
}

// Authenticate checks credentials and issues a fresh access token.
func (s *IdentityService) Authenticate(ctx context.Context, username, password string) (Session, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return Session{}, ErrMissingFields
	}
	u, err := s.users.GetByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return Session{}, ErrUnknownUser
	}
	if err != nil {
		return Session{}, err
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return Session{}, ErrBadPassword
	}
	return s.session(u)
}

// CurrentIdentity resolves an access token.  Invalid or expired tokens
// yield the zero Identity and false.
func (s *IdentityService) CurrentIdentity(token string) (model.Identity, bool) {
	id, name, err := utils.ParseAccessToken(s.secret, token)
	if err != nil {
		return model.Identity{}, false
	}
	return model.Identity{UserID: id, Username: name}, true
}

func (s *IdentityService) session(u model.User) (Session, error) {
	tok, err := utils.NewAccessToken(s.secret, u.ID, u.Username, s.tokenTTL, s.clock.Now())
	if err != nil {
		return Session{}, fmt.Errorf("sign token: %w", err)
	}
	return Session{User: u, AccessToken: tok}, nil
}
