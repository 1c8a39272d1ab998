package entity

import (
	"strings"
	"time"

	errs "github.com/nerbixa/payment-reconciler/internal/domain/error"
)

// Balance defaults granted when the identity provider provisions a user
const (
	DefaultAvailableGenerations = 20
	DefaultUsedGenerations      = 0
)

// User is an identity-linked profile holding the generation credit balance
type User struct {
	ID                   string // External identity id
	Email                string
	AvailableGenerations int // Purchased plus free credit pool
	UsedGenerations      int // Consumed since the last top-up, folded back on every top-up
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// NewUser creates a user with the provisioning defaults
func NewUser(id, email string, now time.Time) (*User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errs.ErrInvalidUserID
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, errs.ErrInvalidEmail
	}

	return &User{
		ID:                   id,
		Email:                email,
		AvailableGenerations: DefaultAvailableGenerations,
		UsedGenerations:      DefaultUsedGenerations,
		CreatedAt:            now,
		UpdatedAt:            now,
	}, nil
}

// NetBalance returns the credits the user can still spend
func (u *User) NetBalance() int {
	return u.AvailableGenerations - u.UsedGenerations
}

// ApplyTopUp folds consumed credits into the pool and adds the purchased tokens.
// available becomes available - used + tokens and used resets to zero.
func (u *User) ApplyTopUp(tokens int, now time.Time) (int, error) {
	if tokens <= 0 {
		return 0, errs.ErrInvalidTokenCount
	}

	newAvailable := u.AvailableGenerations - u.UsedGenerations + tokens
	if newAvailable < 0 {
		return 0, errs.ErrNegativeBalance
	}

	u.AvailableGenerations = newAvailable
	u.UsedGenerations = 0
	u.UpdatedAt = now
	return newAvailable, nil
}

// ApplyRefund removes refunded tokens from the pool, floored at zero
func (u *User) ApplyRefund(tokens int, now time.Time) (int, error) {
	if tokens <= 0 {
		return 0, errs.ErrInvalidTokenCount
	}

	u.AvailableGenerations = max(0, u.AvailableGenerations-tokens)
	u.UpdatedAt = now
	return u.AvailableGenerations, nil
}
