package persistence

import (
	"context"

	"github.com/nerbixa/payment-reconciler/internal/domain/entity"
)

// UserRepository defines essential methods to interact with user balance data
type UserRepository interface {
	// GetByID retrieves a user by external identity id without locking
	// Used by the balance verification poll
	//
	// Possible errors:
	// - ErrUserNotFound: If user with specified ID doesn't exist
	// - ErrDatabaseConnection: If database connection fails
	GetByID(ctx context.Context, id string) (*entity.User, error)

	// GetByIDForUpdate retrieves a user and holds a row lock until the surrounding
	// unit of work ends. Every balance mutation must read through this method.
	//
	// Possible errors:
	// - ErrUserNotFound: If user with specified ID doesn't exist
	// - ErrTransient: On lock timeout or deadlock
	// - ErrDatabaseConnection: If database connection fails
	GetByIDForUpdate(ctx context.Context, id string) (*entity.User, error)

	// Create provisions a new user
	//
	// Possible errors:
	// - ErrDuplicateUser: If user with same ID or email already exists
	// - ErrDatabaseConnection: If database connection fails
	Create(ctx context.Context, user *entity.User) error

	// UpdateBalance persists AvailableGenerations and UsedGenerations
	//
	// Possible errors:
	// - ErrUserNotFound: If user doesn't exist
	// - ErrNegativeBalance: If the stored balance would become negative
	// - ErrDatabaseConnection: If database connection fails
	UpdateBalance(ctx context.Context, user *entity.User) error
}
