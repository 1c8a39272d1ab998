package usecase

import (
	"context"

	"github.com/nerbixa/payment-reconciler/internal/domain/entity"
)

// UserUseCase defines methods for user-related business operations
type UserUseCase interface {
	// ProvisionUser creates a user with the default balance
	ProvisionUser(ctx context.Context, id, email string) (*entity.User, error)

	// GetUser returns the stored user
	GetUser(ctx context.Context, id string) (*entity.User, error)
}
