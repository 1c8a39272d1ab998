package user

import (
	"context"
	"strings"

	"github.com/nerbixa/payment-reconciler/internal/domain/entity"
	errs "github.com/nerbixa/payment-reconciler/internal/domain/error"
	coreport "github.com/nerbixa/payment-reconciler/internal/domain/port/core"
	"github.com/nerbixa/payment-reconciler/internal/domain/port/persistence"
	"github.com/nerbixa/payment-reconciler/internal/domain/port/usecase"
)

// UserUseCase handles user provisioning. In production users arrive from the
// identity provider; this path serves operators and local environments.
type UserUseCase struct {
	userRepo     persistence.UserRepository
	timeProvider coreport.TimeProvider
	logger       coreport.Logger
}

// NewUserUseCase creates a new UserUseCase
func NewUserUseCase(
	userRepo persistence.UserRepository,
	timeProvider coreport.TimeProvider,
	logger coreport.Logger,
) *UserUseCase {
	return &UserUseCase{
		userRepo:     userRepo,
		timeProvider: timeProvider,
		logger:       logger,
	}
}

// ProvisionUser creates a new user with the default 20 generation credits
func (u *UserUseCase) ProvisionUser(ctx context.Context, id, email string) (*entity.User, error) {
	user, err := entity.NewUser(id, email, u.timeProvider.Now())
	if err != nil {
		return nil, err
	}

	if err := u.userRepo.Create(ctx, user); err != nil {
		u.logger.Error("Failed to provision user", map[string]any{
			"userId": user.ID,
			"error":  err.Error(),
		})
		return nil, err
	}

	u.logger.Info("User provisioned", map[string]any{
		"userId":               user.ID,
		"availableGenerations": user.AvailableGenerations,
	})

	return user, nil
}

// GetUser returns the stored user
func (u *UserUseCase) GetUser(ctx context.Context, id string) (*entity.User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errs.ErrInvalidUserID
	}
	return u.userRepo.GetByID(ctx, id)
}

var _ usecase.UserUseCase = (*UserUseCase)(nil)
