package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/nerbixa/payment-reconciler/internal/domain/entity"
	errs "github.com/nerbixa/payment-reconciler/internal/domain/error"
	coreport "github.com/nerbixa/payment-reconciler/internal/domain/port/core"
	"github.com/nerbixa/payment-reconciler/internal/infrastructure/adapter/model"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository implements persistence.UserRepository using GORM
type UserRepository struct {
	db              *gorm.DB
	timeProvider    coreport.TimeProvider
	logger          coreport.Logger
	errorClassifier *ErrorClassifier
}

// NewUserRepository creates a new UserRepository instance
func NewUserRepository(db *gorm.DB, timeProvider coreport.TimeProvider, logger coreport.Logger) *UserRepository {
	return &UserRepository{
		db:              db,
		timeProvider:    timeProvider,
		logger:          logger,
		errorClassifier: NewErrorClassifier(),
	}
}

func userModelToEntity(m *model.User) *entity.User {
	return &entity.User{
		ID:                   m.ID,
		Email:                m.Email,
		AvailableGenerations: m.AvailableGenerations,
		UsedGenerations:      m.UsedGenerations,
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
	}
}

func userEntityToModel(u *entity.User) *model.User {
	return &model.User{
		ID:                   u.ID,
		Email:                u.Email,
		AvailableGenerations: u.AvailableGenerations,
		UsedGenerations:      u.UsedGenerations,
		CreatedAt:            u.CreatedAt,
		UpdatedAt:            u.UpdatedAt,
	}
}

// handleDatabaseError standardizes database error handling
func (r *UserRepository) handleDatabaseError(operation string, err error, userID string) error {
	mapped := r.errorClassifier.toDomainError(err, errs.ErrUserNotFound, errs.ErrDuplicateUser)
	if errs.IsUserNotFoundError(mapped) {
		r.logger.Debug("User not found", map[string]any{"user_id": userID, "operation": operation})
		return mapped
	}

	r.logger.Error(fmt.Sprintf("Database error when %s", operation), map[string]any{
		"user_id": userID,
		"error":   err.Error(),
	})
	return mapped
}

// GetByID retrieves a user by external identity id
func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	var userModel model.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&userModel).Error; err != nil {
		return nil, r.handleDatabaseError("getting user", err, id)
	}
	return userModelToEntity(&userModel), nil
}

// GetByIDForUpdate retrieves a user with SELECT ... FOR UPDATE
func (r *UserRepository) GetByIDForUpdate(ctx context.Context, id string) (*entity.User, error) {
	var userModel model.User
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&userModel).Error
	if err != nil {
		return nil, r.handleDatabaseError("locking user", err, id)
	}

	r.logger.Debug("User row locked", map[string]any{
		"user_id":               id,
		"available_generations": userModel.AvailableGenerations,
		"used_generations":      userModel.UsedGenerations,
	})
	return userModelToEntity(&userModel), nil
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	userModel := userEntityToModel(user)
	if userModel.CreatedAt.IsZero() {
		userModel.CreatedAt = r.timeProvider.Now()
		userModel.UpdatedAt = userModel.CreatedAt
	}
	if err := validateUserModel(userModel); err != nil {
		return err
	}

	if err := r.db.WithContext(ctx).Create(userModel).Error; err != nil {
		return r.handleDatabaseError("creating user", err, user.ID)
	}

	r.logger.Info("User created successfully", map[string]any{
		"user_id":               user.ID,
		"available_generations": user.AvailableGenerations,
	})
	return nil
}

// UpdateBalance persists the generation counters
func (r *UserRepository) UpdateBalance(ctx context.Context, user *entity.User) error {
	if user.AvailableGenerations < 0 || user.UsedGenerations < 0 {
		return errs.ErrNegativeBalance
	}

	updatedAt := user.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = r.timeProvider.Now()
	}

	result := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", user.ID).
		Updates(map[string]any{
			"available_generations": user.AvailableGenerations,
			"used_generations":      user.UsedGenerations,
			"updated_at":            updatedAt,
		})

	if result.Error != nil {
		return r.handleDatabaseError("updating balance", result.Error, user.ID)
	}
	if result.RowsAffected == 0 {
		r.logger.Warn("User not found during balance update", map[string]any{"user_id": user.ID})
		return errs.ErrUserNotFound
	}

	r.logger.Debug("User balance updated", map[string]any{
		"user_id":               user.ID,
		"available_generations": user.AvailableGenerations,
		"used_generations":      user.UsedGenerations,
	})
	return nil
}

// validateUserModel maps struct validation failures onto domain errors
func validateUserModel(u *model.User) error {
	err := u.Validate()
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		switch verrs[0].Field() {
		case "Email":
			return fmt.Errorf("%w: %s", errs.ErrInvalidEmail, verrs[0].Tag())
		case "ID":
			return fmt.Errorf("%w: %s", errs.ErrInvalidUserID, verrs[0].Tag())
		case "AvailableGenerations", "UsedGenerations":
			return errs.ErrNegativeBalance
		}
	}
	return fmt.Errorf("%w: %v", errs.ErrConstraintViolation, err)
}
