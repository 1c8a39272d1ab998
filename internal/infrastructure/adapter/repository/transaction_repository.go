package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/nerbixa/payment-reconciler/internal/domain/entity"
	errs "github.com/nerbixa/payment-reconciler/internal/domain/error"
	coreport "github.com/nerbixa/payment-reconciler/internal/domain/port/core"
	"github.com/nerbixa/payment-reconciler/internal/infrastructure/adapter/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TransactionRepository implements persistence.TransactionRepository using GORM
type TransactionRepository struct {
	db              *gorm.DB
	logger          coreport.Logger
	errorClassifier *ErrorClassifier
}

// NewTransactionRepository creates a new TransactionRepository
func NewTransactionRepository(db *gorm.DB, logger coreport.Logger) *TransactionRepository {
	return &TransactionRepository{
		db:              db,
		logger:          logger,
		errorClassifier: NewErrorClassifier(),
	}
}

func transactionModelToEntity(m *model.Transaction) *entity.Transaction {
	return &entity.Transaction{
		ID:                m.ID,
		TrackingID:        m.TrackingID,
		UserID:            m.UserID,
		Status:            entity.TransactionStatus(m.Status),
		Amount:            m.Amount,
		Currency:          m.Currency,
		Description:       m.Description,
		Type:              entity.TransactionType(m.Type),
		PaymentMethodType: m.PaymentMethodType,
		Message:           m.Message,
		Reason:            m.Reason,
		PaidAt:            m.PaidAt,
		ReceiptURL:        m.ReceiptURL,
		WebhookEventID:    m.WebhookEventID,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

func transactionEntityToModel(t *entity.Transaction) *model.Transaction {
	return &model.Transaction{
		ID:                t.ID,
		TrackingID:        t.TrackingID,
		UserID:            t.UserID,
		Status:            string(t.Status),
		Amount:            t.Amount,
		Currency:          t.Currency,
		Description:       t.Description,
		Type:              string(t.Type),
		PaymentMethodType: t.PaymentMethodType,
		Message:           t.Message,
		Reason:            t.Reason,
		PaidAt:            t.PaidAt,
		ReceiptURL:        t.ReceiptURL,
		WebhookEventID:    t.WebhookEventID,
		CreatedAt:         t.CreatedAt,
		UpdatedAt:         t.UpdatedAt,
	}
}

func (r *TransactionRepository) handleDatabaseError(operation string, err error, webhookEventID string) error {
	mapped := r.errorClassifier.toDomainError(err, errs.ErrTransactionNotFound, nil)
	if errs.IsNotFoundError(mapped) {
		return mapped
	}

	r.logger.Error(fmt.Sprintf("Database error when %s", operation), map[string]any{
		"transaction_id": webhookEventID,
		"error":          err.Error(),
	})
	return mapped
}

// GetByWebhookEventIDForUpdate loads and locks the row for a provider transaction
func (r *TransactionRepository) GetByWebhookEventIDForUpdate(ctx context.Context, webhookEventID string) (*entity.Transaction, error) {
	var txModel model.Transaction
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("webhook_event_id = ?", webhookEventID).
		First(&txModel).Error
	if err != nil {
		return nil, r.handleDatabaseError("locking transaction", err, webhookEventID)
	}
	return transactionModelToEntity(&txModel), nil
}

// InsertIfNew runs INSERT ... ON CONFLICT (webhook_event_id) DO NOTHING,
// assigning an id when the caller left it empty
func (r *TransactionRepository) InsertIfNew(ctx context.Context, transaction *entity.Transaction) (bool, error) {
	if transaction.ID == "" {
		transaction.ID = uuid.NewString()
	}

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "webhook_event_id"}},
			DoNothing: true,
		}).
		Create(transactionEntityToModel(transaction))
	if result.Error != nil {
		return false, r.handleDatabaseError("creating transaction", result.Error, transaction.WebhookEventID)
	}
	if result.RowsAffected == 0 {
		r.logger.Debug("Transaction row already exists", map[string]any{
			"transaction_id": transaction.WebhookEventID,
		})
		return false, nil
	}

	r.logger.Debug("Transaction created", map[string]any{
		"id":             transaction.ID,
		"transaction_id": transaction.WebhookEventID,
		"status":         transaction.Status,
	})
	return true, nil
}

// Update overwrites the mutable columns of an existing row
func (r *TransactionRepository) Update(ctx context.Context, transaction *entity.Transaction) error {
	result := r.db.WithContext(ctx).Model(&model.Transaction{}).
		Where("id = ?", transaction.ID).
		Updates(map[string]any{
			"user_id":             transaction.UserID,
			"status":              string(transaction.Status),
			"amount":              transaction.Amount,
			"currency":            transaction.Currency,
			"description":         transaction.Description,
			"type":                string(transaction.Type),
			"payment_method_type": transaction.PaymentMethodType,
			"message":             transaction.Message,
			"reason":              transaction.Reason,
			"paid_at":             transaction.PaidAt,
			"receipt_url":         transaction.ReceiptURL,
			"updated_at":          transaction.UpdatedAt,
		})

	if result.Error != nil {
		return r.handleDatabaseError("updating transaction", result.Error, transaction.WebhookEventID)
	}
	if result.RowsAffected == 0 {
		return errs.ErrTransactionNotFound
	}
	return nil
}

// FindSuccessfulForUser looks up a landed payment for the verify-balance poll
func (r *TransactionRepository) FindSuccessfulForUser(ctx context.Context, userID, trackingID string) (*entity.Transaction, error) {
	var txModel model.Transaction
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND tracking_id = ? AND status = ?", userID, trackingID, string(entity.StatusSuccessful)).
		Order("created_at DESC").
		First(&txModel).Error
	if err != nil {
		return nil, r.handleDatabaseError("finding successful transaction", err, trackingID)
	}
	return transactionModelToEntity(&txModel), nil
}

// ListAwaitingReconciliation returns successful rows recorded for unknown users, oldest first
func (r *TransactionRepository) ListAwaitingReconciliation(ctx context.Context, limit int) ([]*entity.Transaction, error) {
	var txModels []model.Transaction
	err := r.db.WithContext(ctx).
		Where("status = ? AND reason = ?", string(entity.StatusSuccessful), entity.ReasonUserMissing).
		Order("created_at ASC").
		Limit(limit).
		Find(&txModels).Error
	if err != nil {
		return nil, r.handleDatabaseError("listing orphaned transactions", err, "")
	}

	transactions := make([]*entity.Transaction, 0, len(txModels))
	for i := range txModels {
		transactions = append(transactions, transactionModelToEntity(&txModels[i]))
	}
	return transactions, nil
}
