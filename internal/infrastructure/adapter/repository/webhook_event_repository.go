package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nerbixa/payment-reconciler/internal/domain/entity"
	coreport "github.com/nerbixa/payment-reconciler/internal/domain/port/core"
	"github.com/nerbixa/payment-reconciler/internal/infrastructure/adapter/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WebhookEventRepository implements persistence.WebhookEventRepository using GORM
type WebhookEventRepository struct {
	db              *gorm.DB
	logger          coreport.Logger
	errorClassifier *ErrorClassifier
}

// NewWebhookEventRepository creates a new WebhookEventRepository
func NewWebhookEventRepository(db *gorm.DB, logger coreport.Logger) *WebhookEventRepository {
	return &WebhookEventRepository{
		db:              db,
		logger:          logger,
		errorClassifier: NewErrorClassifier(),
	}
}

func webhookEventEntityToModel(e *entity.WebhookEvent) *model.WebhookEvent {
	m := &model.WebhookEvent{
		ID:          e.ID,
		EventID:     e.EventID,
		EventType:   e.EventType,
		Provider:    e.Provider,
		Processed:   e.Processed,
		ProcessedAt: e.ProcessedAt,
		CreatedAt:   e.CreatedAt,
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if len(e.Payload) > 0 {
		m.Payload = datatypes.JSON(e.Payload)
	}
	return m
}

// InsertIfNew runs INSERT ... ON CONFLICT (event_id) DO NOTHING.
// The unique index decides the race; RowsAffected tells this caller whether it won.
func (r *WebhookEventRepository) InsertIfNew(ctx context.Context, event *entity.WebhookEvent) (bool, error) {
	eventModel := webhookEventEntityToModel(event)
	eventModel.Processed = false
	eventModel.ProcessedAt = nil

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event_id"}},
			DoNothing: true,
		}).
		Create(eventModel)
	if result.Error != nil {
		r.logger.Error("Database error when inserting webhook event", map[string]any{
			"event_id": event.EventID,
			"error":    result.Error.Error(),
		})
		return false, r.errorClassifier.toDomainError(result.Error, nil, nil)
	}

	event.ID = eventModel.ID
	return result.RowsAffected > 0, nil
}

// MarkProcessed sets processed=true and processed_at
func (r *WebhookEventRepository) MarkProcessed(ctx context.Context, eventID string, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&model.WebhookEvent{}).
		Where("event_id = ?", eventID).
		Updates(map[string]any{
			"processed":    true,
			"processed_at": at,
		})
	if result.Error != nil {
		return r.errorClassifier.toDomainError(result.Error, nil, nil)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("webhook event %s vanished before it was marked processed", eventID)
	}
	return nil
}
