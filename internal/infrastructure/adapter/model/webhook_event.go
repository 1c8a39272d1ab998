package model

import (
	"time"

	"gorm.io/datatypes"
)

// WebhookEvent is the idempotency ledger row. Payload keeps the raw delivery for audits.
type WebhookEvent struct {
	ID          string `gorm:"primaryKey;size:36"`
	EventID     string `gorm:"uniqueIndex;not null;size:512"`
	EventType   string `gorm:"not null;size:50"`
	Provider    string `gorm:"size:50;index"`
	Processed   bool   `gorm:"not null;default:false"`
	ProcessedAt *time.Time
	Payload     datatypes.JSON
	CreatedAt   time.Time `gorm:"not null"`
}

// TableName specifies the table name for WebhookEvent
func (WebhookEvent) TableName() string {
	return "webhook_events"
}
