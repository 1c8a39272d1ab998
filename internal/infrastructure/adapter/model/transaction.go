package model

import (
	"time"
)

// Transaction represents one row of the payment audit trail.
// WebhookEventID carries the provider transaction id and is the uniqueness backstop.
type Transaction struct {
	ID                string     `gorm:"primaryKey;size:36"`
	TrackingID        string     `gorm:"not null;size:255;index"`
	UserID            *string    `gorm:"size:255;index"`
	Status            string     `gorm:"not null;size:20;index"`
	Amount            *int64     // Minor currency units
	Currency          string     `gorm:"not null;size:3;default:USD"`
	Description       string     `gorm:"type:text"`
	Type              string     `gorm:"not null;size:20;default:payment"`
	PaymentMethodType string     `gorm:"size:50"`
	Message           string     `gorm:"type:text"`
	Reason            *string    `gorm:"type:text"`
	PaidAt            *time.Time
	ReceiptURL        *string    `gorm:"type:text"`
	WebhookEventID    string     `gorm:"uniqueIndex;not null;size:255"`
	CreatedAt         time.Time  `gorm:"not null"`
	UpdatedAt         time.Time  `gorm:"not null"`
}

// TableName specifies the table name for Transaction
func (Transaction) TableName() string {
	return "transactions"
}
