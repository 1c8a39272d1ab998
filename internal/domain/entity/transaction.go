package entity

import (
	"strings"
	"time"
)

// TransactionStatus is the lifecycle state recorded for a provider transaction
type TransactionStatus string

// TransactionStatus constants
const (
	StatusSuccessful TransactionStatus = "successful"
	StatusFailed     TransactionStatus = "failed"
	StatusPending    TransactionStatus = "pending"
	StatusCanceled   TransactionStatus = "canceled"
	StatusRefunded   TransactionStatus = "refunded"
)

// TransactionType classifies the money movement
type TransactionType string

// TransactionType constants
const (
	TypePayment TransactionType = "payment"
	TypeRefund  TransactionType = "refund"
	TypeCredit  TransactionType = "credit"
)

// Reasons recorded on rows whose balance effect did not happen in-band
const (
	ReasonUserMissing       = "user_missing"
	ReasonReconciled        = "reconciled"
	ReasonRefundNotCredited = "refund_of_uncredited_payment"
)

// ParseStatus maps a provider status onto a TransactionStatus.
// Gateways report success under several spellings.
func ParseStatus(raw string) (TransactionStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "success", "successful", "completed":
		return StatusSuccessful, true
	case "failed":
		return StatusFailed, true
	case "pending":
		return StatusPending, true
	case "canceled", "cancelled":
		return StatusCanceled, true
	case "refunded":
		return StatusRefunded, true
	default:
		return "", false
	}
}

// Transaction is one row of the append-only payment audit trail.
// WebhookEventID holds the provider transaction id and is unique, so a provider
// transaction maps to exactly one row that is updated in place across its lifecycle.
type Transaction struct {
	ID                string
	TrackingID        string
	UserID            *string
	Status            TransactionStatus
	Amount            *int64 // Minor currency units
	Currency          string
	Description       string
	Type              TransactionType
	PaymentMethodType string
	Message           string
	Reason            *string
	PaidAt            *time.Time
	ReceiptURL        *string
	WebhookEventID    string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// IsSuccessful reports whether the row already carries a successful status
func (t *Transaction) IsSuccessful() bool {
	return t.Status == StatusSuccessful
}

// IsSettled reports whether the row reached a state that later
// failed, pending or canceled notifications must not overwrite
func (t *Transaction) IsSettled() bool {
	return t.Status == StatusSuccessful || t.Status == StatusRefunded
}

// AwaitingReconciliation reports whether a successful payment was recorded without crediting a user
func (t *Transaction) AwaitingReconciliation() bool {
	return t.IsSuccessful() && t.Reason != nil && *t.Reason == ReasonUserMissing
}

// IsRefunded reports whether the refund for this row was already applied
func (t *Transaction) IsRefunded() bool {
	return t.Status == StatusRefunded
}

// MergeFrom copies non-empty fields from update, keeping existing values otherwise.
// A successful update drops any reason left by an earlier failure.
func (t *Transaction) MergeFrom(update *Transaction) {
	if update.Status != "" {
		t.Status = update.Status
	}
	if update.Amount != nil {
		t.Amount = update.Amount
	}
	if update.Currency != "" {
		t.Currency = update.Currency
	}
	if update.Description != "" {
		t.Description = update.Description
	}
	if update.Type != "" {
		t.Type = update.Type
	}
	if update.PaymentMethodType != "" {
		t.PaymentMethodType = update.PaymentMethodType
	}
	if update.Message != "" {
		t.Message = update.Message
	}
	switch {
	case update.Reason != nil:
		t.Reason = update.Reason
	case update.Status == StatusSuccessful:
		t.Reason = nil
	}
	if update.PaidAt != nil {
		t.PaidAt = update.PaidAt
	}
	if update.ReceiptURL != nil {
		t.ReceiptURL = update.ReceiptURL
	}
	if t.UserID == nil && update.UserID != nil {
		t.UserID = update.UserID
	}
	if update.UpdatedAt.After(t.UpdatedAt) {
		t.UpdatedAt = update.UpdatedAt
	}
}
