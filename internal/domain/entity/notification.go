package entity

import (
	"strings"
	"time"
)

const generatedTrackingPrefix = "gen_"

// PaymentNotification is the provider-neutral view of one webhook delivery
type PaymentNotification struct {
	Provider          string
	TransactionID     string // Provider transaction identifier
	TrackingID        string // As sent by the gateway
	Status            string // Raw provider status
	Amount            *int64 // Minor currency units
	Currency          string
	Description       string
	PaymentMethodType string
	Message           string
	PaidAt            string // Raw provider timestamp, part of the idempotency key
	CustomerEmail     string
	Test              bool
}

// EventID returns the idempotency ledger key for this delivery
func (n PaymentNotification) EventID() string {
	return EventKey(n.TransactionID, n.Status, n.PaidAt)
}

// UserID resolves the external identity id referenced by the tracking id.
// Hosted payment pages send gen_user_<id>_<millis>, which folds back to user_<id>.
func (n PaymentNotification) UserID() string {
	trackingID := strings.TrimSpace(n.TrackingID)
	if !strings.HasPrefix(trackingID, generatedTrackingPrefix+"user_") {
		return trackingID
	}

	parts := strings.Split(strings.TrimPrefix(trackingID, generatedTrackingPrefix), "_")
	if len(parts) < 3 {
		return strings.TrimPrefix(trackingID, generatedTrackingPrefix)
	}
	return strings.Join(parts[:len(parts)-1], "_")
}

// ParsePaidAt interprets the provider timestamp, returning nil when absent or unparsable
func (n PaymentNotification) ParsePaidAt() *time.Time {
	raw := strings.TrimSpace(n.PaidAt)
	if raw == "" {
		return nil
	}

	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

// ToTransaction maps the notification onto a Transaction row with the given status.
// Missing presentation fields fall back to the gateway defaults.
func (n PaymentNotification) ToTransaction(status TransactionStatus, now time.Time) *Transaction {
	tx := &Transaction{
		TrackingID:        n.TransactionID,
		Status:            status,
		Amount:            n.Amount,
		Currency:          n.Currency,
		Description:       n.Description,
		Type:              TypePayment,
		PaymentMethodType: n.PaymentMethodType,
		Message:           n.Message,
		PaidAt:            n.ParsePaidAt(),
		WebhookEventID:    n.TransactionID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if userID := n.UserID(); userID != "" {
		tx.UserID = &userID
	}
	if tx.Currency == "" {
		tx.Currency = "USD"
	}
	if tx.PaymentMethodType == "" {
		tx.PaymentMethodType = "card"
	}
	if tx.Message == "" {
		tx.Message = "Payment " + string(status)
	}
	if tx.Description == "" {
		tx.Description = "Payment " + string(status)
	}

	switch status {
	case StatusSuccessful:
		if tx.PaidAt == nil {
			paidAt := now
			tx.PaidAt = &paidAt
		}
	case StatusFailed:
		reason := tx.Message
		tx.Reason = &reason
	case StatusRefunded:
		tx.Type = TypeRefund
	}

	return tx
}

// Receipt is the payload handed to receipt notifiers after a credit commits
type Receipt struct {
	TransactionID string
	UserID        string
	Email         string
	Tokens        int
	Amount        *int64
	Currency      string
	Description   string
	PaidAt        time.Time
	NewBalance    int
}
