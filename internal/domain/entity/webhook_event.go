package entity

import (
	"fmt"
	"time"
)

// WebhookEvent is one row of the idempotency ledger, one per logical event
type WebhookEvent struct {
	ID          string
	EventID     string
	EventType   string
	Provider    string
	Processed   bool
	ProcessedAt *time.Time
	Payload     []byte
	CreatedAt   time.Time
}

// EventKey builds the composite idempotency key for a lifecycle transition.
// The same provider transaction moving pending -> successful yields two keys.
func EventKey(transactionID, status, paidAt string) string {
	if status == "" {
		status = "unknown"
	}
	return fmt.Sprintf("%s:%s:%s", transactionID, status, paidAt)
}
