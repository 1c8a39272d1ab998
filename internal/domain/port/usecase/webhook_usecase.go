package usecase

import (
	"context"
)

// Outcome names what a webhook delivery did to the ledgers
type Outcome string

// Outcome constants
const (
	OutcomeEventDuplicate    Outcome = "event_duplicate"
	OutcomeAlreadySuccessful Outcome = "already_successful"
	OutcomeUserMissing       Outcome = "user_missing"
	OutcomeCredited          Outcome = "credited"
	OutcomeRecorded          Outcome = "recorded"
	OutcomeRefunded          Outcome = "refunded"
	OutcomeAlreadyRefunded   Outcome = "already_refunded"
	OutcomeRefundNotDebited  Outcome = "refund_not_debited"
	OutcomeRefundSkipped     Outcome = "refund_skipped"
	OutcomeIgnored           Outcome = "ignored"
)

// WebhookRequest is one raw delivery as received over HTTP
type WebhookRequest struct {
	RequestID       string
	Body            []byte
	SignatureHeader string
}

// WebhookResult describes a handled delivery. Every result maps to HTTP 200.
type WebhookResult struct {
	Outcome       Outcome
	EventID       string
	TransactionID string
	UserID        string
	Tokens        int
	NewBalance    int
}

// WebhookUseCase processes deliveries for one payment provider
type WebhookUseCase interface {
	// ProviderName returns the display name used in logs and the liveness probe
	ProviderName() string

	// Handle verifies and applies a delivery. Errors classify via the domain error package.
	Handle(ctx context.Context, req WebhookRequest) (*WebhookResult, error)
}
