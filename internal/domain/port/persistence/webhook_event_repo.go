package persistence

import (
	"context"
	"time"

	"github.com/nerbixa/payment-reconciler/internal/domain/entity"
)

// WebhookEventRepository is the idempotency ledger
type WebhookEventRepository interface {
	// InsertIfNew inserts an unprocessed event row and reports whether this call created it.
	// Concurrent callers race on the unique event id; exactly one sees true.
	//
	// Possible errors:
	// - ErrDatabaseConnection: If database connection fails
	InsertIfNew(ctx context.Context, event *entity.WebhookEvent) (bool, error)

	// MarkProcessed flags the event as processed. Call it only inside the
	// unit of work that applied the event's side effects.
	//
	// Possible errors:
	// - ErrDatabaseConnection: If database connection fails
	MarkProcessed(ctx context.Context, eventID string, at time.Time) error
}
