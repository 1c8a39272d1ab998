package persistence

import (
	"context"

	"github.com/nerbixa/payment-reconciler/internal/domain/entity"
)

// TransactionRepository defines methods to interact with the payment audit trail
type TransactionRepository interface {
	// GetByWebhookEventIDForUpdate loads the row for a provider transaction id and locks it
	//
	// Possible errors:
	// - ErrTransactionNotFound: If no row exists yet
	// - ErrTransient: On lock timeout or deadlock
	// - ErrDatabaseConnection: If database connection fails
	GetByWebhookEventIDForUpdate(ctx context.Context, webhookEventID string) (*entity.Transaction, error)

	// InsertIfNew inserts the row unless one with the same webhook event id exists
	// and reports whether this call created it. A concurrent insert for the same id
	// blocks until the other unit of work ends; the loser sees false and must lock
	// the winner's row with GetByWebhookEventIDForUpdate.
	//
	// Possible errors:
	// - ErrDatabaseConnection: If database connection fails
	InsertIfNew(ctx context.Context, transaction *entity.Transaction) (bool, error)

	// Update overwrites an existing row identified by its internal id
	//
	// Possible errors:
	// - ErrTransactionNotFound: If the row doesn't exist
	// - ErrDatabaseConnection: If database connection fails
	Update(ctx context.Context, transaction *entity.Transaction) error

	// FindSuccessfulForUser finds a successful transaction owned by userID with the given tracking id
	//
	// Possible errors:
	// - ErrTransactionNotFound: If no such row exists
	// - ErrDatabaseConnection: If database connection fails
	FindSuccessfulForUser(ctx context.Context, userID, trackingID string) (*entity.Transaction, error)

	// ListAwaitingReconciliation returns successful rows recorded for users that did not exist yet
	ListAwaitingReconciliation(ctx context.Context, limit int) ([]*entity.Transaction, error)
}
