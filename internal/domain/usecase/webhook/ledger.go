package webhook

import (
	"context"
	"errors"

	"github.com/nerbixa/payment-reconciler/internal/domain/entity"
	errs "github.com/nerbixa/payment-reconciler/internal/domain/error"
	coreport "github.com/nerbixa/payment-reconciler/internal/domain/port/core"
	"github.com/nerbixa/payment-reconciler/internal/domain/port/persistence"
	"github.com/nerbixa/payment-reconciler/internal/domain/port/usecase"
)

// Ledger stages reported in LedgerError
const (
	stageInsertEvent     = "insert_event"
	stageLockTransaction = "lock_transaction"
	stageWriteTxn        = "write_transaction"
	stageLockUser        = "lock_user"
	stageUpdateBalance   = "update_balance"
	stageMarkProcessed   = "mark_processed"
)

// LedgerEntry is one logical event to apply against the balance and audit ledgers
type LedgerEntry struct {
	Event       entity.WebhookEvent
	Transaction entity.Transaction
	UserID      string
	Tokens      int
}

// LedgerResult reports the committed outcome of a LedgerEntry
type LedgerResult struct {
	Outcome    usecase.Outcome
	NewBalance int
	User       *entity.User
}

// Ledger applies webhook events atomically. Every method runs in a single unit
// of work: the idempotency insert, the transaction row and the balance change
// commit together or not at all.
type Ledger struct {
	uow          persistence.UnitOfWork
	timeProvider coreport.TimeProvider
	logger       coreport.Logger
}

// NewLedger creates a new Ledger
func NewLedger(uow persistence.UnitOfWork, timeProvider coreport.TimeProvider, logger coreport.Logger) *Ledger {
	return &Ledger{
		uow:          uow,
		timeProvider: timeProvider,
		logger:       logger,
	}
}

// ApplyPaymentSuccess records a successful payment and credits the user exactly once
func (l *Ledger) ApplyPaymentSuccess(ctx context.Context, entry LedgerEntry) (*LedgerResult, error) {
	var result *LedgerResult

	err := l.uow.WithinTransaction(ctx, func(txCtx context.Context) error {
		result = &LedgerResult{}
		row := entry.Transaction
		row.Status = entity.StatusSuccessful

		inserted, err := l.insertEvent(txCtx, entry)
		if err != nil {
			return err
		}
		if !inserted {
			result.Outcome = usecase.OutcomeEventDuplicate
			return nil
		}

		txRepo := l.uow.GetTransactionRepository(txCtx)
		existing, err := l.claimTransaction(txCtx, txRepo, &row, entry)
		if err != nil {
			return err
		}

		if existing != nil && existing.IsSuccessful() {
			result.Outcome = usecase.OutcomeAlreadySuccessful
			return l.markProcessed(txCtx, entry)
		}

		stored, err := l.mergeTransaction(txCtx, txRepo, existing, &row, entry)
		if err != nil {
			return err
		}

		users := l.uow.GetUserRepository(txCtx)
		user, err := users.GetByIDForUpdate(txCtx, entry.UserID)
		if errs.IsUserNotFoundError(err) {
			reason := entity.ReasonUserMissing
			stored.Reason = &reason
			if err := txRepo.Update(txCtx, stored); err != nil {
				return l.ledgerError(entry, stageWriteTxn, err)
			}
			result.Outcome = usecase.OutcomeUserMissing
			return l.markProcessed(txCtx, entry)
		}
		if err != nil {
			return l.ledgerError(entry, stageLockUser, err)
		}

		newBalance, err := user.ApplyTopUp(entry.Tokens, l.timeProvider.Now())
		if err != nil {
			return l.ledgerError(entry, stageUpdateBalance, err)
		}
		if err := users.UpdateBalance(txCtx, user); err != nil {
			return l.ledgerError(entry, stageUpdateBalance, err)
		}

		result.Outcome = usecase.OutcomeCredited
		result.NewBalance = newBalance
		result.User = user
		return l.markProcessed(txCtx, entry)
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// RecordStatus records a failed, pending or canceled notification without touching balances.
// Rows that already settled as successful or refunded keep their state.
func (l *Ledger) RecordStatus(ctx context.Context, entry LedgerEntry) (*LedgerResult, error) {
	var result *LedgerResult

	err := l.uow.WithinTransaction(ctx, func(txCtx context.Context) error {
		result = &LedgerResult{}
		row := entry.Transaction

		inserted, err := l.insertEvent(txCtx, entry)
		if err != nil {
			return err
		}
		if !inserted {
			result.Outcome = usecase.OutcomeEventDuplicate
			return nil
		}

		txRepo := l.uow.GetTransactionRepository(txCtx)
		existing, err := l.claimTransaction(txCtx, txRepo, &row, entry)
		if err != nil {
			return err
		}

		if existing != nil && existing.IsSettled() {
			l.logger.Warn("Ignoring status regression for settled transaction", map[string]any{
				"transaction_id": existing.WebhookEventID,
				"current_status": existing.Status,
				"new_status":     row.Status,
				"event_id":       entry.Event.EventID,
			})
		} else if _, err := l.mergeTransaction(txCtx, txRepo, existing, &row, entry); err != nil {
			return err
		}

		result.Outcome = usecase.OutcomeRecorded
		return l.markProcessed(txCtx, entry)
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// ApplyRefund records a refund and removes the refunded tokens, floored at zero.
// A refund is debited at most once per provider transaction, and never for a
// payment that was recorded without crediting anyone.
func (l *Ledger) ApplyRefund(ctx context.Context, entry LedgerEntry) (*LedgerResult, error) {
	var result *LedgerResult

	err := l.uow.WithinTransaction(ctx, func(txCtx context.Context) error {
		result = &LedgerResult{}
		row := entry.Transaction
		row.Status = entity.StatusRefunded
		row.Type = entity.TypeRefund

		inserted, err := l.insertEvent(txCtx, entry)
		if err != nil {
			return err
		}
		if !inserted {
			result.Outcome = usecase.OutcomeEventDuplicate
			return nil
		}

		txRepo := l.uow.GetTransactionRepository(txCtx)
		existing, err := l.claimTransaction(txCtx, txRepo, &row, entry)
		if err != nil {
			return err
		}

		switch {
		case existing != nil && existing.IsRefunded():
			result.Outcome = usecase.OutcomeAlreadyRefunded
			return l.markProcessed(txCtx, entry)

		case existing != nil && existing.AwaitingReconciliation():
			reason := entity.ReasonRefundNotCredited
			row.Reason = &reason
			if _, err := l.mergeTransaction(txCtx, txRepo, existing, &row, entry); err != nil {
				return err
			}
			l.logger.Warn("Refund recorded for a payment that was never credited", map[string]any{
				"transaction_id": row.WebhookEventID,
				"user_id":        entry.UserID,
				"event_id":       entry.Event.EventID,
			})
			result.Outcome = usecase.OutcomeRefundNotDebited
			return l.markProcessed(txCtx, entry)
		}

		if _, err := l.mergeTransaction(txCtx, txRepo, existing, &row, entry); err != nil {
			return err
		}

		result.Outcome = usecase.OutcomeRefunded

		users := l.uow.GetUserRepository(txCtx)
		user, err := users.GetByIDForUpdate(txCtx, entry.UserID)
		switch {
		case errs.IsUserNotFoundError(err):
			l.logger.Warn("Refund recorded for unknown user", map[string]any{
				"transaction_id": row.WebhookEventID,
				"user_id":        entry.UserID,
			})
			return l.markProcessed(txCtx, entry)
		case err != nil:
			return l.ledgerError(entry, stageLockUser, err)
		}

		newBalance, err := user.ApplyRefund(entry.Tokens, l.timeProvider.Now())
		if err != nil {
			return l.ledgerError(entry, stageUpdateBalance, err)
		}
		if err := users.UpdateBalance(txCtx, user); err != nil {
			return l.ledgerError(entry, stageUpdateBalance, err)
		}

		result.NewBalance = newBalance
		result.User = user
		return l.markProcessed(txCtx, entry)
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// RecordUnknown acknowledges an unrecognized status so the gateway stops retrying
func (l *Ledger) RecordUnknown(ctx context.Context, entry LedgerEntry) (*LedgerResult, error) {
	var result *LedgerResult

	err := l.uow.WithinTransaction(ctx, func(txCtx context.Context) error {
		result = &LedgerResult{Outcome: usecase.OutcomeIgnored}

		inserted, err := l.insertEvent(txCtx, entry)
		if err != nil {
			return err
		}
		if !inserted {
			result.Outcome = usecase.OutcomeEventDuplicate
			return nil
		}
		return l.markProcessed(txCtx, entry)
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (l *Ledger) insertEvent(ctx context.Context, entry LedgerEntry) (bool, error) {
	event := entry.Event
	inserted, err := l.uow.GetWebhookEventRepository(ctx).InsertIfNew(ctx, &event)
	if err != nil {
		return false, l.ledgerError(entry, stageInsertEvent, err)
	}
	return inserted, nil
}

// claimTransaction returns the locked row for the entry's provider transaction.
// When none exists, row is inserted and nil is returned. If a concurrent delivery
// inserts first, the insert waits for it to commit and the winner's row is locked
// and returned instead, so callers always judge the latest committed state.
func (l *Ledger) claimTransaction(
	ctx context.Context,
	txRepo persistence.TransactionRepository,
	row *entity.Transaction,
	entry LedgerEntry,
) (*entity.Transaction, error) {
	existing, err := l.lockTransaction(ctx, txRepo, entry)
	if err != nil || existing != nil {
		return existing, err
	}

	created, err := txRepo.InsertIfNew(ctx, row)
	if err != nil {
		return nil, l.ledgerError(entry, stageWriteTxn, err)
	}
	if created {
		return nil, nil
	}

	existing, err = l.lockTransaction(ctx, txRepo, entry)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		// Conflicting row vanished between insert and lock; replay the attempt
		return nil, l.ledgerError(entry, stageLockTransaction, errs.ErrTransient)
	}
	l.logger.Debug("Transaction row created by a concurrent delivery", map[string]any{
		"transaction_id": existing.WebhookEventID,
		"event_id":       entry.Event.EventID,
	})
	return existing, nil
}

func (l *Ledger) lockTransaction(ctx context.Context, txRepo persistence.TransactionRepository, entry LedgerEntry) (*entity.Transaction, error) {
	existing, err := txRepo.GetByWebhookEventIDForUpdate(ctx, entry.Transaction.WebhookEventID)
	if errors.Is(err, errs.ErrTransactionNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, l.ledgerError(entry, stageLockTransaction, err)
	}
	return existing, nil
}

// mergeTransaction folds row into existing and saves it, returning the stored row.
// A nil existing means claimTransaction just inserted row.
func (l *Ledger) mergeTransaction(
	ctx context.Context,
	txRepo persistence.TransactionRepository,
	existing *entity.Transaction,
	row *entity.Transaction,
	entry LedgerEntry,
) (*entity.Transaction, error) {
	if existing == nil {
		return row, nil
	}

	existing.MergeFrom(row)
	if err := txRepo.Update(ctx, existing); err != nil {
		return nil, l.ledgerError(entry, stageWriteTxn, err)
	}
	return existing, nil
}

func (l *Ledger) markProcessed(ctx context.Context, entry LedgerEntry) error {
	err := l.uow.GetWebhookEventRepository(ctx).MarkProcessed(ctx, entry.Event.EventID, l.timeProvider.Now())
	if err != nil {
		return l.ledgerError(entry, stageMarkProcessed, err)
	}
	return nil
}

func (l *Ledger) ledgerError(entry LedgerEntry, stage string, err error) error {
	return errs.NewLedgerError(entry.Event.EventID, entry.Transaction.WebhookEventID, entry.UserID, stage, err)
}
