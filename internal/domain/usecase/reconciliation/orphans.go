package reconciliation

import (
	"context"
	"errors"
	"fmt"

	"github.com/nerbixa/payment-reconciler/internal/domain/entity"
	errs "github.com/nerbixa/payment-reconciler/internal/domain/error"
	coreport "github.com/nerbixa/payment-reconciler/internal/domain/port/core"
	"github.com/nerbixa/payment-reconciler/internal/domain/port/persistence"
	"github.com/nerbixa/payment-reconciler/internal/domain/port/usecase"
)

// DefaultListLimit caps ListOrphans when the caller passes a non-positive limit
const DefaultListLimit = 100

// OrphanUseCase credits payments recorded while their user did not exist yet
type OrphanUseCase struct {
	uow          persistence.UnitOfWork
	timeProvider coreport.TimeProvider
	logger       coreport.Logger
}

// NewOrphanUseCase creates a new OrphanUseCase
func NewOrphanUseCase(
	uow persistence.UnitOfWork,
	timeProvider coreport.TimeProvider,
	logger coreport.Logger,
) *OrphanUseCase {
	return &OrphanUseCase{
		uow:          uow,
		timeProvider: timeProvider,
		logger:       logger,
	}
}

// ListOrphans implements usecase.ReconciliationUseCase
func (o *OrphanUseCase) ListOrphans(ctx context.Context, limit int) ([]*entity.Transaction, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	return o.uow.GetTransactionRepository(ctx).ListAwaitingReconciliation(ctx, limit)
}

// CreditOrphan implements usecase.ReconciliationUseCase.
// The transaction row is locked first, so two operators crediting the same
// payment serialize and the second sees it already reconciled.
func (o *OrphanUseCase) CreditOrphan(ctx context.Context, transactionID string) (*usecase.ReconciliationResult, error) {
	var result *usecase.ReconciliationResult

	err := o.uow.WithinTransaction(ctx, func(txCtx context.Context) error {
		txRepo := o.uow.GetTransactionRepository(txCtx)
		txn, err := txRepo.GetByWebhookEventIDForUpdate(txCtx, transactionID)
		if err != nil {
			return err
		}
		if !txn.AwaitingReconciliation() || txn.UserID == nil {
			return fmt.Errorf("%w: %s", errs.ErrNotReconcilable, transactionID)
		}

		tokens, ok := entity.ExtractTokens(txn.Description)
		if !ok {
			return fmt.Errorf("%w: %q", errs.ErrInvalidDescription, txn.Description)
		}

		users := o.uow.GetUserRepository(txCtx)
		user, err := users.GetByIDForUpdate(txCtx, *txn.UserID)
		if err != nil {
			return err
		}

		now := o.timeProvider.Now()
		newBalance, err := user.ApplyTopUp(tokens, now)
		if err != nil {
			return err
		}
		if err := users.UpdateBalance(txCtx, user); err != nil {
			return err
		}

		reason := entity.ReasonReconciled
		txn.Reason = &reason
		txn.UpdatedAt = now
		if err := txRepo.Update(txCtx, txn); err != nil {
			return err
		}

		result = &usecase.ReconciliationResult{
			TransactionID: transactionID,
			UserID:        user.ID,
			Tokens:        tokens,
			NewBalance:    newBalance,
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, errs.ErrNotReconcilable) {
			o.logger.Error("Failed to credit orphaned payment", map[string]any{
				"transactionId": transactionID,
				"error":         err.Error(),
			})
		}
		return nil, err
	}

	o.logger.Info("Orphaned payment credited", map[string]any{
		"transactionId": result.TransactionID,
		"userId":        result.UserID,
		"tokens":        result.Tokens,
		"newBalance":    result.NewBalance,
	})

	return result, nil
}

var _ usecase.ReconciliationUseCase = (*OrphanUseCase)(nil)
