package balance

import (
	"context"
	"errors"
	"strings"

	"github.com/nerbixa/payment-reconciler/internal/domain/entity"
	errs "github.com/nerbixa/payment-reconciler/internal/domain/error"
	coreport "github.com/nerbixa/payment-reconciler/internal/domain/port/core"
	"github.com/nerbixa/payment-reconciler/internal/domain/port/persistence"
	"github.com/nerbixa/payment-reconciler/internal/domain/port/usecase"
)

// VerifyBalanceUseCase answers the client's post-redirect poll.
// Any ambiguity resolves to BalanceUpdated=false.
type VerifyBalanceUseCase struct {
	uow          persistence.UnitOfWork
	timeProvider coreport.TimeProvider
	logger       coreport.Logger
}

// NewVerifyBalanceUseCase creates a new VerifyBalanceUseCase
func NewVerifyBalanceUseCase(
	uow persistence.UnitOfWork,
	timeProvider coreport.TimeProvider,
	logger coreport.Logger,
) *VerifyBalanceUseCase {
	return &VerifyBalanceUseCase{
		uow:          uow,
		timeProvider: timeProvider,
		logger:       logger,
	}
}

// VerifyBalance implements usecase.BalanceUseCase
func (v *VerifyBalanceUseCase) VerifyBalance(ctx context.Context, query usecase.BalanceQuery) (*entity.BalanceVerification, error) {
	if strings.TrimSpace(query.UserID) == "" {
		return nil, errs.ErrUnauthorized
	}

	user, err := v.uow.GetUserRepository(ctx).GetByID(ctx, query.UserID)
	if err != nil {
		return nil, err
	}

	result := &entity.BalanceVerification{
		UserID:         user.ID,
		CurrentBalance: user.AvailableGenerations,
		CheckedAt:      v.timeProvider.Now(),
	}

	switch {
	case query.TransactionID != "":
		txn, err := v.uow.GetTransactionRepository(ctx).FindSuccessfulForUser(ctx, user.ID, query.TransactionID)
		if err != nil && !errors.Is(err, errs.ErrTransactionNotFound) {
			return nil, err
		}
		if txn != nil {
			result.BalanceUpdated = true
			result.Transaction = txn
		}

	case query.ExpectedMinBalance != "":
		if expected, ok := entity.ParseLeadingInt(query.ExpectedMinBalance); ok {
			result.ExpectedMinBalance = &expected
			result.BalanceUpdated = int64(user.AvailableGenerations) >= expected
		}
	}

	v.logger.Debug("Balance verification", map[string]any{
		"userId":         user.ID,
		"transactionId":  query.TransactionID,
		"currentBalance": result.CurrentBalance,
		"balanceUpdated": result.BalanceUpdated,
	})

	return result, nil
}

var _ usecase.BalanceUseCase = (*VerifyBalanceUseCase)(nil)
