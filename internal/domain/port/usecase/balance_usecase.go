package usecase

import (
	"context"

	"github.com/nerbixa/payment-reconciler/internal/domain/entity"
)

// BalanceQuery carries the verify-balance poll parameters.
// Empty strings mean the parameter was not supplied.
type BalanceQuery struct {
	UserID             string
	TransactionID      string
	ExpectedMinBalance string
}

// BalanceUseCase answers client polls after a payment redirect
type BalanceUseCase interface {
	// VerifyBalance never mutates state
	VerifyBalance(ctx context.Context, query BalanceQuery) (*entity.BalanceVerification, error)
}
