package usecase

import (
	"context"

	"github.com/nerbixa/payment-reconciler/internal/domain/entity"
)

// ReconciliationResult reports a manual credit of a recorded payment
type ReconciliationResult struct {
	TransactionID string
	UserID        string
	Tokens        int
	NewBalance    int
}

// ReconciliationUseCase recovers payments that arrived before their user existed
type ReconciliationUseCase interface {
	// ListOrphans returns successful payments recorded without a credit
	ListOrphans(ctx context.Context, limit int) ([]*entity.Transaction, error)

	// CreditOrphan credits one recorded payment exactly once
	CreditOrphan(ctx context.Context, transactionID string) (*ReconciliationResult, error)
}
