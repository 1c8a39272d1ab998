package dto

import (
	"time"

	"github.com/nerbixa/payment-reconciler/internal/domain/entity"
)

// TransactionSummary is the slice of a transaction the payment page needs
type TransactionSummary struct {
	ID     string     `json:"id"`
	Amount *int64     `json:"amount"`
	Status string     `json:"status"`
	PaidAt *time.Time `json:"paid_at"`
}

// VerifyBalanceResponse is returned by GET /api/payment/verify-balance
type VerifyBalanceResponse struct {
	Success            bool                `json:"success"`
	BalanceUpdated     bool                `json:"balanceUpdated"`
	CurrentBalance     int                 `json:"currentBalance"`
	ExpectedMinBalance *int64              `json:"expectedMinBalance,omitempty"`
	Transaction        *TransactionSummary `json:"transaction,omitempty"`
}

// NewVerifyBalanceResponse converts a domain verification into its wire shape
func NewVerifyBalanceResponse(v *entity.BalanceVerification) VerifyBalanceResponse {
	resp := VerifyBalanceResponse{
		Success:            true,
		BalanceUpdated:     v.BalanceUpdated,
		CurrentBalance:     v.CurrentBalance,
		ExpectedMinBalance: v.ExpectedMinBalance,
	}
	if v.Transaction != nil {
		resp.Transaction = &TransactionSummary{
			ID:     v.Transaction.ID,
			Amount: v.Transaction.Amount,
			Status: string(v.Transaction.Status),
			PaidAt: v.Transaction.PaidAt,
		}
	}
	return resp
}
