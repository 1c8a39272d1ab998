package notifier

import (
	"context"

	"github.com/nerbixa/payment-reconciler/internal/domain/entity"
	coreport "github.com/nerbixa/payment-reconciler/internal/domain/port/core"
)

// LogNotifier records receipts in the structured log. It is always on, so a
// receipt leaves a trace even when every other channel is disabled.
type LogNotifier struct {
	logger coreport.Logger
}

// NewLogNotifier creates a LogNotifier
func NewLogNotifier(logger coreport.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// SendReceipt logs the receipt
func (n *LogNotifier) SendReceipt(_ context.Context, receipt entity.Receipt) error {
	n.logger.Info("receipt.issued", map[string]any{
		"transaction_id": receipt.TransactionID,
		"user_id":        receipt.UserID,
		"tokens":         receipt.Tokens,
		"amount":         entity.FormatMinorUnits(receipt.Amount, receipt.Currency),
		"new_balance":    receipt.NewBalance,
		"email_present":  receipt.Email != "",
	})
	return nil
}

var _ coreport.ReceiptNotifier = (*LogNotifier)(nil)
