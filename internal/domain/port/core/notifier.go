package core

import (
	"context"

	"github.com/nerbixa/payment-reconciler/internal/domain/entity"
)

// ReceiptNotifier delivers a receipt for a credited payment.
// Delivery is best-effort: callers log a returned error and never roll back the payment.
type ReceiptNotifier interface {
	SendReceipt(ctx context.Context, receipt entity.Receipt) error
}
