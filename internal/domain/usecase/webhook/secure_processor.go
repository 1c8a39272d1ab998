package webhook

import (
	"fmt"

	"github.com/nerbixa/payment-reconciler/internal/domain/entity"
	errs "github.com/nerbixa/payment-reconciler/internal/domain/error"
)

// SecureProcessor adapts the Secure-processor gateway, which always wraps
// the payment in a "transaction" object keyed by uid and signs that object.
type SecureProcessor struct{}

// NewSecureProcessor creates the Secure-processor provider adapter
func NewSecureProcessor() *SecureProcessor {
	return &SecureProcessor{}
}

// Name implements Provider
func (SecureProcessor) Name() string { return "secure_processor" }

// DisplayName implements Provider
func (SecureProcessor) DisplayName() string { return "Secure-processor" }

// Parse implements Provider
func (s SecureProcessor) Parse(body map[string]any, signatureHeader string) (*Envelope, error) {
	transaction, ok := objectField(body, "transaction")
	if !ok {
		return nil, fmt.Errorf("%w: missing transaction", errs.ErrInvalidPayload)
	}

	return &Envelope{
		Notification: entity.PaymentNotification{
			Provider:          s.Name(),
			TransactionID:     stringField(transaction, "uid"),
			TrackingID:        stringField(transaction, "tracking_id"),
			Status:            stringField(transaction, "status"),
			Amount:            entity.NormalizeAmount(transaction["amount"]),
			Currency:          stringField(transaction, "currency"),
			Description:       stringField(transaction, "description"),
			PaymentMethodType: stringField(transaction, "payment_method_type"),
			Message:           stringField(transaction, "message"),
			PaidAt:            stringField(transaction, "paid_at"),
			CustomerEmail:     customerEmail(transaction),
			Test:              isTestFlag(transaction),
		},
		SignatureParams: transaction,
		Signature:       firstNonEmpty(signatureHeader, stringField(body, signatureField), stringField(transaction, signatureField)),
	}, nil
}
