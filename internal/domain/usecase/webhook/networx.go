package webhook

import (
	"github.com/nerbixa/payment-reconciler/internal/domain/entity"
)

// Networx adapts the Networx gateway. It accepts three payload shapes:
// flat top-level fields, a direct-API "transaction" wrapper and a hosted
// payment page "checkout" wrapper.
type Networx struct{}

// NewNetworx creates the Networx provider adapter
func NewNetworx() *Networx {
	return &Networx{}
}

// Name implements Provider
func (Networx) Name() string { return "networx" }

// DisplayName implements Provider
func (Networx) DisplayName() string { return "Networx" }

// Parse implements Provider
func (n Networx) Parse(body map[string]any, signatureHeader string) (*Envelope, error) {
	bodySignature := stringField(body, signatureField)

	if transaction, ok := objectField(body, "transaction"); ok {
		return &Envelope{
			Notification: entity.PaymentNotification{
				Provider:          n.Name(),
				TransactionID:     firstNonEmpty(stringField(transaction, "uid"), stringField(transaction, "id"), stringField(transaction, "transaction_id")),
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
			Signature:       firstNonEmpty(bodySignature, stringField(transaction, signatureField), signatureHeader),
		}, nil
	}

	if checkout, ok := objectField(body, "checkout"); ok {
		order, _ := objectField(checkout, "order")
		return &Envelope{
			Notification: entity.PaymentNotification{
				Provider:      n.Name(),
				TransactionID: stringField(checkout, "token"),
				TrackingID:    stringField(order, "tracking_id"),
				Status:        stringField(checkout, "status"),
				Amount:        entity.NormalizeAmount(order["amount"]),
				Currency:      stringField(order, "currency"),
				Description:   stringField(order, "description"),
				Message:       stringField(checkout, "message"),
				PaidAt:        stringField(checkout, "paid_at"),
				CustomerEmail: customerEmail(checkout),
				Test:          isTestFlag(checkout),
			},
			SignatureParams: checkout,
			Signature:       firstNonEmpty(bodySignature, stringField(checkout, signatureField), signatureHeader),
		}, nil
	}

	return &Envelope{
		Notification: entity.PaymentNotification{
			Provider:          n.Name(),
			TransactionID:     firstNonEmpty(stringField(body, "transaction_id"), stringField(body, "uid")),
			TrackingID:        stringField(body, "tracking_id"),
			Status:            stringField(body, "status"),
			Amount:            entity.NormalizeAmount(body["amount"]),
			Currency:          stringField(body, "currency"),
			Description:       stringField(body, "description"),
			PaymentMethodType: stringField(body, "payment_method_type"),
			Message:           firstNonEmpty(stringField(body, "message"), stringField(body, "error_message")),
			PaidAt:            stringField(body, "paid_at"),
			CustomerEmail:     firstNonEmpty(stringField(body, "customer_email"), customerEmail(body)),
			Test:              isTestFlag(body),
		},
		SignatureParams: body,
		Signature:       firstNonEmpty(bodySignature, signatureHeader),
	}, nil
}
