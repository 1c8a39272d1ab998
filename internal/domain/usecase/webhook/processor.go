package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/nerbixa/payment-reconciler/internal/domain/entity"
	errs "github.com/nerbixa/payment-reconciler/internal/domain/error"
	coreport "github.com/nerbixa/payment-reconciler/internal/domain/port/core"
	"github.com/nerbixa/payment-reconciler/internal/domain/port/usecase"
)

// DefaultReceiptTimeout bounds a single best-effort receipt delivery
const DefaultReceiptTimeout = 10 * coreport.Second

// Processor is the provider-agnostic webhook pipeline:
// parse, verify signature, dispatch on status, apply to the ledger, notify.
type Processor struct {
	provider       Provider
	settings       ProviderSettings
	ledger         *Ledger
	notifier       coreport.ReceiptNotifier
	timeProvider   coreport.TimeProvider
	logger         coreport.Logger
	receiptTimeout coreport.Duration
	receipts       sync.WaitGroup
}

// NewProcessor creates a Processor for one provider
func NewProcessor(
	provider Provider,
	settings ProviderSettings,
	ledger *Ledger,
	notifier coreport.ReceiptNotifier,
	timeProvider coreport.TimeProvider,
	logger coreport.Logger,
) *Processor {
	return &Processor{
		provider:       provider,
		settings:       settings,
		ledger:         ledger,
		notifier:       notifier,
		timeProvider:   timeProvider,
		logger:         logger,
		receiptTimeout: DefaultReceiptTimeout,
	}
}

// WithReceiptTimeout overrides the receipt delivery timeout
func (p *Processor) WithReceiptTimeout(timeout coreport.Duration) *Processor {
	if timeout > 0 {
		p.receiptTimeout = timeout
	}
	return p
}

// ProviderName implements usecase.WebhookUseCase
func (p *Processor) ProviderName() string {
	return p.provider.DisplayName()
}

// Handle implements usecase.WebhookUseCase
func (p *Processor) Handle(ctx context.Context, req usecase.WebhookRequest) (*usecase.WebhookResult, error) {
	body, err := decodeBody(req.Body)
	if err != nil {
		p.logEvent("webhook_invalid_payload", req.RequestID, map[string]any{"error": err.Error()})
		return nil, errs.NewWebhookError(p.provider.Name(), "", "", req.SignatureHeader != "", err)
	}

	envelope, err := p.provider.Parse(body, req.SignatureHeader)
	if err != nil {
		p.logEvent("webhook_invalid_payload", req.RequestID, map[string]any{"error": err.Error()})
		return nil, errs.NewWebhookError(p.provider.Name(), "", "", req.SignatureHeader != "", err)
	}

	n := envelope.Notification
	userID := n.UserID()
	p.logEvent("webhook_received", req.RequestID, map[string]any{
		"transaction_id":    n.TransactionID,
		"user_id":           userID,
		"status":            n.Status,
		"amount":            n.Amount,
		"currency":          n.Currency,
		"test":              n.Test,
		"signature_present": envelope.Signature != "",
	})

	if err := p.verifySignature(envelope, req.RequestID); err != nil {
		return nil, errs.NewWebhookError(p.provider.Name(), n.TransactionID, userID, envelope.Signature != "", err)
	}

	if n.TransactionID == "" {
		p.logEvent("webhook_missing_transaction_id", req.RequestID, nil)
		return nil, errs.NewWebhookError(p.provider.Name(), "", userID, true, errs.ErrMissingTransactionID)
	}

	result, err := p.dispatch(ctx, req, n, userID)
	if err != nil {
		fields := map[string]any{
			"transaction_id": n.TransactionID,
			"user_id":        userID,
			"event_id":       n.EventID(),
			"error":          err.Error(),
		}
		if errs.IsClientError(err) {
			p.logger.Warn(p.eventName("webhook_rejected"), withRequestID(fields, req.RequestID))
			return nil, errs.NewWebhookError(p.provider.Name(), n.TransactionID, userID, true, err)
		}
		p.logger.Error(p.eventName("webhook_processing_failed"), withRequestID(fields, req.RequestID))
		return nil, err
	}

	return result, nil
}

// Wait blocks until in-flight receipt deliveries finish
func (p *Processor) Wait() {
	p.receipts.Wait()
}

func (p *Processor) verifySignature(envelope *Envelope, requestID string) error {
	n := envelope.Notification

	if envelope.Signature == "" {
		if n.Test && p.settings.AllowUnsignedTest {
			p.logEvent("webhook_signature_skipped_test_mode", requestID, map[string]any{"transaction_id": n.TransactionID})
			return nil
		}
		p.logger.Warn(p.eventName("webhook_missing_signature"), withRequestID(map[string]any{
			"transaction_id": n.TransactionID,
			"test":           n.Test,
		}, requestID))
		return errs.ErrMissingSignature
	}

	if p.settings.Secret == "" {
		p.logger.Error(p.eventName("webhook_secret_missing"), withRequestID(nil, requestID))
		return errs.ErrSecretNotConfigured
	}

	if !Verify(envelope.SignatureParams, envelope.Signature, p.settings.Secret) {
		p.logger.Warn(p.eventName("webhook_invalid_signature"), withRequestID(map[string]any{
			"transaction_id":    n.TransactionID,
			"signature_present": true,
		}, requestID))
		return errs.ErrInvalidSignature
	}

	p.logEvent("webhook_signature_verified", requestID, map[string]any{"transaction_id": n.TransactionID})
	return nil
}

func (p *Processor) dispatch(
	ctx context.Context,
	req usecase.WebhookRequest,
	n entity.PaymentNotification,
	userID string,
) (*usecase.WebhookResult, error) {
	now := p.timeProvider.Now()
	status, known := entity.ParseStatus(n.Status)

	entry := LedgerEntry{
		Event: entity.WebhookEvent{
			EventID:   n.EventID(),
			EventType: eventType(n.Status),
			Provider:  p.provider.Name(),
			Payload:   req.Body,
			CreatedAt: now,
		},
		UserID: userID,
	}
	if known {
		entry.Transaction = *n.ToTransaction(status, now)
	}

	result := &usecase.WebhookResult{
		EventID:       entry.Event.EventID,
		TransactionID: n.TransactionID,
		UserID:        userID,
	}

	var (
		ledgerResult *LedgerResult
		err          error
	)

	switch {
	case !known:
		p.logger.Warn(p.eventName("payment_unknown_status"), withRequestID(map[string]any{
			"transaction_id": n.TransactionID,
			"status":         n.Status,
			"event_id":       entry.Event.EventID,
		}, req.RequestID))
		ledgerResult, err = p.ledger.RecordUnknown(ctx, entry)

	case status == entity.StatusSuccessful:
		if userID == "" {
			return nil, errs.ErrMissingTrackingID
		}
		tokens, ok := entity.ExtractTokens(n.Description)
		if !ok {
			return nil, fmt.Errorf("%w: %q", errs.ErrInvalidDescription, n.Description)
		}
		entry.Tokens = tokens
		result.Tokens = tokens
		ledgerResult, err = p.ledger.ApplyPaymentSuccess(ctx, entry)

	case status == entity.StatusRefunded:
		tokens, ok := entity.ExtractTokens(n.Description)
		if userID == "" || !ok {
			p.logger.Warn(p.eventName("refund_skipped"), withRequestID(map[string]any{
				"transaction_id": n.TransactionID,
				"user_id":        userID,
				"description":    n.Description,
			}, req.RequestID))
			result.Outcome = usecase.OutcomeRefundSkipped
			return result, nil
		}
		entry.Tokens = tokens
		result.Tokens = tokens
		ledgerResult, err = p.ledger.ApplyRefund(ctx, entry)

	default:
		ledgerResult, err = p.ledger.RecordStatus(ctx, entry)
	}
	if err != nil {
		return nil, err
	}

	result.Outcome = ledgerResult.Outcome
	result.NewBalance = ledgerResult.NewBalance

	p.logEvent("payment_"+string(ledgerResult.Outcome), req.RequestID, map[string]any{
		"transaction_id": n.TransactionID,
		"user_id":        userID,
		"event_id":       entry.Event.EventID,
		"status":         n.Status,
		"tokens":         entry.Tokens,
		"new_balance":    ledgerResult.NewBalance,
	})

	if ledgerResult.Outcome == usecase.OutcomeCredited {
		p.sendReceipt(n, entry, ledgerResult)
	}

	return result, nil
}

// sendReceipt delivers the receipt in the background; the credit is already committed
func (p *Processor) sendReceipt(n entity.PaymentNotification, entry LedgerEntry, ledgerResult *LedgerResult) {
	if p.notifier == nil {
		return
	}

	receipt := entity.Receipt{
		TransactionID: n.TransactionID,
		UserID:        entry.UserID,
		Email:         firstNonEmpty(ledgerResult.User.Email, n.CustomerEmail),
		Tokens:        entry.Tokens,
		Amount:        entry.Transaction.Amount,
		Currency:      entry.Transaction.Currency,
		Description:   entry.Transaction.Description,
		NewBalance:    ledgerResult.NewBalance,
	}
	if entry.Transaction.PaidAt != nil {
		receipt.PaidAt = *entry.Transaction.PaidAt
	}

	p.receipts.Add(1)
	go func() {
		defer p.receipts.Done()

		ctx, cancel := p.timeProvider.WithTimeout(context.Background(), p.receiptTimeout)
		defer cancel()

		if err := p.notifier.SendReceipt(ctx, receipt); err != nil {
			p.logger.Warn(p.eventName("receipt_failed"), map[string]any{
				"transaction_id": receipt.TransactionID,
				"user_id":        receipt.UserID,
				"error":          err.Error(),
			})
			return
		}
		p.logger.Debug(p.eventName("receipt_sent"), map[string]any{
			"transaction_id": receipt.TransactionID,
			"user_id":        receipt.UserID,
		})
	}()
}

func (p *Processor) eventName(event string) string {
	return p.provider.Name() + "." + event
}

func (p *Processor) logEvent(event, requestID string, fields map[string]any) {
	p.logger.Info(p.eventName(event), withRequestID(fields, requestID))
}

func withRequestID(fields map[string]any, requestID string) map[string]any {
	if fields == nil {
		fields = make(map[string]any, 1)
	}
	fields["request_id"] = requestID
	return fields
}

func eventType(status string) string {
	if status == "" {
		return "unknown"
	}
	return status
}

// decodeBody keeps numbers as json.Number so amounts and signed values are not reformatted
func decodeBody(raw []byte) (map[string]any, error) {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()

	var body map[string]any
	if err := decoder.Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrInvalidPayload, err)
	}
	if body == nil {
		return nil, fmt.Errorf("%w: empty body", errs.ErrInvalidPayload)
	}
	return body, nil
}

var _ usecase.WebhookUseCase = (*Processor)(nil)
