package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	errs "github.com/nerbixa/payment-reconciler/internal/domain/error"
	coreport "github.com/nerbixa/payment-reconciler/internal/domain/port/core"
	"github.com/nerbixa/payment-reconciler/internal/domain/port/usecase"
	"github.com/nerbixa/payment-reconciler/internal/infrastructure/adapter/api/dto"
)

// DefaultMaxBodyBytes caps a webhook body when no limit is configured
const DefaultMaxBodyBytes int64 = 1 << 20

// RequestIDKey is the gin context key holding the request id
const RequestIDKey = "request_id"

// WebhookHandler serves one payment provider's webhook route
type WebhookHandler struct {
	processor    usecase.WebhookUseCase
	maxBodyBytes int64
	timeProvider coreport.TimeProvider
	logger       coreport.Logger
}

// NewWebhookHandler creates a new webhook handler instance
func NewWebhookHandler(
	processor usecase.WebhookUseCase,
	maxBodyBytes int64,
	timeProvider coreport.TimeProvider,
	logger coreport.Logger,
) *WebhookHandler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	return &WebhookHandler{
		processor:    processor,
		maxBodyBytes: maxBodyBytes,
		timeProvider: timeProvider,
		logger:       logger,
	}
}

// Receive handles POST deliveries
func (h *WebhookHandler) Receive(c *gin.Context) {
	requestID := requestIDFrom(c)

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, h.maxBodyBytes+1))
	if err != nil {
		h.logger.Warn("Failed to read webhook body", map[string]any{
			"provider":   h.processor.ProviderName(),
			"request_id": requestID,
			"error":      err.Error(),
		})
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "Invalid webhook payload",
			Code:  errs.ErrorCode(errs.ErrInvalidPayload),
		})
		return
	}
	if int64(len(body)) > h.maxBodyBytes {
		h.logger.Warn("Webhook body too large", map[string]any{
			"provider":   h.processor.ProviderName(),
			"request_id": requestID,
			"limit":      h.maxBodyBytes,
		})
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "Invalid webhook payload: body too large",
			Code:  errs.ErrorCode(errs.ErrInvalidPayload),
		})
		return
	}

	_, err = h.processor.Handle(c.Request.Context(), usecase.WebhookRequest{
		RequestID:       requestID,
		Body:            body,
		SignatureHeader: c.GetHeader("X-Signature"),
	})
	if err != nil {
		// Anything but a rejected delivery is a 500 so the gateway redelivers
		status := errs.HTTPStatus(err)
		if status != http.StatusBadRequest && status != http.StatusForbidden {
			status = http.StatusInternalServerError
		}
		c.JSON(status, dto.ErrorResponse{
			Error: webhookErrorMessage(err),
			Code:  errs.ErrorCode(err),
		})
		return
	}

	c.JSON(http.StatusOK, dto.WebhookAck{Status: "ok"})
}

// Probe handles GET liveness checks from the provider dashboard
func (h *WebhookHandler) Probe(c *gin.Context) {
	c.JSON(http.StatusOK, dto.WebhookProbeResponse{
		Message:   fmt.Sprintf("%s webhook endpoint is active", h.processor.ProviderName()),
		Timestamp: h.timeProvider.Now().UTC().Format(time.RFC3339),
	})
}

// webhookErrorMessage renders the body text a gateway sees for a rejected delivery.
// Server-side failures never expose their cause.
func webhookErrorMessage(err error) string {
	switch {
	case errors.Is(err, errs.ErrMissingSignature):
		return "Missing signature"
	case errors.Is(err, errs.ErrInvalidSignature):
		return "Invalid signature"
	case errors.Is(err, errs.ErrSecretNotConfigured):
		return "Server configuration error"
	case errors.Is(err, errs.ErrMissingTrackingID):
		return "Missing tracking_id for successful payment"
	case errors.Is(err, errs.ErrInvalidDescription), errors.Is(err, errs.ErrInvalidTokenCount):
		return "Invalid payment description format"
	case errors.Is(err, errs.ErrMissingTransactionID):
		return "Invalid webhook payload: missing transaction id"
	case errors.Is(err, errs.ErrInvalidPayload):
		return capitalize(innermostMessage(err))
	default:
		return "Webhook processing failed"
	}
}

func innermostMessage(err error) string {
	var webhookErr *errs.WebhookError
	if errors.As(err, &webhookErr) && webhookErr.Err != nil {
		return webhookErr.Err.Error()
	}
	return err.Error()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func requestIDFrom(c *gin.Context) string {
	if id := c.GetString(RequestIDKey); id != "" {
		return id
	}
	if id := c.GetHeader("X-Request-ID"); id != "" {
		return id
	}
	return uuid.NewString()
}
