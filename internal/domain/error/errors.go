package error

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes for standardized API responses
const (
	// 4xxx - Client errors
	CodeInvalidPayload       = 4001
	CodeMissingSignature     = 4002
	CodeMissingTransactionID = 4003
	CodeMissingTrackingID    = 4004
	CodeInvalidDescription   = 4005
	CodeUnauthorized         = 4010
	CodeInvalidSignature     = 4030
	CodeUserNotFound         = 4040
	CodeTransactionNotFound  = 4041

	// 5xxx - Server errors
	CodeInternalServer       = 5000
	CodeSecretNotConfigured  = 5001
	CodeDatabaseUnavailable  = 5030
	CodeTransientDatabaseErr = 5031
)

// Base error types
var (
	// ErrInvalidPayload is returned when a webhook body is not valid JSON or lacks the provider envelope
	ErrInvalidPayload = errors.New("invalid webhook payload")

	// ErrMissingSignature is returned when a signature is required but absent
	ErrMissingSignature = errors.New("missing signature")

	// ErrInvalidSignature is returned when the submitted signature does not match
	ErrInvalidSignature = errors.New("invalid signature")

	// ErrSecretNotConfigured is returned when the provider shared secret is empty
	ErrSecretNotConfigured = errors.New("webhook secret not configured")

	// ErrMissingTransactionID is returned when the provider transaction identifier is absent
	ErrMissingTransactionID = errors.New("missing transaction id")

	// ErrMissingTrackingID is returned when a successful payment carries no user reference
	ErrMissingTrackingID = errors.New("missing tracking_id for successful payment")

	// ErrInvalidDescription is returned when no token count can be parsed from the description
	ErrInvalidDescription = errors.New("invalid payment description format")

	// ErrInvalidTokenCount is returned when a token count is zero or negative
	ErrInvalidTokenCount = errors.New("token count must be positive")

	// ErrInvalidUserID is returned when a user identity is empty
	ErrInvalidUserID = errors.New("user id cannot be empty")

	// ErrInvalidEmail is returned when a user email is empty
	ErrInvalidEmail = errors.New("user email cannot be empty")

	// ErrNegativeBalance is returned when a mutation would leave a negative balance
	ErrNegativeBalance = errors.New("balance cannot be negative")

	// ErrInvalidStatus is returned when a transaction status is not recognized
	ErrInvalidStatus = errors.New("invalid transaction status")

	// ErrUnauthorized is returned when the caller identity is absent
	ErrUnauthorized = errors.New("unauthorized")

	// ErrUserNotFound is returned when the requested user doesn't exist
	ErrUserNotFound = errors.New("user not found")

	// ErrDuplicateUser is returned when trying to create a user that already exists
	ErrDuplicateUser = errors.New("user already exists")

	// ErrTransactionNotFound is returned when the requested transaction doesn't exist
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrNotReconcilable is returned when a transaction is not awaiting manual crediting
	ErrNotReconcilable = errors.New("transaction is not awaiting reconciliation")

	// ErrDatabaseConnection is returned when there's a problem connecting to the database
	ErrDatabaseConnection = errors.New("database connection error")

	// ErrTransient is returned for deadlocks and serialization failures that a retry can resolve
	ErrTransient = errors.New("transient database error")

	// ErrConstraintViolation is returned when a database constraint is violated
	ErrConstraintViolation = errors.New("database constraint violation")

	// ErrInternalServer is returned for unexpected server-side errors
	ErrInternalServer = errors.New("internal server error")
)

// ErrorCode returns standardized error codes for known errors
func ErrorCode(err error) int {
	switch {
	case errors.Is(err, ErrInvalidPayload):
		return CodeInvalidPayload
	case errors.Is(err, ErrMissingSignature):
		return CodeMissingSignature
	case errors.Is(err, ErrMissingTransactionID):
		return CodeMissingTransactionID
	case errors.Is(err, ErrMissingTrackingID):
		return CodeMissingTrackingID
	case errors.Is(err, ErrInvalidDescription), errors.Is(err, ErrInvalidTokenCount):
		return CodeInvalidDescription
	case errors.Is(err, ErrUnauthorized):
		return CodeUnauthorized
	case errors.Is(err, ErrInvalidSignature):
		return CodeInvalidSignature
	case errors.Is(err, ErrUserNotFound):
		return CodeUserNotFound
	case errors.Is(err, ErrTransactionNotFound):
		return CodeTransactionNotFound
	case errors.Is(err, ErrSecretNotConfigured):
		return CodeSecretNotConfigured
	case errors.Is(err, ErrDatabaseConnection):
		return CodeDatabaseUnavailable
	case errors.Is(err, ErrTransient):
		return CodeTransientDatabaseErr
	default:
		return CodeInternalServer
	}
}

// HTTPStatus maps an error onto the status code a webhook sender or API client should see.
// Anything unrecognized is a 500 so the gateway retries the delivery.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case IsClientError(err):
		return http.StatusBadRequest
	case errors.Is(err, ErrInvalidSignature):
		return http.StatusForbidden
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case IsNotFoundError(err):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// WebhookError carries provider context for a rejected or failed webhook delivery
type WebhookError struct {
	Provider         string
	TransactionID    string
	UserID           string
	SignaturePresent bool
	Err              error
}

// Error implements the error interface for WebhookError
func (e *WebhookError) Error() string {
	return fmt.Sprintf("%s webhook rejected (transaction: %q, user: %q): %v",
		e.Provider, e.TransactionID, e.UserID, e.Err)
}

// Unwrap returns the underlying error
func (e *WebhookError) Unwrap() error {
	return e.Err
}

// LogFields returns a map of fields for structured logging
func (e *WebhookError) LogFields() map[string]any {
	return map[string]any{
		"error_type":        "webhook_error",
		"provider":          e.Provider,
		"transaction_id":    e.TransactionID,
		"user_id":           e.UserID,
		"signature_present": e.SignaturePresent,
		"error":             e.Err.Error(),
		"error_code":        ErrorCode(e.Err),
	}
}

// NewWebhookError creates a webhook error bound to a provider delivery
func NewWebhookError(provider, transactionID, userID string, signaturePresent bool, err error) error {
	return &WebhookError{
		Provider:         provider,
		TransactionID:    transactionID,
		UserID:           userID,
		SignaturePresent: signaturePresent,
		Err:              err,
	}
}

// LedgerError represents a failure inside the atomic balance mutation
type LedgerError struct {
	EventID       string
	TransactionID string
	UserID        string
	Stage         string
	Err           error
}

// Error implements the error interface for LedgerError
func (e *LedgerError) Error() string {
	return fmt.Sprintf("ledger %s failed for event %s (transaction: %s, user: %s): %v",
		e.Stage, e.EventID, e.TransactionID, e.UserID, e.Err)
}

// Unwrap returns the underlying error
func (e *LedgerError) Unwrap() error {
	return e.Err
}

// LogFields returns a map of fields for structured logging
func (e *LedgerError) LogFields() map[string]any {
	return map[string]any{
		"error_type":     "ledger_error",
		"event_id":       e.EventID,
		"transaction_id": e.TransactionID,
		"user_id":        e.UserID,
		"stage":          e.Stage,
		"error":          e.Err.Error(),
		"error_code":     ErrorCode(e.Err),
	}
}

// NewLedgerError creates a detailed ledger error
func NewLedgerError(eventID, transactionID, userID, stage string, err error) error {
	return &LedgerError{
		EventID:       eventID,
		TransactionID: transactionID,
		UserID:        userID,
		Stage:         stage,
		Err:           err,
	}
}

// IsClientError reports whether err describes a structurally malformed delivery
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidPayload) ||
		errors.Is(err, ErrMissingSignature) ||
		errors.Is(err, ErrMissingTransactionID) ||
		errors.Is(err, ErrMissingTrackingID) ||
		errors.Is(err, ErrInvalidDescription) ||
		errors.Is(err, ErrInvalidTokenCount)
}

// IsUserNotFoundError checks if the error is a user not found error
func IsUserNotFoundError(err error) bool {
	return errors.Is(err, ErrUserNotFound)
}

// IsNotFoundError checks if the error is any "not found" type of error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrTransactionNotFound)
}

// IsTransientError checks if the error can be resolved by replaying the whole unit of work
func IsTransientError(err error) bool {
	return errors.Is(err, ErrTransient)
}
