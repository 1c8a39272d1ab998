package database

import (
	"errors"
	"fmt"
	"strings"

	domainErr "github.com/nerbixa/payment-reconciler/internal/domain/error"
	"gorm.io/gorm"
)

// ErrorMapper maps connection-level database errors to domain errors.
// Row-level errors are mapped inside the repositories.
type ErrorMapper struct{}

// NewErrorMapper creates a new ErrorMapper
func NewErrorMapper() *ErrorMapper {
	return &ErrorMapper{}
}

// MapError maps a database error to a domain error
func (m *ErrorMapper) MapError(err error, operation string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domainErr.ErrTransactionNotFound
	}

	errMsg := strings.ToLower(err.Error())

	switch {
	// 40P01, 40001, 55P03: the whole unit of work can be replayed
	case strings.Contains(errMsg, "deadlock") ||
		strings.Contains(errMsg, "could not serialize") ||
		strings.Contains(errMsg, "40001") ||
		strings.Contains(errMsg, "40p01") ||
		strings.Contains(errMsg, "55p03") ||
		strings.Contains(errMsg, "lock timeout"):
		return fmt.Errorf("%w: %s: %s", domainErr.ErrTransient, operation, err.Error())

	case strings.Contains(errMsg, "duplicate key") ||
		strings.Contains(errMsg, "unique constraint") ||
		strings.Contains(errMsg, "check constraint") ||
		strings.Contains(errMsg, "foreign key constraint"):
		return fmt.Errorf("%w: %s", domainErr.ErrConstraintViolation, operation)

	case strings.Contains(errMsg, "connection refused") ||
		strings.Contains(errMsg, "no connection") ||
		strings.Contains(errMsg, "connection reset") ||
		strings.Contains(errMsg, "bad connection"):
		return fmt.Errorf("%w: %s", domainErr.ErrDatabaseConnection, operation)

	case strings.Contains(errMsg, "timeout") ||
		strings.Contains(errMsg, "deadline exceeded"):
		return fmt.Errorf("%w: %s operation timed out", domainErr.ErrDatabaseConnection, operation)

	default:
		return fmt.Errorf("%w: %s: %s", domainErr.ErrInternalServer, operation, err.Error())
	}
}
