package database

import (
	"context"
	"math/rand/v2"
	"time"

	errs "github.com/nerbixa/payment-reconciler/internal/domain/error"
	coreport "github.com/nerbixa/payment-reconciler/internal/domain/port/core"
)

// RetryConfig holds configuration for retry operations
type RetryConfig struct {
	MaxRetries    int
	RetryInterval time.Duration
	MaxInterval   time.Duration
	JitterFactor  float64 // 0.0-1.0
}

// DefaultRetryConfig returns the default retry configuration
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:    5,
		RetryInterval: 50 * time.Millisecond,
		MaxInterval:   2 * time.Second,
		JitterFactor:  0.2,
	}
}

// RetryOnTransientError retries an operation while it fails with errs.ErrTransient.
// The operation must be safe to replay; a unit of work attempt is, because it
// rolls back completely before returning.
func RetryOnTransientError(
	ctx context.Context,
	config RetryConfig,
	operation func() error,
	timeProvider coreport.TimeProvider,
	logger coreport.Logger,
) error {
	maxRetries := config.MaxRetries
	if maxRetries < 1 {
		maxRetries = 1
	}

	var err error
	attempt := 0
	for ; attempt < maxRetries; attempt++ {
		err = operation()
		if err == nil {
			return nil
		}

		if !errs.IsTransientError(err) || attempt == maxRetries-1 {
			break
		}

		backoff := calculateBackoffWithJitter(attempt, config)
		logger.Warn("Transient database error, retrying operation", map[string]any{
			"attempt":     attempt + 1,
			"max_retries": maxRetries,
			"error":       err.Error(),
			"retry_after": backoff.String(),
		})

		waitCtx, cancel := timeProvider.WithTimeout(ctx, coreport.Duration(backoff))
		<-waitCtx.Done()
		cancel()

		if ctx.Err() != nil {
			logger.Warn("Retry operation canceled by context", map[string]any{
				"attempts": attempt + 1,
				"error":    ctx.Err().Error(),
			})
			return ctx.Err()
		}
	}

	if errs.IsTransientError(err) {
		logger.Error("All retry attempts failed", map[string]any{
			"attempts":    attempt + 1,
			"max_retries": maxRetries,
			"error":       err.Error(),
		})
	}
	return err
}

// calculateBackoffWithJitter computes the backoff duration with exponential increase and jitter
func calculateBackoffWithJitter(attempt int, config RetryConfig) time.Duration {
	backoff := config.RetryInterval * (1 << uint(attempt))

	if backoff > config.MaxInterval {
		backoff = config.MaxInterval
	}

	if config.JitterFactor > 0 {
		jitter := time.Duration(float64(backoff) * config.JitterFactor * rand.Float64())
		backoff += jitter
	}

	return backoff
}
