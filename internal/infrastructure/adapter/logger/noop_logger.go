package logger

import (
	"github.com/nerbixa/payment-reconciler/internal/domain/port/core"
)

// NoopLogger discards everything. The paymentctl CLI uses it for --quiet.
type NoopLogger struct {
	level core.LogLevel
}

// NewNoopLogger creates a new no-op logger
func NewNoopLogger() *NoopLogger {
	return &NoopLogger{level: core.LogLevelError}
}

func (l *NoopLogger) SetLevel(level core.LogLevel)                { l.level = level }
func (l *NoopLogger) GetLevel() core.LogLevel                     { return l.level }
func (l *NoopLogger) Debug(message string, fields map[string]any) {}
func (l *NoopLogger) Info(message string, fields map[string]any)  {}
func (l *NoopLogger) Warn(message string, fields map[string]any)  {}
func (l *NoopLogger) Error(message string, fields map[string]any) {}
func (l *NoopLogger) Flush() error                                { return nil }

var _ core.Logger = (*NoopLogger)(nil)
