package core

import "strings"

// LogLevel represents logging severity levels
type LogLevel int

const (
	// LogLevelDebug for SQL traces and per-step webhook details
	LogLevelDebug LogLevel = iota
	// LogLevelInfo for webhook lifecycle events
	LogLevelInfo
	// LogLevelWarn for rejected deliveries and business no-ops worth auditing
	LogLevelWarn
	// LogLevelError for failures that cause a gateway retry
	LogLevelError
)

// ParseLogLevel maps a config string onto a LogLevel, defaulting to info
func ParseLogLevel(level string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return LogLevelDebug
	case "warn", "warning":
		return LogLevelWarn
	case "error":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

// Logger defines structured logging operations.
// Fields must never carry shared secrets or full signatures.
type Logger interface {
	SetLevel(level LogLevel)
	GetLevel() LogLevel
	Debug(message string, fields map[string]any)
	Info(message string, fields map[string]any)
	Warn(message string, fields map[string]any)
	Error(message string, fields map[string]any)
	// Flush ensures all buffered logs are written to their destination
	Flush() error
}
