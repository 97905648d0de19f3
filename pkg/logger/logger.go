// Package logger provides the structured logging contract used by all authgate components.
// Implementations live in internal/infrastructure/monitoring; this package stays dependency free
// so domain code can log without importing a concrete sink.
package logger

import (
	"context"
	"strings"
)

// ================================================================================
// Logger Interface
// ================================================================================

// Logger defines the interface for structured logging
type Logger interface {
	// Debug logs a debug message
	Debug(ctx context.Context, msg string, fields ...Fields)

	// Info logs an informational message
	Info(ctx context.Context, msg string, fields ...Fields)

	// Warn logs a warning message
	Warn(ctx context.Context, msg string, fields ...Fields)

	// Error logs an error message
	Error(ctx context.Context, msg string, err error, fields ...Fields)

	// Fatal logs a fatal message and exits the application
	Fatal(ctx context.Context, msg string, err error, fields ...Fields)

	// WithFields creates a new logger with additional fields
	WithFields(fields Fields) Logger

	// WithComponent creates a new logger for a specific component
	WithComponent(component string) Logger
}

// Fields is a set of key-value pairs attached to a log entry
type Fields map[string]interface{}

// ================================================================================
// Sensitive Value Masking
// ================================================================================

// sensitiveKeys lists field key fragments whose values never reach a sink in clear text.
var sensitiveKeys = []string{
	"password",
	"secret",
	"token",
	"authorization",
	"digest",
}

// SanitizeValue masks the value of a sensitive field key.
func SanitizeValue(key string, value interface{}) interface{} {
	keyLower := strings.ToLower(key)
	for _, sensitiveKey := range sensitiveKeys {
		if strings.Contains(keyLower, sensitiveKey) {
			if str, ok := value.(string); ok && len(str) > 0 {
				return maskString(str)
			}
			if value == nil {
				return nil
			}
			return "***REDACTED***"
		}
	}
	return value
}

// maskString partially masks a string value
func maskString(s string) string {
	if len(s) <= 12 {
		return "***"
	}
	// Show first 4 and last 4 characters
	return s[:4] + "***" + s[len(s)-4:]
}

// Merge flattens several Fields into one, later keys winning.
func Merge(fields ...Fields) Fields {
	out := make(Fields)
	for _, f := range fields {
		for k, v := range f {
			out[k] = v
		}
	}
	return out
}
