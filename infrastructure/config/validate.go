package config

import "fmt"

// ValidationError names the offending config key.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateRequired rejects empty strings.
func ValidateRequired(field, value string) error {
	if value == "" {
		return &ValidationError{Field: field, Message: "is required"}
	}
	return nil
}

// ValidatePort accepts 1..65535.
func ValidatePort(field string, port int) error {
	if port < 1 || port > 65535 {
		return &ValidationError{Field: field, Message: "must be between 1 and 65535"}
	}
	return nil
}

// ValidateRange accepts values in [minVal, maxVal].
func ValidateRange(field string, value, minVal, maxVal float64) error {
	if value < minVal || value > maxVal {
		return &ValidationError{Field: field, Message: fmt.Sprintf("must be between %g and %g", minVal, maxVal)}
	}
	return nil
}

// ValidateLogLevel accepts the levels the logger understands.
func ValidateLogLevel(level string) error {
	switch level {
	case "debug", "info", "warn", "warning", "error", "fatal":
		return nil
	default:
		return &ValidationError{Field: "logging.level", Message: "must be one of: debug, info, warn, error, fatal"}
	}
}
