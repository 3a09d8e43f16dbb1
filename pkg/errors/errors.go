package errors

import (
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeNetwork represents network-related errors
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeParsing represents HTML parsing errors
	ErrorTypeParsing ErrorType = "parsing"
	// ErrorTypeRateLimit represents rate limiting errors
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeValidation represents offer validation errors
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeStorage represents history store errors
	ErrorTypeStorage ErrorType = "storage"
	// ErrorTypeDispatch represents notification dispatch errors
	ErrorTypeDispatch ErrorType = "dispatch"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// WatchError represents a pipeline-specific error
type WatchError struct {
	Type    ErrorType
	SKU     string
	Message string
	Err     error
	Time    time.Time
}

// Error implements the error interface
func (e *WatchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.SKU, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.SKU, e.Message)
}

// Unwrap returns the underlying error
func (e *WatchError) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error is worth retrying on a later run
func (e *WatchError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeNetwork, ErrorTypeStorage:
		return true
	default:
		return false
	}
}

// New creates a new WatchError
func New(errType ErrorType, sku, message string, err error) *WatchError {
	return &WatchError{
		Type:    errType,
		SKU:     sku,
		Message: message,
		Err:     err,
		Time:    time.Now(),
	}
}

// NewNetwork creates a new network error
func NewNetwork(sku, message string, err error) *WatchError {
	return New(ErrorTypeNetwork, sku, message, err)
}

// NewParsing creates a new parsing error
func NewParsing(sku, message string, err error) *WatchError {
	return New(ErrorTypeParsing, sku, message, err)
}

// NewRateLimit creates a new rate limit error
func NewRateLimit(sku string, duration time.Duration) *WatchError {
	return New(ErrorTypeRateLimit, sku, fmt.Sprintf("rate limited for %v", duration), nil)
}

// NewValidation creates a new validation error
func NewValidation(sku, message string) *WatchError {
	return New(ErrorTypeValidation, sku, message, nil)
}

// NewStorage creates a new history store error
func NewStorage(sku, message string, err error) *WatchError {
	return New(ErrorTypeStorage, sku, message, err)
}

// NewDispatch creates a new dispatch error
func NewDispatch(sku, message string, err error) *WatchError {
	return New(ErrorTypeDispatch, sku, message, err)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *WatchError {
	return New(ErrorTypeConfiguration, "", message, err)
}
