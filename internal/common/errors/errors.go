// Package errors provides standardized error handling for the widget gateway.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Storage tier failures. Always swallowed at the mirror boundary and
	// reported to callers as "no data available".
	ErrCodeStorageReadFailed  ErrorCode = "STORAGE_READ_FAILED"
	ErrCodeStorageWriteFailed ErrorCode = "STORAGE_WRITE_FAILED"
	ErrCodeStorageParseFailed ErrorCode = "STORAGE_PARSE_FAILED"

	// Upstream coaching backend failures. Rendered to the user as the fixed
	// apology message, never propagated as an error.
	ErrCodeAssistantUnavailable ErrorCode = "ASSISTANT_UNAVAILABLE"
	ErrCodeAssistantTimeout     ErrorCode = "ASSISTANT_TIMEOUT"
	ErrCodeRefineFailed         ErrorCode = "REFINE_FAILED"
	ErrCodeStrengthenFailed     ErrorCode = "STRENGTHEN_FAILED"
	ErrCodeAdminAPIFailed       ErrorCode = "ADMIN_API_FAILED"

	// Gateway surface errors. The only class returned to HTTP clients.
	ErrCodeInvalidRequest     ErrorCode = "INVALID_REQUEST"
	ErrCodeSessionNotFound    ErrorCode = "SESSION_NOT_FOUND"
	ErrCodeRequestInFlight    ErrorCode = "REQUEST_IN_FLIGHT"
	ErrCodeInvalidTransition  ErrorCode = "INVALID_TRANSITION"
	ErrCodeNoPendingFeedback  ErrorCode = "NO_PENDING_FEEDBACK"
	ErrCodeWelcomeNotActive   ErrorCode = "WELCOME_NOT_ACTIVE"
	ErrCodeRefineNotAvailable ErrorCode = "REFINE_NOT_AVAILABLE"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// New creates a StandardError with the given code and message.
func New(code ErrorCode, message string) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Retryable: isRetryable(code),
		Timestamp: time.Now(),
	}
}

// Wrap creates a StandardError carrying the underlying error text as details.
func Wrap(code ErrorCode, message string, err error) *StandardError {
	se := New(code, message)
	if err != nil {
		se.Details = err.Error()
	}
	return se
}

// WithMetadata attaches context values to the error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

func isRetryable(code ErrorCode) bool {
	switch code {
	case ErrCodeAssistantTimeout, ErrCodeAssistantUnavailable, ErrCodeAdminAPIFailed:
		return true
	}
	return false
}

// CodeOf extracts the ErrorCode from an error chain, or empty string.
func CodeOf(err error) ErrorCode {
	var se *StandardError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}
