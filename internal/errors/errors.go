package errors

import (
	"fmt"
	"strings"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

// Error categories
const (
	// Authentication errors (AUTH-001 to AUTH-099)
	ErrCodeAuthFailed          ErrorCode = "AUTH-001"
	ErrCodeAuthOTPInvalid      ErrorCode = "AUTH-002"
	ErrCodeAuthOTPIncomplete   ErrorCode = "AUTH-003"
	ErrCodeAuthResendThrottled ErrorCode = "AUTH-004"
	ErrCodeAuthNoPendingEmail  ErrorCode = "AUTH-005"
	ErrCodeAuthValidation      ErrorCode = "AUTH-006"

	// Session errors (SESSION-001 to SESSION-099)
	ErrCodeSessionExpired    ErrorCode = "SESSION-001"
	ErrCodeSessionMissing    ErrorCode = "SESSION-002"
	ErrCodeSessionSuperseded ErrorCode = "SESSION-003"

	// API errors (API-001 to API-099)
	ErrCodeAPIUnauthorized ErrorCode = "API-001"
	ErrCodeAPIRequest      ErrorCode = "API-002"
	ErrCodeAPIDecode       ErrorCode = "API-003"

	// Configuration errors (CONFIG-001 to CONFIG-099)
	ErrCodeConfigInvalid ErrorCode = "CONFIG-001"
	ErrCodeConfigRead    ErrorCode = "CONFIG-002"
)

// LuminaryError represents an enhanced error with code, suggestions, and cause
type LuminaryError struct {
	Code        ErrorCode
	Message     string
	Suggestions []string
	Cause       error
}

// Error implements the error interface
func (e *LuminaryError) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(": %v", e.Cause))
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("\n\nSuggestions:")
		for _, suggestion := range e.Suggestions {
			b.WriteString(fmt.Sprintf("\n  • %s", suggestion))
		}
	}

	return b.String()
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *LuminaryError) Unwrap() error {
	return e.Cause
}

// New creates a new LuminaryError
func New(code ErrorCode, message string) *LuminaryError {
	return &LuminaryError{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a new LuminaryError wrapping an existing error
func Wrap(code ErrorCode, message string, cause error) *LuminaryError {
	return &LuminaryError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WithSuggestion adds a suggestion to the error
func (e *LuminaryError) WithSuggestion(suggestion string) *LuminaryError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// WithSuggestions adds multiple suggestions to the error
func (e *LuminaryError) WithSuggestions(suggestions ...string) *LuminaryError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// Common error constructors for frequently used errors

// NewSessionExpiredError creates an authorization-expiry error
func NewSessionExpiredError() *LuminaryError {
	return New(ErrCodeSessionExpired, "your session has expired").
		WithSuggestion("Run 'luminary auth login' to sign in again")
}

// NewNotLoggedInError creates a missing-session error
func NewNotLoggedInError() *LuminaryError {
	return New(ErrCodeSessionMissing, "not logged in").
		WithSuggestion("Run 'luminary auth login' to sign in").
		WithSuggestion("Run 'luminary auth register' to create an account")
}

// NewOTPIncompleteError creates an incomplete-code validation error
func NewOTPIncompleteError(length int) *LuminaryError {
	return New(ErrCodeAuthOTPIncomplete, fmt.Sprintf("please enter the complete %d-digit code", length))
}

// NewNoPendingEmailError indicates no OTP challenge is in progress
func NewNoPendingEmailError() *LuminaryError {
	return New(ErrCodeAuthNoPendingEmail, "no verification is pending").
		WithSuggestion("Run 'luminary auth login' first; verification starts after a login challenge")
}

// NewResendThrottledError indicates the resend window is closed
func NewResendThrottledError() *LuminaryError {
	return New(ErrCodeAuthResendThrottled, "a code was sent recently").
		WithSuggestion("Wait until the current code is about to expire before requesting another").
		WithSuggestion("Check your spam folder for the previous code")
}

// NewValidationError creates a local pre-flight validation error
func NewValidationError(message string) *LuminaryError {
	return New(ErrCodeAuthValidation, message)
}
