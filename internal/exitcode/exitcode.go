package exitcode

import (
	"errors"
	"os"
	"strings"

	lumerrors "github.com/luminary-app/luminary/internal/errors"
)

// Exit codes for consistent error handling across the CLI
const (
	// Success indicates successful execution
	Success = 0

	// GeneralError indicates a general error condition
	GeneralError = 1

	// UsageError indicates invalid command usage (bad flags, missing args, etc.)
	UsageError = 2

	// AuthError indicates an authentication or authorization failure
	AuthError = 3

	// NetworkError indicates a network connectivity issue
	NetworkError = 4

	// Interrupted indicates the operation was cancelled by the user
	Interrupted = 130
)

// Exit terminates the program with the given exit code
func Exit(code int) {
	os.Exit(code)
}

// ExitWithError exits with an appropriate code based on error type
func ExitWithError(err error) {
	if err == nil {
		Exit(Success)
		return
	}

	Exit(DetermineExitCode(err))
}

// DetermineExitCode analyzes an error and returns the appropriate exit code
func DetermineExitCode(err error) int {
	if err == nil {
		return Success
	}

	var lumErr *lumerrors.LuminaryError
	if errors.As(err, &lumErr) {
		switch {
		case strings.HasPrefix(string(lumErr.Code), "AUTH-"),
			strings.HasPrefix(string(lumErr.Code), "SESSION-"):
			return AuthError
		case lumErr.Code == lumerrors.ErrCodeAPIUnauthorized:
			return AuthError
		case lumErr.Code == lumerrors.ErrCodeAPIRequest:
			return NetworkError
		}
	}

	errMsg := strings.ToLower(err.Error())

	if strings.Contains(errMsg, "unauthorized") || strings.Contains(errMsg, "not logged in") {
		return AuthError
	}

	if strings.Contains(errMsg, "connection refused") ||
		strings.Contains(errMsg, "no such host") ||
		strings.Contains(errMsg, "timeout") {
		return NetworkError
	}

	if strings.Contains(errMsg, "required flag") || strings.Contains(errMsg, "unknown flag") {
		return UsageError
	}

	return GeneralError
}
