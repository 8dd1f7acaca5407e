package errors

import (
	stderrors "errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeAuthFailed, "login failed")

	assert.Equal(t, ErrCodeAuthFailed, err.Code)
	assert.Equal(t, "login failed", err.Message)
	assert.Nil(t, err.Cause)
	assert.Contains(t, err.Error(), "[AUTH-001] login failed")
}

func TestWrap(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := Wrap(ErrCodeAPIRequest, "request failed", cause)

	assert.Equal(t, cause, err.Cause)
	assert.Contains(t, err.Error(), "request failed: connection refused")
	assert.True(t, stderrors.Is(err, cause))
}

func TestWithSuggestion(t *testing.T) {
	err := New(ErrCodeSessionMissing, "not logged in").
		WithSuggestion("Run 'luminary auth login' to sign in")

	require.Len(t, err.Suggestions, 1)
	assert.Contains(t, err.Error(), "Suggestions:")
	assert.Contains(t, err.Error(), "auth login")
}

func TestWithSuggestions(t *testing.T) {
	err := New(ErrCodeConfigInvalid, "bad config").
		WithSuggestions("check the file", "delete and regenerate")

	assert.Len(t, err.Suggestions, 2)
}

func TestErrorFormat_NoSuggestions(t *testing.T) {
	err := New(ErrCodeAuthOTPInvalid, "invalid code")

	assert.False(t, strings.Contains(err.Error(), "Suggestions"))
}

func TestSessionExpiredError(t *testing.T) {
	err := NewSessionExpiredError()

	assert.Equal(t, ErrCodeSessionExpired, err.Code)
	assert.NotEmpty(t, err.Suggestions)
}

func TestOTPIncompleteError(t *testing.T) {
	err := NewOTPIncompleteError(6)

	assert.Equal(t, ErrCodeAuthOTPIncomplete, err.Code)
	assert.Contains(t, err.Message, "6-digit")
}
