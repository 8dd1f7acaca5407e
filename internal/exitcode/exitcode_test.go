package exitcode

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	lumerrors "github.com/luminary-app/luminary/internal/errors"
)

func TestDetermineExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil error", nil, Success},
		{"generic error", errors.New("something broke"), GeneralError},
		{"auth coded error", lumerrors.NewNotLoggedInError(), AuthError},
		{"session expired", lumerrors.NewSessionExpiredError(), AuthError},
		{"unauthorized api", lumerrors.New(lumerrors.ErrCodeAPIUnauthorized, "unauthorized"), AuthError},
		{"request error", lumerrors.Wrap(lumerrors.ErrCodeAPIRequest, "request failed", errors.New("dial tcp")), NetworkError},
		{"connection refused", errors.New("dial tcp: connection refused"), NetworkError},
		{"usage error", errors.New(`required flag(s) "email" not set`), UsageError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetermineExitCode(tt.err))
		})
	}
}

func TestDetermineExitCode_WrappedCodedError(t *testing.T) {
	inner := lumerrors.NewSessionExpiredError()
	wrapped := lumerrors.Wrap(lumerrors.ErrCodeAPIDecode, "outer", inner)

	// The outer code wins; decode errors are general failures.
	assert.Equal(t, GeneralError, DetermineExitCode(wrapped))
}
