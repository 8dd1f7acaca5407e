package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lumerrors "github.com/luminary-app/luminary/internal/errors"
	"github.com/luminary-app/luminary/internal/log"
)

// staticTokens is a TokenSource returning a fixed token.
type staticTokens string

func (s staticTokens) Token() string { return string(s) }

func newTestClient(t *testing.T, handler http.HandlerFunc, token string, opts ...Option) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := New(srv.URL, staticTokens(token), log.Default(), opts...)
	return client, srv
}

func TestDo_AttachesBearerWhenTokenPresent(t *testing.T) {
	var gotAuth string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}, "tok-123")

	require.NoError(t, client.do(context.Background(), "GET", "/ping", nil, nil))
	assert.Equal(t, "Bearer tok-123", gotAuth)
}

func TestDo_NoHeaderWhenAnonymous(t *testing.T) {
	var gotAuth string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}, "")

	require.NoError(t, client.do(context.Background(), "GET", "/ping", nil, nil))
	assert.Empty(t, gotAuth)
}

func TestDo_DeviceIDHeader(t *testing.T) {
	var gotDevice string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotDevice = r.Header.Get("X-Device-Id")
		w.Write([]byte(`{}`))
	}, "", WithDeviceID("device-1"))

	require.NoError(t, client.do(context.Background(), "GET", "/ping", nil, nil))
	assert.Equal(t, "device-1", gotDevice)
}

func TestDo_UnauthorizedFiresGlobalHandler(t *testing.T) {
	fired := 0
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}, "stale", WithUnauthorizedHandler(func() { fired++ }))

	err := client.do(context.Background(), "GET", "/api/users/me", nil, nil)
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
	assert.Equal(t, 1, fired)

	// The session-expired error carries the coded taxonomy, so the exit-code
	// mapping and the display layer treat it as an auth failure.
	var lumErr *lumerrors.LuminaryError
	require.ErrorAs(t, err, &lumErr)
	assert.Equal(t, lumerrors.ErrCodeSessionExpired, lumErr.Code)
}

func TestDo_ServerMessageSurfaced(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"Invalid credentials"}`))
	}, "")

	err := client.do(context.Background(), "POST", "/api/auth/login", nil, nil)
	require.Error(t, err)

	apiErr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, "Invalid credentials", apiErr.Message)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.False(t, IsUnauthorized(err))
}

func TestDo_ErrorKeyFallback(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"error":"email already registered"}`))
	}, "")

	err := client.do(context.Background(), "POST", "/api/auth/register", nil, nil)
	apiErr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, "email already registered", apiErr.Message)
}

func TestDo_GenericFallbackMessage(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`<html>boom</html>`))
	}, "")

	err := client.do(context.Background(), "GET", "/x", nil, nil)
	apiErr, ok := err.(*Error)
	require.True(t, ok)
	assert.Contains(t, apiErr.Message, "500")
}

func TestLogin_TrustedDevice(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/login", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "a@b.com", body["email"])

		w.Write([]byte(`{"payload":{"token":"T1","user":{"id":"u1","name":"Ann"}}}`))
	}, "")

	result, err := client.Login(context.Background(), "a@b.com", "secret")
	require.NoError(t, err)

	assert.False(t, result.ChallengeIssued)
	assert.Equal(t, "T1", result.Token)
	require.NotNil(t, result.User)
	assert.Equal(t, "u1", result.User.ID)
}

func TestLogin_ChallengeIssued(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"payload":null}`))
	}, "")

	result, err := client.Login(context.Background(), "a@b.com", "secret")
	require.NoError(t, err)

	assert.True(t, result.ChallengeIssued)
	assert.Empty(t, result.Token)
	assert.Nil(t, result.User)
}

func TestVerifyOTP(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/verify-otp", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "123456", body["otpCode"])
		assert.Equal(t, true, body["trustDevice"])

		w.Write([]byte(`{"payload":{"token":"T2","user":{"id":"u1","email":"a@b.com"}}}`))
	}, "")

	token, user, err := client.VerifyOTP(context.Background(), "a@b.com", "123456", true)
	require.NoError(t, err)
	assert.Equal(t, "T2", token)
	require.NotNil(t, user)
	assert.Equal(t, "a@b.com", user.Email)
}

func TestVerifyOTP_EmptyPayload(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"payload":null}`))
	}, "")

	_, _, err := client.VerifyOTP(context.Background(), "a@b.com", "123456", false)
	require.Error(t, err)
}

func TestResendOTP(t *testing.T) {
	var gotPath string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}, "")

	require.NoError(t, client.ResendOTP(context.Background(), "a@b.com"))
	assert.Equal(t, "/api/auth/resend-otp", gotPath)
}

func TestOAuthLoginURL(t *testing.T) {
	client := New("https://api.example", nil, log.Default())
	assert.Equal(t, "https://api.example/oauth2/authorization/google", client.OAuthLoginURL("google"))
}
