package oauth

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luminary-app/luminary/internal/api"
	"github.com/luminary-app/luminary/internal/authflow"
	"github.com/luminary-app/luminary/internal/credstore"
	"github.com/luminary-app/luminary/internal/log"
	"github.com/luminary-app/luminary/internal/session"
)

func newListener(t *testing.T) (*Listener, *session.Store) {
	t.Helper()

	logger := log.New(log.Config{Level: log.LevelError, Output: log.NewOutput(io.Discard)})
	creds := credstore.New(t.TempDir())
	store := session.New(creds, logger)

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"payload": map[string]any{"id": "u-1", "name": "Ada", "email": "ada@example.com"},
		})
	}))
	t.Cleanup(backend.Close)

	client := api.New(backend.URL, store, logger)
	flow := authflow.New(client, store, logger)

	listener, err := New(flow, logger, WithTimeout(5*time.Second))
	require.NoError(t, err)
	t.Cleanup(func() { _ = listener.Close() })

	return listener, store
}

func TestWait_AbsorbsRedirect(t *testing.T) {
	listener, store := newListener(t)

	waitErr := make(chan error, 1)
	go func() {
		waitErr <- listener.Wait(context.Background())
	}()

	resp, err := http.Get(listener.RedirectURL() + "?token=oauth-tok")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// The response page never echoes the token.
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "oauth-tok")
	assert.Contains(t, string(body), "Signed in")

	require.NoError(t, <-waitErr)
	assert.Equal(t, "oauth-tok", store.Token())
	require.NotNil(t, store.User())
	assert.Equal(t, "u-1", store.User().ID)
}

func TestWait_RedirectWithoutToken(t *testing.T) {
	listener, store := newListener(t)

	waitErr := make(chan error, 1)
	go func() {
		waitErr <- listener.Wait(context.Background())
	}()

	resp, err := http.Get(listener.RedirectURL())
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Error(t, <-waitErr)
	assert.Empty(t, store.Token())
}

func TestWait_Timeout(t *testing.T) {
	logger := log.New(log.Config{Level: log.LevelError, Output: log.NewOutput(io.Discard)})
	store := session.New(credstore.New(t.TempDir()), logger)
	client := api.New("http://127.0.0.1:1", store, logger)
	flow := authflow.New(client, store, logger)

	listener, err := New(flow, logger, WithTimeout(50*time.Millisecond))
	require.NoError(t, err)
	t.Cleanup(func() { _ = listener.Close() })

	err = listener.Wait(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRedirectURL_Shape(t *testing.T) {
	listener, _ := newListener(t)

	url := listener.RedirectURL()
	assert.Contains(t, url, "http://127.0.0.1:")
	assert.Contains(t, url, "/callback")
}
