package bootstrap

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luminary-app/luminary/internal/api"
	"github.com/luminary-app/luminary/internal/authflow"
	"github.com/luminary-app/luminary/internal/credstore"
	"github.com/luminary-app/luminary/internal/log"
	"github.com/luminary-app/luminary/internal/session"
)

type fixture struct {
	bootstrap *Bootstrap
	store     *session.Store
	creds     *credstore.Store
	requests  *atomic.Int64
}

func newFixture(t *testing.T, handler http.HandlerFunc) *fixture {
	t.Helper()

	logger := log.New(log.Config{Level: log.LevelError, Output: log.NewOutput(io.Discard)})
	creds := credstore.New(t.TempDir())

	requests := &atomic.Int64{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	store := session.New(creds, logger)
	client := api.New(server.URL, store, logger,
		api.WithUnauthorizedHandler(store.Logout))
	flow := authflow.New(client, store, logger)

	return &fixture{
		bootstrap: New(client, store, flow, logger),
		store:     store,
		creds:     creds,
		requests:  requests,
	}
}

func profileHandler(t *testing.T, user map[string]any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/users/me", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"payload": user})
	}
}

func TestRun_NoToken(t *testing.T) {
	fx := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	decision, err := fx.bootstrap.Run(context.Background(), "")

	require.NoError(t, err)
	assert.Equal(t, RedirectLogin, decision)
	assert.Equal(t, int64(0), fx.requests.Load())
}

func TestRun_PersistedTokenFetchesProfile(t *testing.T) {
	user := map[string]any{"id": "u-1", "name": "Ada", "email": "ada@example.com"}
	fx := newFixture(t, profileHandler(t, user))

	// A previous run left a valid credential behind.
	fx.store.SetToken("tok-1")
	fresh := session.New(fx.creds, log.New(log.Config{Level: log.LevelError, Output: log.NewOutput(io.Discard)}))
	require.Equal(t, "tok-1", fresh.Token())

	decision, err := fx.bootstrap.Run(context.Background(), "")

	require.NoError(t, err)
	assert.Equal(t, Proceed, decision)
	require.NotNil(t, fx.store.User())
	assert.Equal(t, "u-1", fx.store.User().ID)
}

func TestRun_ProfileAlreadyLoadedSkipsFetch(t *testing.T) {
	fx := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	fx.store.ApplyAuth("tok-1", &session.User{ID: "u-1", Email: "ada@example.com"})

	decision, err := fx.bootstrap.Run(context.Background(), "")

	require.NoError(t, err)
	assert.Equal(t, Proceed, decision)
	assert.Equal(t, int64(0), fx.requests.Load())
}

func TestRun_DeadTokenTearsDownSession(t *testing.T) {
	fx := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]any{"message": "token expired"})
	})
	fx.store.SetToken("tok-dead")

	decision, err := fx.bootstrap.Run(context.Background(), "")

	require.NoError(t, err)
	assert.Equal(t, RedirectLogin, decision)
	assert.Empty(t, fx.store.Token())

	// The persisted credential is gone too: the next launch starts anonymous.
	_, ok := fx.creds.Read()
	assert.False(t, ok)
}

func TestRun_ServerErrorTearsDownSession(t *testing.T) {
	fx := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	fx.store.SetToken("tok-1")

	decision, err := fx.bootstrap.Run(context.Background(), "")

	require.NoError(t, err)
	assert.Equal(t, RedirectLogin, decision)
	assert.Empty(t, fx.store.Token())
}

func TestRun_AbsorbsLaunchURLToken(t *testing.T) {
	user := map[string]any{"id": "u-2", "name": "Grace", "email": "grace@example.com"}
	fx := newFixture(t, profileHandler(t, user))

	decision, err := fx.bootstrap.Run(context.Background(), "http://localhost:3000/dashboard?token=oauth-tok")

	require.NoError(t, err)
	assert.Equal(t, Proceed, decision)
	assert.Equal(t, "oauth-tok", fx.store.Token())
	require.NotNil(t, fx.store.User())
	assert.Equal(t, "u-2", fx.store.User().ID)
}

func TestRun_LaunchURLWithoutToken(t *testing.T) {
	fx := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	decision, err := fx.bootstrap.Run(context.Background(), "http://localhost:3000/dashboard")

	require.NoError(t, err)
	assert.Equal(t, RedirectLogin, decision)
	assert.Equal(t, int64(0), fx.requests.Load())
}

func TestRun_MalformedLaunchURLIsIgnored(t *testing.T) {
	fx := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	decision, err := fx.bootstrap.Run(context.Background(), "http://bad url\x7f")

	require.NoError(t, err)
	assert.Equal(t, RedirectLogin, decision)
}

func TestRun_PendingEmailAloneIsAnonymous(t *testing.T) {
	fx := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	fx.store.SetPendingEmail("ada@example.com")

	decision, err := fx.bootstrap.Run(context.Background(), "")

	require.NoError(t, err)
	assert.Equal(t, RedirectLogin, decision)
}
