// Package credstore persists the bearer credential and the small set of
// durable client-side keys (device identifier, push-subscription intent)
// across process restarts.
//
// It is the terminal-client analog of a browser cookie jar: one durable key
// holding the token with a seven-day expiry, readable exactly once at session
// hydration. Storage trouble degrades to "no token" — the layers above treat
// an absent token as a normal state, not a failure.
package credstore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TokenTTL is how long a persisted token stays valid, mirroring the
// service-side trusted-device window.
const TokenTTL = 7 * 24 * time.Hour

const (
	credentialsFile = "credentials.json"
	deviceIDFile    = "device_id"
	pushStateFile   = "push_state.json"
)

// credentials is the on-disk shape of the persisted session credential.
type credentials struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// pushState records whether this device asked for push delivery.
type pushState struct {
	Subscribed bool   `json:"subscribed"`
	Endpoint   string `json:"endpoint,omitempty"`
}

// Store reads and writes durable client state under a single directory.
type Store struct {
	dir string
	now func() time.Time
}

// New creates a credential store rooted at dir (typically ~/.luminary).
func New(dir string) *Store {
	return &Store{dir: dir, now: time.Now}
}

// Read returns the persisted token, or ("", false) when no valid token
// exists. Missing, unreadable, corrupt, and expired credentials all read as
// absent; an expired file is removed on the way out.
func (s *Store) Read() (string, bool) {
	data, err := os.ReadFile(s.path(credentialsFile))
	if err != nil {
		return "", false
	}

	var creds credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return "", false
	}

	if creds.Token == "" {
		return "", false
	}

	if !creds.ExpiresAt.IsZero() && s.now().After(creds.ExpiresAt) {
		_ = os.Remove(s.path(credentialsFile))
		return "", false
	}

	return creds.Token, true
}

// Write persists the token with a fresh seven-day expiry. The file is
// user-only readable.
func (s *Store) Write(token string) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return err
	}

	creds := credentials{
		Token:     token,
		ExpiresAt: s.now().Add(TokenTTL),
	}

	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(s.path(credentialsFile), data, 0o600)
}

// Erase removes the persisted credential. Erasing an absent credential is a
// no-op, so logout stays idempotent.
func (s *Store) Erase() error {
	err := os.Remove(s.path(credentialsFile))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// DeviceID returns the stable device identifier, generating and persisting
// one on first use. The identifier survives logout; the service uses it to
// recognize trusted devices.
func (s *Store) DeviceID() string {
	data, err := os.ReadFile(s.path(deviceIDFile))
	if err == nil {
		if id := strings.TrimSpace(string(data)); id != "" {
			return id
		}
	}

	id := uuid.NewString()
	if err := os.MkdirAll(s.dir, 0o700); err == nil {
		_ = os.WriteFile(s.path(deviceIDFile), []byte(id+"\n"), 0o600)
	}
	return id
}

// PushSubscribed reports the locally recorded push-subscription intent and
// the endpoint it was registered with.
func (s *Store) PushSubscribed() (bool, string) {
	data, err := os.ReadFile(s.path(pushStateFile))
	if err != nil {
		return false, ""
	}

	var state pushState
	if err := json.Unmarshal(data, &state); err != nil {
		return false, ""
	}
	return state.Subscribed, state.Endpoint
}

// SetPushSubscribed records the push-subscription intent.
func (s *Store) SetPushSubscribed(subscribed bool, endpoint string) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(pushState{Subscribed: subscribed, Endpoint: endpoint}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path(pushStateFile), data, 0o600)
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name)
}
