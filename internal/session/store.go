// Package session owns the process-wide authentication state: the bearer
// token, the user profile, and the pending-verification marker. It is the
// single source of truth for "are we logged in".
//
// The in-memory token and the persisted credential never diverge: every
// mutation mirrors to the credential store inside the same critical section,
// so there is no observable gap between a call and its durable effect.
package session

import (
	"sync"

	"github.com/luminary-app/luminary/internal/credstore"
	"github.com/luminary-app/luminary/internal/log"
)

// User is the profile record of the authenticated account.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
}

// Snapshot is an immutable view of the session at one point in time.
type Snapshot struct {
	Token        string
	User         *User
	PendingEmail string
	Loading      bool
}

// Authenticated reports whether the snapshot carries a token.
func (s Snapshot) Authenticated() bool {
	return s.Token != ""
}

// Store holds the session state behind a mutex.
//
// All mutation funnels through the named operations below; the auth flow and
// the bootstrap never read-modify-write fields directly. The epoch counter
// increments on logout so in-flight operations can detect that their result
// belongs to a session that no longer exists.
type Store struct {
	mu sync.Mutex

	creds  *credstore.Store
	logger *log.Logger

	token        string
	user         *User
	pendingEmail string
	loading      bool
	epoch        uint64
	hydrated     bool

	subscribers []func(Snapshot)
	navigate    func()
}

// New creates a Store and synchronously hydrates it from the credential
// store. Hydration happens exactly once, before the store is visible to any
// caller, so no auth decision can observe a pre-hydration blank.
func New(creds *credstore.Store, logger *log.Logger) *Store {
	s := &Store{
		creds:  creds,
		logger: logger,
	}

	if token, ok := creds.Read(); ok {
		s.token = token
	}
	s.hydrated = true

	return s
}

// Hydrated reports whether startup hydration has completed. It is the
// readiness gate the bootstrap checks before making any redirect decision.
func (s *Store) Hydrated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hydrated
}

// SetNavigateToLogin registers the hook invoked when a logout forces the
// application back to the login entry point.
func (s *Store) SetNavigateToLogin(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.navigate = fn
}

// Subscribe registers fn to run after every state mutation with a snapshot
// of the new state. Callbacks run outside the store lock.
func (s *Store) Subscribe(fn func(Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// Token returns the current bearer token, or "" when anonymous.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// SetToken sets the bearer token. A non-empty token is persisted with a
// fresh expiry and clears any pending-verification marker in the same
// operation; an empty token erases the persisted credential.
func (s *Store) SetToken(token string) {
	s.mu.Lock()
	s.applyToken(token)
	snap, subs := s.snapshotLocked()
	s.mu.Unlock()

	notify(snap, subs)
}

// applyToken mutates token state. Callers hold s.mu.
func (s *Store) applyToken(token string) {
	if token != "" {
		if err := s.creds.Write(token); err != nil {
			s.logger.WithError(err).Warn("failed to persist credential; session will not survive restart")
		}
		s.pendingEmail = ""
	} else {
		if err := s.creds.Erase(); err != nil {
			s.logger.WithError(err).Warn("failed to erase persisted credential")
		}
	}
	s.token = token
}

// User returns the profile, or nil when none is loaded. When the token is
// absent any lingering profile is treated as absent too; a stale profile
// must never grant an authorization decision.
func (s *Store) User() *User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == "" {
		return nil
	}
	return s.user
}

// SetUser sets the profile record.
func (s *Store) SetUser(user *User) {
	s.mu.Lock()
	s.user = user
	snap, subs := s.snapshotLocked()
	s.mu.Unlock()

	notify(snap, subs)
}

// PendingEmail returns the email awaiting OTP verification, or "".
func (s *Store) PendingEmail() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pendingEmail
}

// SetPendingEmail records (or clears) the email awaiting verification.
func (s *Store) SetPendingEmail(email string) {
	s.mu.Lock()
	s.pendingEmail = email
	snap, subs := s.snapshotLocked()
	s.mu.Unlock()

	notify(snap, subs)
}

// Loading returns the transient busy flag.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// SetLoading sets the transient busy flag. It is never persisted.
func (s *Store) SetLoading(loading bool) {
	s.mu.Lock()
	s.loading = loading
	snap, subs := s.snapshotLocked()
	s.mu.Unlock()

	notify(snap, subs)
}

// ApplyAuth commits a successful authentication in one atomic operation:
// token persisted and set, then user, then pending email cleared. A
// concurrent observer sees either the fully pending or the fully
// authenticated state, never a user without a token.
func (s *Store) ApplyAuth(token string, user *User) {
	s.mu.Lock()
	s.applyToken(token)
	s.user = user
	s.pendingEmail = ""
	snap, subs := s.snapshotLocked()
	s.mu.Unlock()

	notify(snap, subs)
}

// Epoch returns the logout generation counter. Flow operations capture it
// before a network call and discard their result if it changed, so a slow
// success cannot resurrect a session that was logged out mid-flight.
func (s *Store) Epoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

// Logout tears the session down: the persisted credential is erased, all
// in-memory state is cleared, the epoch advances, and the application is
// sent back to the login entry point. Calling it twice is harmless.
func (s *Store) Logout() {
	s.mu.Lock()
	if err := s.creds.Erase(); err != nil {
		s.logger.WithError(err).Warn("failed to erase persisted credential on logout")
	}
	s.token = ""
	s.user = nil
	s.pendingEmail = ""
	s.loading = false
	s.epoch++
	navigate := s.navigate
	snap, subs := s.snapshotLocked()
	s.mu.Unlock()

	notify(snap, subs)

	if navigate != nil {
		navigate()
	}
}

// Snapshot returns a consistent view of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, _ := s.snapshotLocked()
	return snap
}

// snapshotLocked builds a snapshot and copies the subscriber list. Callers
// hold s.mu.
func (s *Store) snapshotLocked() (Snapshot, []func(Snapshot)) {
	snap := Snapshot{
		Token:        s.token,
		PendingEmail: s.pendingEmail,
		Loading:      s.loading,
	}
	if s.token != "" && s.user != nil {
		u := *s.user
		snap.User = &u
	}

	subs := make([]func(Snapshot), len(s.subscribers))
	copy(subs, s.subscribers)
	return snap, subs
}

func notify(snap Snapshot, subs []func(Snapshot)) {
	for _, fn := range subs {
		fn(snap)
	}
}
