// Package bootstrap decides, once per launch, whether the application opens
// on the authenticated surface or falls back to the login entry point.
//
// The decision runs strictly after session hydration, so a persisted token is
// never mistaken for an anonymous start. A token without a loaded profile is
// resolved by fetching the profile; if the token turns out to be dead the
// session is torn down rather than presenting a half-authenticated surface.
package bootstrap

import (
	"context"

	"github.com/luminary-app/luminary/internal/api"
	"github.com/luminary-app/luminary/internal/authflow"
	"github.com/luminary-app/luminary/internal/log"
	"github.com/luminary-app/luminary/internal/session"
)

// Decision is the outcome of a bootstrap run.
type Decision int

const (
	// RedirectLogin sends the user to the login entry point.
	RedirectLogin Decision = iota
	// Proceed opens the authenticated surface.
	Proceed
)

// String returns the decision name for logging.
func (d Decision) String() string {
	if d == Proceed {
		return "proceed"
	}
	return "redirect_login"
}

// Bootstrap resolves the launch state of the client.
type Bootstrap struct {
	api    *api.Client
	store  *session.Store
	flow   *authflow.Controller
	logger *log.Logger
}

// New creates a Bootstrap.
func New(client *api.Client, store *session.Store, flow *authflow.Controller, logger *log.Logger) *Bootstrap {
	return &Bootstrap{
		api:    client,
		store:  store,
		flow:   flow,
		logger: logger,
	}
}

// Run makes the launch decision. launchURL, when non-empty, is the URL the
// process was handed at startup (an OAuth redirect landing); any token it
// carries is absorbed before the session is inspected.
//
// The sequence is fixed: wait out hydration, absorb a redirect token, then
// judge the session. No token means login. A token without a profile triggers
// a profile fetch; a fetch failure invalidates the session entirely, because
// an unverifiable token must not unlock the authenticated surface.
func (b *Bootstrap) Run(ctx context.Context, launchURL string) (Decision, error) {
	if !b.store.Hydrated() {
		// Hydration is synchronous in the store constructor, so this only
		// trips on a wiring mistake. Treat it as anonymous rather than guess.
		b.logger.Warn("bootstrap ran before session hydration")
		return RedirectLogin, nil
	}

	if launchURL != "" {
		if _, absorbed, err := b.flow.AbsorbRedirectToken(ctx, launchURL); err != nil {
			b.logger.WithError(err).Warn("ignoring malformed launch url")
		} else if absorbed {
			b.logger.Debug("launch url carried a session token")
		}
	}

	snap := b.store.Snapshot()
	if !snap.Authenticated() {
		return RedirectLogin, nil
	}

	if snap.User != nil {
		return Proceed, nil
	}

	epoch := b.store.Epoch()
	user, err := b.api.GetProfile(ctx)
	if err != nil {
		b.logger.WithError(err).Warn("session token could not be validated")
		b.store.Logout()
		return RedirectLogin, nil
	}

	if epoch != b.store.Epoch() {
		// Logged out while the profile fetch was in flight.
		return RedirectLogin, nil
	}

	b.store.SetUser(user)
	return Proceed, nil
}
