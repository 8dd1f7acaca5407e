// Package authflow orchestrates the client-side authentication state
// machine: credential submission, the optional OTP challenge, trusted-device
// short-circuiting, OAuth redirect absorption, and logout.
//
// States are never stored separately; they derive from the session store,
// so the flow and every view agree on where the machine stands:
//
//	Anonymous -> credentials submitted -> {OTPPending | Authenticated}
//	OTPPending -> {Authenticated | Anonymous (abandon)}
//	Authenticated -> Anonymous (logout or token invalidation)
//
// Each transition runs to completion before the next is allowed to mutate
// state; callers enforce this by disabling the triggering control while a
// transition's network call is outstanding (the store's loading flag). A
// network failure leaves the machine in its prior stable state — nothing is
// half-written, and nothing is retried automatically.
package authflow

import (
	"context"
	"net/url"

	"github.com/luminary-app/luminary/internal/api"
	"github.com/luminary-app/luminary/internal/errors"
	"github.com/luminary-app/luminary/internal/log"
	"github.com/luminary-app/luminary/internal/session"
)

// State is the current position of the authentication state machine.
type State int

const (
	// StateAnonymous means no token and no pending challenge.
	StateAnonymous State = iota
	// StateOTPPending means credentials were accepted and a code was emailed.
	StateOTPPending
	// StateAuthenticated means a token exists.
	StateAuthenticated
)

// String returns the state name for logging.
func (s State) String() string {
	switch s {
	case StateOTPPending:
		return "otp_pending"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "anonymous"
	}
}

// LoginOutcome distinguishes the two success shapes of a login submission.
type LoginOutcome int

const (
	// LoginAuthenticated means the device was trusted and a token arrived.
	LoginAuthenticated LoginOutcome = iota
	// LoginOTPSent means a challenge was issued; verification must follow.
	LoginOTPSent
)

// Controller drives authentication transitions against the session store.
type Controller struct {
	api    *api.Client
	store  *session.Store
	logger *log.Logger
}

// New creates a Controller.
func New(client *api.Client, store *session.Store, logger *log.Logger) *Controller {
	return &Controller{
		api:    client,
		store:  store,
		logger: logger,
	}
}

// State derives the machine's position from the session store. A token wins
// over a pending email; the store's invariants make the pair mutually
// exclusive anyway.
func (c *Controller) State() State {
	snap := c.store.Snapshot()
	switch {
	case snap.Token != "":
		return StateAuthenticated
	case snap.PendingEmail != "":
		return StateOTPPending
	default:
		return StateAnonymous
	}
}

// SubmitLogin submits credentials. Exactly one of three things happens: a
// direct authentication (trusted device), a recorded OTP challenge, or an
// error with no state mutation at all.
func (c *Controller) SubmitLogin(ctx context.Context, email, password string) (LoginOutcome, error) {
	epoch := c.store.Epoch()
	c.store.SetLoading(true)
	defer c.store.SetLoading(false)

	result, err := c.api.Login(ctx, email, password)
	if err != nil {
		return 0, err
	}

	if epoch != c.store.Epoch() {
		// A logout cleared the session while the call was in flight; the
		// result belongs to a session that no longer exists.
		c.logger.Debug("discarding login result from superseded session")
		return 0, errors.New(errors.ErrCodeSessionSuperseded, "login was interrupted, please try again")
	}

	if result.ChallengeIssued {
		c.store.SetPendingEmail(email)
		c.logger.Info("otp challenge issued", "email", email)
		return LoginOTPSent, nil
	}

	c.store.ApplyAuth(result.Token, result.User)
	c.logger.Info("authenticated via trusted device")
	return LoginAuthenticated, nil
}

// Register creates a new account. Registration never authenticates on its
// own; the user signs in afterwards and goes through the usual challenge.
func (c *Controller) Register(ctx context.Context, name, email, password string) error {
	c.store.SetLoading(true)
	defer c.store.SetLoading(false)

	if err := c.api.Register(ctx, name, email, password); err != nil {
		return err
	}

	c.logger.Info("account registered", "email", email)
	return nil
}

// VerifyOTP submits the entered code for the pending email. On success the
// session commits token, then user, then clears the pending marker, in one
// atomic operation. On failure the flow stays in OTPPending; the caller
// clears the entered digits and the user retries without re-submitting
// credentials.
func (c *Controller) VerifyOTP(ctx context.Context, code string, trustDevice bool) error {
	email := c.store.PendingEmail()
	if email == "" {
		return errors.NewNoPendingEmailError()
	}
	if len(code) != OTPLength {
		return errors.NewOTPIncompleteError(OTPLength)
	}

	epoch := c.store.Epoch()
	c.store.SetLoading(true)
	defer c.store.SetLoading(false)

	token, user, err := c.api.VerifyOTP(ctx, email, code, trustDevice)
	if err != nil {
		return err
	}

	if epoch != c.store.Epoch() {
		c.logger.Debug("discarding verification result from superseded session")
		return errors.New(errors.ErrCodeSessionSuperseded, "verification was interrupted, please try again")
	}

	c.store.ApplyAuth(token, user)
	c.logger.Info("otp verified", "trust_device", trustDevice)
	return nil
}

// Resend asks for a fresh code. The countdown gates the request locally:
// outside the allowed window no network call is made. On success the
// countdown restarts at the full expiry duration.
func (c *Controller) Resend(ctx context.Context, countdown *Countdown) error {
	email := c.store.PendingEmail()
	if email == "" {
		return errors.NewNoPendingEmailError()
	}
	if !countdown.ResendAllowed() {
		return errors.NewResendThrottledError()
	}

	if err := c.api.ResendOTP(ctx, email); err != nil {
		return err
	}

	countdown.Reset()
	c.logger.Info("otp resent", "email", email)
	return nil
}

// Abandon leaves the OTP flow and returns to Anonymous, clearing only the
// pending marker. Used when the user navigates back to login.
func (c *Controller) Abandon() {
	c.store.SetPendingEmail("")
}

// AbsorbRedirectToken handles an OAuth redirect landing that carries the
// token as a query value instead of a response body. The token is committed
// like a successful verification, the profile is fetched, and the returned
// URL has the token stripped so it is never re-processed or leaked.
//
// The boolean reports whether a token was present at all.
func (c *Controller) AbsorbRedirectToken(ctx context.Context, rawURL string) (string, bool, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL, false, err
	}

	query := parsed.Query()
	token := query.Get("token")
	if token == "" {
		return rawURL, false, nil
	}

	query.Del("token")
	parsed.RawQuery = query.Encode()
	normalized := parsed.String()

	epoch := c.store.Epoch()
	c.store.SetToken(token)
	c.logger.Info("absorbed oauth redirect token")

	user, err := c.api.GetProfile(ctx)
	if err != nil {
		// An invalid token trips the global 401 handler on its own; other
		// failures leave the bootstrap to resolve the missing profile.
		c.logger.WithError(err).Warn("profile fetch after oauth redirect failed")
		return normalized, true, nil
	}

	if epoch == c.store.Epoch() {
		c.store.SetUser(user)
	}

	return normalized, true, nil
}
