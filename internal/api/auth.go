package api

import (
	"context"

	"github.com/luminary-app/luminary/internal/session"
)

// authPayload is the nested token+user body shared by the login
// (trusted-device path) and OTP-verification responses.
type authPayload struct {
	Token string        `json:"token"`
	User  *session.User `json:"user"`
}

// loginEnvelope is the login response. A null payload signals that an OTP
// challenge was issued instead of a token.
type loginEnvelope struct {
	Payload *authPayload `json:"payload"`
}

// LoginResult is the outcome of a credential submission. Exactly one of the
// two shapes applies: a direct authentication (trusted device) carrying
// token and user, or an issued challenge carrying neither.
type LoginResult struct {
	Token           string
	User            *session.User
	ChallengeIssued bool
}

// Login submits credentials. The service either answers with token+user
// (this device is trusted) or with an empty payload after emailing an OTP.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	req := map[string]string{
		"email":    email,
		"password": password,
	}

	var envelope loginEnvelope
	if err := c.do(ctx, "POST", "/api/auth/login", req, &envelope); err != nil {
		return nil, err
	}

	if envelope.Payload == nil {
		return &LoginResult{ChallengeIssued: true}, nil
	}

	return &LoginResult{
		Token: envelope.Payload.Token,
		User:  envelope.Payload.User,
	}, nil
}

// Register creates a new account.
func (c *Client) Register(ctx context.Context, name, email, password string) error {
	req := map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	}
	return c.do(ctx, "POST", "/api/auth/register", req, nil)
}

// VerifyOTP submits the emailed one-time code. On success the response
// carries token and user; trustDevice asks the service to skip the OTP step
// on this device for the trusted-device window.
func (c *Client) VerifyOTP(ctx context.Context, email, otpCode string, trustDevice bool) (string, *session.User, error) {
	req := map[string]any{
		"email":       email,
		"otpCode":     otpCode,
		"trustDevice": trustDevice,
	}

	var envelope loginEnvelope
	if err := c.do(ctx, "POST", "/api/auth/verify-otp", req, &envelope); err != nil {
		return "", nil, err
	}

	if envelope.Payload == nil {
		return "", nil, &Error{Status: 502, Message: "verification succeeded but no token was returned"}
	}

	return envelope.Payload.Token, envelope.Payload.User, nil
}

// ResendOTP asks the service to email a fresh code.
func (c *Client) ResendOTP(ctx context.Context, email string) error {
	req := map[string]string{"email": email}
	return c.do(ctx, "POST", "/api/auth/resend-otp", req, nil)
}

// OAuthLoginURL returns the provider authorization URL the browser is sent
// to. The redirect back carries the token as a query value.
func (c *Client) OAuthLoginURL(provider string) string {
	return c.baseURL + "/oauth2/authorization/" + provider
}
