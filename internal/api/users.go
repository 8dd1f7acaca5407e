package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/luminary-app/luminary/internal/session"
)

// profileEnvelope tolerates the service's two profile envelope shapes,
// {payload: user} and {data: user}; older deployments also return the bare
// user object. Normalized here so nothing above this layer branches on
// transport shape.
type profileEnvelope struct {
	Payload *session.User `json:"payload"`
	Data    *session.User `json:"data"`
}

// GetProfile fetches the authenticated user's profile.
func (c *Client) GetProfile(ctx context.Context) (*session.User, error) {
	var raw json.RawMessage
	if err := c.do(ctx, "GET", "/api/users/me", nil, &raw); err != nil {
		return nil, err
	}
	return normalizeProfile(raw)
}

func normalizeProfile(raw json.RawMessage) (*session.User, error) {
	var envelope profileEnvelope
	if err := json.Unmarshal(raw, &envelope); err == nil {
		if envelope.Payload != nil {
			return envelope.Payload, nil
		}
		if envelope.Data != nil {
			return envelope.Data, nil
		}
	}

	var user session.User
	if err := json.Unmarshal(raw, &user); err != nil || user.ID == "" {
		return nil, fmt.Errorf("unrecognized profile response shape")
	}
	return &user, nil
}

// ProfilePatch is a partial profile update; nil fields are left unchanged.
type ProfilePatch struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
}

// UpdateProfile applies a partial update and returns the updated profile.
func (c *Client) UpdateProfile(ctx context.Context, patch ProfilePatch) (*session.User, error) {
	var raw json.RawMessage
	if err := c.do(ctx, "PUT", "/api/users/me", patch, &raw); err != nil {
		return nil, err
	}
	return normalizeProfile(raw)
}

// DeleteAccount permanently deletes the authenticated account.
func (c *Client) DeleteAccount(ctx context.Context) error {
	return c.do(ctx, "DELETE", "/api/users/me", nil, nil)
}

// usersEnvelope tolerates both a bare array and a {payload: [...]} wrapper.
type usersEnvelope struct {
	Payload []session.User `json:"payload"`
}

// ListUsers returns all users. Privileged; the service enforces the role.
func (c *Client) ListUsers(ctx context.Context) ([]session.User, error) {
	var raw json.RawMessage
	if err := c.do(ctx, "GET", "/api/users", nil, &raw); err != nil {
		return nil, err
	}

	var users []session.User
	if err := json.Unmarshal(raw, &users); err == nil {
		return users, nil
	}

	var envelope usersEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("unrecognized users response shape")
	}
	return envelope.Payload, nil
}
