package api

import "context"

// PushKeys carries the subscription encryption keys. The client treats them
// as opaque; generation and use are the delivery service's concern.
type PushKeys struct {
	P256dh string `json:"p256dh"`
	Auth   string `json:"auth"`
}

// Subscribe registers this device's push endpoint.
func (c *Client) Subscribe(ctx context.Context, endpoint string, keys PushKeys) error {
	req := map[string]any{
		"endpoint": endpoint,
		"keys":     keys,
	}
	return c.do(ctx, "POST", "/api/push/subscribe", req, nil)
}

// Unsubscribe removes this device's push endpoint.
func (c *Client) Unsubscribe(ctx context.Context, endpoint string) error {
	req := map[string]string{"endpoint": endpoint}
	return c.do(ctx, "POST", "/api/push/unsubscribe", req, nil)
}

// SendToAll broadcasts a notification to every subscribed device.
func (c *Client) SendToAll(ctx context.Context, title, body string) error {
	req := map[string]string{"title": title, "body": body}
	return c.do(ctx, "POST", "/api/push/send-all", req, nil)
}

// SendToUser sends a notification to one user's devices.
func (c *Client) SendToUser(ctx context.Context, userID, title, body string) error {
	req := map[string]string{"title": title, "body": body}
	return c.do(ctx, "POST", "/api/push/send/"+userID, req, nil)
}
