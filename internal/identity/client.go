// Package identity delegates session verification to the external identity
// provider. The core never validates tokens itself: it posts the opaque
// token to the provider's introspection endpoint and receives back a
// verified caller identity or a rejection.
//
// This is a plain HTTP collaborator; no SDK is involved, so the stdlib
// client is used directly.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Identity is the verified caller: an opaque id plus an optional display
// name. The rest of the application treats ID as a capability and never
// inspects it.
type Identity struct {
	ID   string `json:"user_id"`
	Name string `json:"name,omitempty"`
}

// Client verifies tokens against an introspection endpoint.
type Client struct {
	url  string
	http *http.Client
}

// New constructs a Client for the given introspection URL.
func New(url string) *Client {
	return &Client{
		url:  url,
		http: &http.Client{Timeout: 5 * time.Second},
	}
}

// Verify posts the token to the identity provider and returns the verified
// identity. Any non-200 response or transport failure is a verification
// failure.
func (c *Client) Verify(ctx context.Context, token string) (Identity, error) {
	body, err := json.Marshal(map[string]string{"token": token})
	if err != nil {
		return Identity{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return Identity{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Identity{}, fmt.Errorf("identity introspection: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Identity{}, fmt.Errorf("identity introspection: status %d", resp.StatusCode)
	}

	var id Identity
	if err := json.NewDecoder(resp.Body).Decode(&id); err != nil {
		return Identity{}, fmt.Errorf("identity introspection: decode: %w", err)
	}
	if id.ID == "" {
		return Identity{}, fmt.Errorf("identity introspection: empty user id")
	}
	return id, nil
}
