package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

var ErrUnavailable = errors.New("auth service unavailable")

// UpstreamError is a non-2xx reply from the auth service.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("auth service returned %d: %s", e.Status, e.Body)
}

// Client resolves bearer tokens through the auth service's /users/me endpoint.
type Client struct {
	MeURL string
	HTTP  *http.Client
}

func NewClient(meURL string, timeout time.Duration) *Client {
	return &Client{MeURL: meURL, HTTP: &http.Client{Timeout: timeout}}
}

func (c *Client) Me(ctx context.Context, token string) (Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.MeURL, nil)
	if err != nil {
		return Identity{}, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return Identity{}, &UpstreamError{Status: resp.StatusCode, Body: string(body)}
	}

	var id Identity
	if err := json.NewDecoder(resp.Body).Decode(&id); err != nil {
		return Identity{}, fmt.Errorf("%w: decode user: %v", ErrUnavailable, err)
	}
	id.Token = token
	return id, nil
}
