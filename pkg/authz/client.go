package authz

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const DefaultTimeout = 5 * time.Second

// Client is a Checker that asks auth_service over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

var _ Checker = (*Client)(nil)

// NewClient returns a Client for the auth routes mounted at baseURL,
// e.g. "http://auth:8080/auth". A non-positive timeout means DefaultTimeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) IsAuthenticated(ctx context.Context, userID, accessToken string, allowedRoles []Role) (bool, error) {
	const op = "authz.IsAuthenticated"

	payload, err := json.Marshal(StatusRequest{AccessToken: accessToken, AllowedRoles: allowedRoles})
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	endpoint := c.baseURL + "/status/" + url.PathEscape(userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("%s: unexpected status %d", op, resp.StatusCode)
	}

	var status StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return status.IsAuthenticated, nil
}
