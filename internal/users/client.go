package users

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/homedesigner/auth_service/internal/models"
)

const maxErrorBody = 4 << 10

// Client is a Directory backed by the user-management HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

var _ Directory = (*Client)(nil)

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) CreateUser(ctx context.Context, attrs models.CreateUser) (models.User, error) {
	const op = "users.CreateUser"

	var user models.User
	if err := c.post(ctx, "/users", attrs, &user); err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

func (c *Client) AuthenticateUser(ctx context.Context, email, password string) (models.User, error) {
	const op = "users.AuthenticateUser"

	var user models.User
	creds := models.Credentials{Email: email, Password: password}
	if err := c.post(ctx, "/signin", creds, &user); err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// decodeError accepts both {"message": ...} and {"error": ...} bodies.
func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	msg := ""
	if json.Unmarshal(raw, &body) == nil {
		msg = body.Message
		if msg == "" {
			msg = body.Error
		}
	}

	return &Error{Status: resp.StatusCode, Message: msg}
}
