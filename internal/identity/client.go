// Package identity is the HTTP client for the external identity service,
// the source of truth for employee emails, roles and credentials.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/eaglebank/personnel-service/shared/models"
)

const contentTypeJSON = "application/json"

var (
	// ErrUserNotFound is returned by GetUser when the service answers 404.
	ErrUserNotFound = errors.New("identity: user not found")
	// ErrUnavailable wraps transport failures reaching the service.
	ErrUnavailable = errors.New("identity: service unavailable")
)

// StatusError is a non-2xx answer from the identity service.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("identity: unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("identity: unexpected status %d: %s", e.StatusCode, e.Message)
}

// CreateUserRequest is the body sent when creating an identity.
type CreateUserRequest struct {
	ID       string        `json:"id"`
	Emails   []string      `json:"emails"`
	Roles    []models.Role `json:"roles"`
	Password string        `json:"password"`
}

// UpdateUserRequest is a partial identity update; unset fields are omitted.
type UpdateUserRequest struct {
	Emails   []string      `json:"emails,omitempty"`
	Roles    []models.Role `json:"roles,omitempty"`
	Password *string       `json:"password,omitempty"`
}

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	tr := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP: &http.Client{
			Timeout:   timeout,
			Transport: tr,
		},
	}
}

func (c *Client) ListUsers(ctx context.Context, token string) ([]models.IdentityUser, error) {
	users := []models.IdentityUser{}
	if err := c.do(ctx, http.MethodGet, "/users/", token, nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *Client) GetUser(ctx context.Context, id, token string) (*models.IdentityUser, error) {
	var user models.IdentityUser
	err := c.do(ctx, http.MethodGet, userPath(id), token, nil, &user)
	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) CreateUser(ctx context.Context, req CreateUserRequest, token string) (*models.IdentityUser, error) {
	var user models.IdentityUser
	if err := c.do(ctx, http.MethodPost, "/users/", token, req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) UpdateUser(ctx context.Context, id string, req UpdateUserRequest, token string) (*models.IdentityUser, error) {
	var user models.IdentityUser
	if err := c.do(ctx, http.MethodPatch, userPath(id), token, req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) DeleteUser(ctx context.Context, id, token string) error {
	return c.do(ctx, http.MethodDelete, userPath(id), token, nil, nil)
}

func userPath(id string) string {
	return "/users/" + url.PathEscape(id)
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("identity: encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("identity: build request: %w", err)
	}
	req.Header.Set("Accept", contentTypeJSON)
	if body != nil {
		req.Header.Set("Content-Type", contentTypeJSON)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{StatusCode: resp.StatusCode, Message: readMessage(resp.Body)}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("identity: decode %s %s response: %w", method, path, err)
	}
	return nil
}

// readMessage pulls the "message" field out of an error body when there is one.
func readMessage(r io.Reader) string {
	b, err := io.ReadAll(io.LimitReader(r, 4<<10))
	if err != nil || len(b) == 0 {
		return ""
	}
	var payload struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(b, &payload) == nil && payload.Message != "" {
		return payload.Message
	}
	return strings.TrimSpace(string(b))
}
