package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"aura/internal/models"
)

const sessionCookieName = "session_token"

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("aura: %d %s", e.Status, e.Message)
}

// Client calls the Aura REST API. It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

// New returns a client for the server at baseURL. A nil httpClient uses a
// client with a 15 second timeout.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// SetToken sets the session token sent with every request.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the current session token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// do sends a JSON request and decodes a JSON answer into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("client: encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("client: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: token})
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("client: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var payload struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil && payload.Error != "" {
			apiErr.Message = payload.Error
		}
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("client: decode %s %s: %w", method, path, err)
	}
	return nil
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, email, username, password string) (*models.User, error) {
	var u models.User
	body := map[string]string{"email": email, "username": username, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/register", body, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Login opens a session and keeps its token.
func (c *Client) Login(ctx context.Context, login, password string) (*models.LoginResult, error) {
	var res models.LoginResult
	body := map[string]string{"login": login, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", body, &res); err != nil {
		return nil, err
	}
	c.SetToken(res.Token)
	return &res, nil
}

// Logout ends the session and forgets the token.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
	c.SetToken("")
	return err
}

// Me returns the authenticated user.
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var u models.User
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}
