// Package api implements the HTTP client for the Item Tracker API.
//
// A single Client wraps every outbound call: it attaches the current session
// token as a bearer credential on the way out, and watches every response on
// the way in. A 401 from any endpoint clears the session, runs the
// registered invalidation hooks (query cache, navigation), and still returns
// the error to the caller.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/NicolasHaas/itemtrack/pkg/session"
)

// Client is the configured request pipeline for one API base URL.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	session        *session.Store
	onUnauthorized []func()
}

// Option configures a Client at construction time.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client (used by tests and for
// custom transports).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// OnUnauthorized registers a hook run synchronously after any response comes
// back 401, after the session has been cleared. Hooks clear caches and force
// navigation back to the login screen; registering them here keeps the
// coupling visible and lets tests inject fakes.
func OnUnauthorized(fn func()) Option {
	return func(c *Client) { c.onUnauthorized = append(c.onUnauthorized, fn) }
}

// NewClient creates a Client for the given base URL, reading and clearing
// session state through sess.
func NewClient(baseURL string, sess *session.Store, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		session:    sess,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get performs a GET request and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

// Post performs a POST request with a JSON body, decoding the response into
// out when out is non-nil.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

// Put performs a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, body, out)
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("api: marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("api: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	// Outbound interception: attach the current token, if any. An empty
	// token sends the request unauthenticated.
	if token := c.session.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("api: %s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	// Inbound interception: a rejected credential invalidates the session
	// globally, no matter which call tripped it.
	if resp.StatusCode == http.StatusUnauthorized {
		c.invalidateSession()
		return readError(resp)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return readError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("api: decode response: %w", err)
	}
	return nil
}

// invalidateSession clears local auth state and runs the registered hooks,
// synchronously, before the triggering error is handed back to the caller.
func (c *Client) invalidateSession() {
	slog.Warn("api: credential rejected by server, signing out")
	c.session.ClearAuth()
	for _, fn := range c.onUnauthorized {
		fn()
	}
}

func readError(resp *http.Response) error {
	apiErr := &Error{StatusCode: resp.StatusCode}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err == nil && len(data) > 0 {
		var body struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if json.Unmarshal(data, &body) == nil {
			if body.Error != "" {
				apiErr.Message = body.Error
			} else {
				apiErr.Message = body.Message
			}
		}
	}
	return apiErr
}
