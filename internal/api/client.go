package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// Service defines the subset of the muse API the rest of the application
// consumes. This interface is implemented by *Client and can be used for
// testing.
type Service interface {
	SetupStatus(ctx context.Context) (*SetupStatus, error)
	Ready(ctx context.Context) (*Readiness, error)
	Login(ctx context.Context, username, password string) (*LoginResponse, error)
	CompleteSetup(ctx context.Context, username, password string) (*LoginResponse, error)
	WhoAmI(ctx context.Context) (*User, error)
	FetchWishlist(ctx context.Context, status string) ([]WishlistItem, error)
	FetchDownloads(ctx context.Context, status string) ([]Download, error)
	FetchStats(ctx context.Context) (*Stats, error)
	TriggerSearch(ctx context.Context, id int64) error
}

// Ensure Client implements Service at compile time.
var _ Service = (*Client)(nil)

// Client talks to the muse daemon HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string

	mu    sync.RWMutex
	token string
}

const (
	defaultServerURL = "http://127.0.0.1:8686"
	defaultUserAgent = "aria/0.1"
	requestTimeout   = 10 * time.Second
)

// APIError describes a non-2xx response. The session layer inspects the
// status code to tell an invalid credential apart from a transient failure.
type APIError struct {
	StatusCode int
	Path       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api %s returned status %d", e.Path, e.StatusCode)
}

// AuthFailure reports whether the response indicates a rejected credential.
func (e *APIError) AuthFailure() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// NewClient builds a Client for the given server URL. An empty value uses
// the default local daemon address.
func NewClient(serverURL string) (*Client, error) {
	base, err := parseBaseURL(serverURL)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: requestTimeout,
		},
		userAgent: defaultUserAgent,
	}, nil
}

// SetToken installs the bearer token used on authenticated requests. An
// empty value clears it.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the currently installed bearer token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// SetupStatus calls the unauthenticated first-run probe.
func (c *Client) SetupStatus(ctx context.Context) (*SetupStatus, error) {
	var payload SetupStatus
	if err := c.get(ctx, "/api/system/setup", nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// Ready calls the readiness probe.
func (c *Client) Ready(ctx context.Context) (*Readiness, error) {
	var payload Readiness
	if err := c.get(ctx, "/api/system/ready", nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// Login exchanges credentials for a token and user.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	return c.authPost(ctx, "/api/auth/login", username, password)
}

// CompleteSetup creates the first account during first-run setup.
func (c *Client) CompleteSetup(ctx context.Context, username, password string) (*LoginResponse, error) {
	return c.authPost(ctx, "/api/auth/setup", username, password)
}

func (c *Client) authPost(ctx context.Context, path, username, password string) (*LoginResponse, error) {
	body := map[string]string{"username": username, "password": password}
	var payload LoginResponse
	if err := c.post(ctx, path, body, &payload); err != nil {
		return nil, err
	}
	if strings.TrimSpace(payload.AccessToken) == "" {
		return nil, fmt.Errorf("api %s returned empty token", path)
	}
	return &payload, nil
}

// WhoAmI validates the installed token and returns the current user.
func (c *Client) WhoAmI(ctx context.Context) (*User, error) {
	var payload User
	if err := c.get(ctx, "/api/auth/me", nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// FetchWishlist retrieves wishlist items, optionally filtered by status.
func (c *Client) FetchWishlist(ctx context.Context, status string) ([]WishlistItem, error) {
	values := url.Values{}
	if s := strings.TrimSpace(status); s != "" {
		values.Set("status", s)
	}
	var payload WishlistResponse
	if err := c.get(ctx, "/api/wishlist", values, &payload); err != nil {
		return nil, err
	}
	return payload.Items, nil
}

// FetchDownloads retrieves download items, optionally filtered by status.
func (c *Client) FetchDownloads(ctx context.Context, status string) ([]Download, error) {
	values := url.Values{}
	if s := strings.TrimSpace(status); s != "" {
		values.Set("status", s)
	}
	var payload DownloadsResponse
	if err := c.get(ctx, "/api/downloads", values, &payload); err != nil {
		return nil, err
	}
	return payload.Items, nil
}

// FetchStats retrieves the aggregate queue counters.
func (c *Client) FetchStats(ctx context.Context) (*Stats, error) {
	var payload Stats
	if err := c.get(ctx, "/api/stats", nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// TriggerSearch asks the daemon to start a manual search for a wishlist item.
func (c *Client) TriggerSearch(ctx context.Context, id int64) error {
	path := fmt.Sprintf("/api/wishlist/%d/search", id)
	return c.post(ctx, path, nil, nil)
}

// EventsURL returns the websocket endpoint with the session token embedded
// in the query string; the transport does not support custom headers. The
// result is empty when no token is installed.
func (c *Client) EventsURL() string {
	token := c.Token()
	if token == "" {
		return ""
	}
	rel := &url.URL{Path: "/api/events", RawQuery: url.Values{"token": {token}}.Encode()}
	u := c.baseURL.ResolveReference(rel)
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	return u.String()
}

func (c *Client) get(ctx context.Context, path string, values url.Values, dest any) error {
	rel := &url.URL{Path: path}
	if len(values) > 0 {
		rel.RawQuery = values.Encode()
	}
	return c.doURL(ctx, http.MethodGet, rel, nil, dest)
}

func (c *Client) post(ctx context.Context, path string, body, dest any) error {
	rel := &url.URL{Path: path}
	return c.doURL(ctx, http.MethodPost, rel, body, dest)
}

func (c *Client) doURL(ctx context.Context, method string, rel *url.URL, body, dest any) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	reqURL := c.baseURL.ResolveReference(rel)

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return &APIError{StatusCode: resp.StatusCode, Path: rel.Path}
	}
	if dest == nil {
		return nil
	}
	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func parseBaseURL(serverURL string) (*url.URL, error) {
	trimmed := strings.TrimSpace(serverURL)
	if trimmed == "" {
		trimmed = defaultServerURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse server url %q: %w", serverURL, err)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
