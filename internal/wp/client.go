// Package wp is a minimal WordPress REST API client covering the surface the
// row pipeline needs: posts, taxonomy terms, and media uploads. Authentication
// uses an application password over HTTP basic auth.
package wp

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

	"github.com/sethvargo/go-retry"
)

// ErrNotFound is returned for point lookups that resolve to no resource.
var ErrNotFound = errors.New("resource not found")

// Compile-time interface check
var _ API = (*Client)(nil)

// API defines the remote operations used by the sync pipeline.
// This abstraction enables testing without a live WordPress site.
type API interface {
	Ping(ctx context.Context) error
	ListPosts(ctx context.Context, q PostQuery) ([]Post, error)
	GetPost(ctx context.Context, id int) (*Post, error)
	CreatePost(ctx context.Context, payload map[string]any) (*Post, error)
	UpdatePost(ctx context.Context, id int, payload map[string]any) (*Post, error)
	ListTerms(ctx context.Context, taxonomy, search string) ([]Term, error)
	CreateTerm(ctx context.Context, taxonomy, name string) (*Term, error)
	UploadMedia(ctx context.Context, filename, mimeType string, data []byte) (*Media, error)
}

// APIError is a non-2xx response from the site, carrying the response body
// so row outcomes can surface the server's explanation.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	body := e.Body
	if len(body) > 500 {
		body = body[:500]
	}
	return fmt.Sprintf("wordpress api: HTTP %d: %s", e.StatusCode, body)
}

// Client talks to a single WordPress site. It is safe for concurrent use,
// but each batch invocation should own its own instance.
type Client struct {
	baseURL     string
	username    string
	appPassword string
	httpClient  *http.Client
	maxRetries  uint64
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout ceiling.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// NewClient creates a client for the WordPress site at baseURL
// (scheme and host, without the /wp-json suffix).
func NewClient(baseURL, username, appPassword string, opts ...Option) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		username:    username,
		appPassword: appPassword,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		maxRetries: 2,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// apiURL builds a wp/v2 endpoint URL with query parameters.
func (c *Client) apiURL(path string, query url.Values) string {
	u := c.baseURL + "/wp-json/wp/v2" + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// Ping verifies the site's REST API is reachable with the configured
// credentials. It is the batch driver's connectivity probe.
func (c *Client) Ping(ctx context.Context) error {
	q := url.Values{}
	q.Set("per_page", "1")
	var posts []Post
	if err := c.getJSON(ctx, c.apiURL("/posts", q), &posts); err != nil {
		return fmt.Errorf("site unreachable: %w", err)
	}
	return nil
}

// getJSON performs an authenticated GET and decodes the JSON response.
// Read-only calls are retried on 429 and 5xx with exponential backoff;
// writes never retry so a timed-out create cannot double-post.
func (c *Client) getJSON(ctx context.Context, rawURL string, out any) error {
	backoff := retry.WithMaxRetries(c.maxRetries, retry.NewExponential(500*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return err
		}
		if err := c.send(req, out); err != nil {
			var apiErr *APIError
			if errors.As(err, &apiErr) && retryableStatus(apiErr.StatusCode) {
				return retry.RetryableError(err)
			}
			return err
		}
		return nil
	})
}

// postJSON performs an authenticated POST with a JSON body.
func (c *Client) postJSON(ctx context.Context, rawURL string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.send(req, out)
}

// send executes a request with basic auth and decodes a JSON response into out.
func (c *Client) send(req *http.Request, out any) error {
	req.SetBasicAuth(c.username, c.appPassword)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}
