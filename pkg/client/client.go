// Package client is the typed HTTP SDK for the burger API. It is used by the
// CLI and by end to end tests.
//
// Every method accepts a context for cancellation and trace propagation.
// Non-2xx responses are returned as *APIError, which matches the sentinel
// errors of package burger under errors.Is.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	otelapi "go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"burgerapi/pkg/burger"
)

const (
	defaultTimeout = 10 * time.Second
	burgersPath    = "/api/burgers"
)

// Config holds the client configuration.
type Config struct {
	// BaseURL is the root URL of the API, e.g. "http://localhost:8080".
	BaseURL string

	// Timeout bounds each request. Defaults to 10 seconds.
	Timeout time.Duration

	// HTTPClient overrides the transport. Timeout is ignored when it is set.
	HTTPClient *http.Client
}

// Client talks to the burger API.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a Client.
func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("client: BaseURL is required")
	}
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = defaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{baseURL: base, http: hc}, nil
}

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, http.StatusText(e.Status), e.Message)
}

// Unwrap maps the status to the matching burger sentinel, if any.
func (e *APIError) Unwrap() error {
	switch {
	case e.Status == http.StatusNotFound:
		return burger.ErrNotFound
	case e.Status == http.StatusConflict:
		return burger.ErrConflict
	case e.Status == http.StatusBadRequest && strings.Contains(e.Message, burger.ErrIDMismatch.Error()):
		return burger.ErrIDMismatch
	}
	return nil
}

// List returns every burger.
func (c *Client) List(ctx context.Context) ([]burger.Burger, error) {
	var out []burger.Burger
	if _, err := c.do(ctx, http.MethodGet, burgersPath, nil, nil, &out); err != nil {
		return nil, fmt.Errorf("listing burgers: %w", err)
	}
	return out, nil
}

// Get returns the burger and its ETag.
func (c *Client) Get(ctx context.Context, id int64) (burger.Burger, string, error) {
	var out burger.Burger
	h, err := c.do(ctx, http.MethodGet, itemPath(id), nil, nil, &out)
	if err != nil {
		return burger.Burger{}, "", fmt.Errorf("getting burger %d: %w", id, err)
	}
	return out, h.Get("ETag"), nil
}

// Create stores b and returns the persisted record and its ETag.
func (c *Client) Create(ctx context.Context, b burger.Burger) (burger.Burger, string, error) {
	var out burger.Burger
	h, err := c.do(ctx, http.MethodPost, burgersPath, b, nil, &out)
	if err != nil {
		return burger.Burger{}, "", fmt.Errorf("creating burger: %w", err)
	}
	return out, h.Get("ETag"), nil
}

// Update replaces the burger addressed by b.ID and returns the new ETag.
// When etag is non-empty it is sent as If-Match and a stale value fails with burger.ErrConflict.
func (c *Client) Update(ctx context.Context, b burger.Burger, etag string) (string, error) {
	return c.UpdateAt(ctx, b.ID, b, etag)
}

// UpdateAt is Update with an explicit path id, which may differ from b.ID.
func (c *Client) UpdateAt(ctx context.Context, id int64, b burger.Burger, etag string) (string, error) {
	var headers map[string]string
	if etag != "" {
		headers = map[string]string{"If-Match": etag}
	}
	h, err := c.do(ctx, http.MethodPut, itemPath(id), b, headers, nil)
	if err != nil {
		return "", fmt.Errorf("updating burger %d: %w", id, err)
	}
	return h.Get("ETag"), nil
}

// Delete removes a burger and returns it.
func (c *Client) Delete(ctx context.Context, id int64) (burger.Burger, error) {
	var out burger.Burger
	if _, err := c.do(ctx, http.MethodDelete, itemPath(id), nil, nil, &out); err != nil {
		return burger.Burger{}, fmt.Errorf("deleting burger %d: %w", id, err)
	}
	return out, nil
}

func itemPath(id int64) string {
	return burgersPath + "/" + strconv.FormatInt(id, 10)
}

func (c *Client) do(ctx context.Context, method, path string, in any, headers map[string]string, out any) (http.Header, error) {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	otelapi.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, parseError(resp.StatusCode, raw)
	}
	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return nil, fmt.Errorf("decoding response: %w", err)
		}
	}
	return resp.Header, nil
}

func parseError(status int, raw []byte) *APIError {
	var body struct {
		Error string `json:"error"`
	}
	msg := strings.TrimSpace(string(raw))
	if err := json.Unmarshal(raw, &body); err == nil && body.Error != "" {
		msg = body.Error
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &APIError{Status: status, Message: msg}
}
