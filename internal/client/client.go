// Package client talks to the indexing backend over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	perrors "github.com/Aman-CERP/indexpanel/internal/errors"
	"github.com/Aman-CERP/indexpanel/pkg/version"
)

const (
	// DefaultBaseURL is the backend a local development server listens on.
	DefaultBaseURL = "http://localhost:9090"

	// maxResponseBytes caps how much of a response body is read.
	maxResponseBytes = 1 << 20

	idleConnTimeout = 10 * time.Second
)

// Config configures a Client.
type Config struct {
	// BaseURL is the backend root, e.g. http://localhost:9090.
	BaseURL string

	// HTTPClient overrides the default client. Tests pass httptest clients here.
	HTTPClient *http.Client

	Logger *slog.Logger
}

// Client is an HTTP client for the /ws/indexes API.
type Client struct {
	base   *url.URL
	http   *http.Client
	logger *slog.Logger
}

// New creates a client for cfg.BaseURL.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, perrors.ConfigError(fmt.Sprintf("invalid server url %q", cfg.BaseURL), err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, perrors.ConfigError(fmt.Sprintf("invalid server url %q: scheme must be http or https", cfg.BaseURL), nil)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		// No client-wide Timeout: request contexts carry the deadline.
		httpClient = &http.Client{
			Transport: &http.Transport{
				Proxy:           http.ProxyFromEnvironment,
				IdleConnTimeout: idleConnTimeout,
			},
		}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{base: base, http: httpClient, logger: logger}, nil
}

// BaseURL returns the backend root the client talks to.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// Submit posts body to the indexing endpoint of schema/index and returns
// the number of records the backend indexed.
func (c *Client) Submit(ctx context.Context, schema, index string, body json.RawMessage) (int64, error) {
	endpoint := c.endpoint("ws", "indexes", schema, index, "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, perrors.InternalError("failed to create request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/plain")

	payload, err := c.do(req)
	if err != nil {
		return 0, err
	}

	count, ok := parseCount(payload)
	if !ok {
		return 0, perrors.BackendError(fmt.Sprintf("unexpected response: %s", strings.TrimSpace(string(payload))), nil).
			WithDetail("endpoint", endpoint)
	}
	return count, nil
}

// getJSON fetches a read-only resource and returns its raw body.
func (c *Client) getJSON(ctx context.Context, segments ...string) ([]byte, error) {
	endpoint := c.endpoint(segments...)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, perrors.InternalError("failed to create request", err)
	}
	req.Header.Set("Accept", "application/json")

	return c.do(req)
}

// do sends req and maps transport and status failures to PanelErrors.
func (c *Client) do(req *http.Request) ([]byte, error) {
	start := time.Now()
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, perrors.NetworkError(err.Error(), ctxErr)
		}
		return nil, perrors.NetworkError(err.Error(), err).
			WithSuggestion(fmt.Sprintf("Check that the backend is running at %s", c.base))
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, perrors.NetworkError(fmt.Sprintf("failed to read response: %v", err), err)
	}

	c.logger.Debug("backend_request",
		slog.String("method", req.Method),
		slog.String("path", req.URL.EscapedPath()),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, perrors.BackendError(errorText(payload, resp.StatusCode), nil).
			WithDetail("status", strconv.Itoa(resp.StatusCode)).
			WithDetail("path", req.URL.EscapedPath())
	}
	return payload, nil
}

// endpoint joins escaped path segments onto the base URL.
func (c *Client) endpoint(segments ...string) string {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	u := *c.base
	u.Path = strings.TrimRight(c.base.Path, "/") + "/" + strings.Join(segments, "/")
	u.RawPath = strings.TrimRight(c.base.EscapedPath(), "/") + "/" + strings.Join(escaped, "/")
	return u.String()
}

// parseCount accepts a bare non-negative decimal integer.
func parseCount(payload []byte) (int64, bool) {
	s := strings.TrimSpace(string(payload))
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// errorText extracts the message to show for a failed response.
func errorText(payload []byte, status int) string {
	text := strings.TrimSpace(string(payload))
	if text == "" {
		if st := http.StatusText(status); st != "" {
			return st
		}
		return fmt.Sprintf("HTTP %d", status)
	}

	var body struct {
		Message *string `json:"message"`
		Error   *string `json:"error"`
	}
	if json.Unmarshal(payload, &body) == nil {
		if body.Message != nil && *body.Message != "" {
			return *body.Message
		}
		if body.Error != nil && *body.Error != "" {
			return *body.Error
		}
	}
	return text
}
