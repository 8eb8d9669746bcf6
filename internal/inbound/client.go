// Package inbound is the typed gateway to the Inbound email API. Every
// component that talks to the upstream service receives a *Client
// explicitly; there is no package-level instance.
package inbound

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/nhle/inboundkit/internal/apperr"
	"github.com/nhle/inboundkit/internal/logging"
	"github.com/nhle/inboundkit/internal/model"
)

// Client is a thin HTTP client for the Inbound REST API. It attaches the
// bearer token to every request and maps non-2xx responses to
// *apperr.UpstreamError. It never retries: a failed call surfaces to the
// caller immediately.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option customizes a Client at construction.
type Option func(*Client)

// WithHTTPClient replaces the default *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a client for the configured API. A missing API key or
// base URL fails here with *apperr.ConfigurationError rather than on the
// first call.
func NewClient(cfg model.InboundConfig, opts ...Option) (*Client, error) {
	var missing []string
	if strings.TrimSpace(cfg.APIKey) == "" {
		missing = append(missing, "inbound.api_key (INBOUND_API_KEY)")
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		missing = append(missing, "inbound.base_url (INBOUND_BASE_URL)")
	}
	if len(missing) > 0 {
		return nil, &apperr.ConfigurationError{Missing: missing}
	}

	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.Timeout()},
		logger:     logging.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// CallOption customizes a single request.
type CallOption func(*http.Request)

// WithIdempotencyKey sets the Idempotency-Key header so the upstream
// service collapses repeated submissions into one.
func WithIdempotencyKey(key string) CallOption {
	return func(r *http.Request) {
		if key != "" {
			r.Header.Set("Idempotency-Key", key)
		}
	}
}

// errorBody is the upstream error envelope.
type errorBody struct {
	Error string `json:"error"`
}

// Do issues one authenticated request. body is JSON-encoded when non-nil;
// the response is decoded into result when result is non-nil.
func (c *Client) Do(
	ctx context.Context,
	method string,
	path string,
	body interface{},
	result interface{},
	opts ...CallOption,
) error {
	url := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, opt := range opts {
		opt(req)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	c.logger.Debug("inbound request",
		"method", method, "path", path, "status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return upstreamError(resp, respBody)
	}

	if result == nil || resp.StatusCode == http.StatusNoContent || len(respBody) == 0 {
		return nil
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("unmarshaling response from %s %s: %w", method, path, err)
	}

	return nil
}

// upstreamError builds an UpstreamError from a non-2xx response, using the
// body's "error" field when present and the status line otherwise.
func upstreamError(resp *http.Response, body []byte) error {
	msg := ""
	var eb errorBody
	if json.Unmarshal(body, &eb) == nil {
		msg = eb.Error
	}
	if msg == "" {
		msg = resp.Status
		if msg == "" {
			msg = fmt.Sprintf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
		}
	}
	return &apperr.UpstreamError{Status: resp.StatusCode, Message: msg}
}
