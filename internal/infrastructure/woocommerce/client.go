// Package woocommerce is the adapter for the WooCommerce REST API: products,
// variations, variation batches and WordPress media uploads.
package woocommerce

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/stockwave/harmony/internal/domain/integration"
)

// maxResponseSize is the maximum allowed response size from the store (10MB)
const maxResponseSize = 10 * 1024 * 1024

// Client implements integration.ProductCatalog and integration.ImageUploader
// against a WooCommerce store.
type Client struct {
	config     Config
	httpClient *http.Client
	logger     *zap.Logger
	backoff    func(attempt int) time.Duration
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the logger used for retry and failure messages
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithBackoff replaces the retry delay function
func WithBackoff(fn func(attempt int) time.Duration) Option {
	return func(c *Client) {
		if fn != nil {
			c.backoff = fn
		}
	}
}

// NewClient creates a WooCommerce client with the given configuration
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Client{
		config:     cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     zap.NewNop(),
		backoff:    retryDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named("woocommerce")
	return c, nil
}

// request describes one store call. body is kept as bytes so it can be replayed on retry.
type request struct {
	method      string
	url         string
	query       url.Values
	body        []byte
	contentType string
	headers     map[string]string
	user        string
	password    string
}

// response is a successful store answer
type response struct {
	body   []byte
	header http.Header
}

// apiRequest builds a request against the REST namespace
func (c *Client) apiRequest(method, path string, query url.Values, payload any) (request, error) {
	req := request{
		method:   method,
		url:      c.config.apiBase() + path,
		query:    query,
		user:     c.config.ConsumerKey,
		password: c.config.ConsumerSecret,
	}
	if payload != nil {
		body, err := json.Marshal(payload)
		if err != nil {
			return request{}, fmt.Errorf("woocommerce: failed to encode request: %w", err)
		}
		req.body = body
		req.contentType = "application/json"
	}
	return req, nil
}

// getJSON performs a GET and decodes the body into out
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) (http.Header, error) {
	req, err := c.apiRequest(http.MethodGet, path, query, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return nil, fmt.Errorf("%w: failed to parse response: %v", integration.ErrStoreInvalidResponse, err)
	}
	return resp.header, nil
}

// sendJSON performs a write with a JSON payload and decodes the body into out
func (c *Client) sendJSON(ctx context.Context, method, path string, payload, out any) error {
	req, err := c.apiRequest(method, path, nil, payload)
	if err != nil {
		return err
	}
	resp, err := c.do(ctx, req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return fmt.Errorf("%w: failed to parse response: %v", integration.ErrStoreInvalidResponse, err)
	}
	return nil
}

// do sends req with exponential backoff. Idempotent methods retry 429, 5xx
// and dropped connections; POST only retries what the store never applied.
func (c *Client) do(ctx context.Context, req request) (*response, error) {
	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := c.backoff(attempt - 1)
			c.logger.Warn("retrying store request",
				zap.String("method", req.method),
				zap.String("url", req.url),
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
				zap.Error(lastErr),
			)
			if err := sleepWithContext(ctx, delay); err != nil {
				return nil, err
			}
		}

		resp, err := c.doOnce(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !shouldRetry(req.method, err) {
			break
		}
	}
	return nil, classify(lastErr)
}

func (c *Client) doOnce(ctx context.Context, req request) (*response, error) {
	target := req.url
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		body = bytes.NewReader(req.body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, body)
	if err != nil {
		return nil, fmt.Errorf("woocommerce: failed to create request: %w", err)
	}
	httpReq.SetBasicAuth(req.user, req.password)
	httpReq.Header.Set("Accept", "application/json")
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	for k, v := range req.headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("woocommerce: failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		statusErr := &httpStatusError{statusCode: resp.StatusCode, status: resp.Status}
		var wcErr wcErrorResponse
		if json.Unmarshal(respBody, &wcErr) == nil {
			statusErr.code = wcErr.Code
			statusErr.message = wcErr.Message
		}
		return nil, statusErr
	}

	return &response{body: respBody, header: resp.Header}, nil
}

// classify wraps a final failure in the matching integration error
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var httpErr *httpStatusError
	if !errors.As(err, &httpErr) {
		var urlErr *url.Error
		if errors.As(err, &urlErr) || isRetryableTransportError(err) {
			return fmt.Errorf("%w: %v", integration.ErrStoreUnavailable, err)
		}
		return err
	}
	switch {
	case httpErr.statusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %v", integration.ErrRemoteProductNotFound, httpErr)
	case httpErr.statusCode == http.StatusUnauthorized || httpErr.statusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %v", integration.ErrStoreAuthFailed, httpErr)
	case httpErr.statusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %v", integration.ErrStoreRateLimited, httpErr)
	case httpErr.statusCode >= 500:
		return fmt.Errorf("%w: %v", integration.ErrStoreUnavailable, httpErr)
	default:
		return fmt.Errorf("%w: %v", integration.ErrStoreRequestFailed, httpErr)
	}
}
