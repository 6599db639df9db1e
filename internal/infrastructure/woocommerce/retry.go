package woocommerce

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	retryBaseDelay = 500 * time.Millisecond
	retryMaxDelay  = 10 * time.Second
)

// httpStatusError is a non-2xx response from the store
type httpStatusError struct {
	statusCode int
	status     string
	code       string
	message    string
}

func (e *httpStatusError) Error() string {
	if e.message == "" {
		return fmt.Sprintf("woocommerce request failed: %s", e.status)
	}
	if e.code == "" {
		return fmt.Sprintf("woocommerce request failed: %s: %s", e.status, e.message)
	}
	return fmt.Sprintf("woocommerce request failed: %s: %s (%s)", e.status, e.message, e.code)
}

func isRetryableHTTPError(err error) bool {
	var httpErr *httpStatusError
	if errors.As(err, &httpErr) {
		switch httpErr.statusCode {
		case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true
		}
	}
	return false
}

// isRetryableTransportError reports connection-level failures worth another attempt
func isRetryableTransportError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "eof")
}

// shouldRetry decides whether a failed attempt may be replayed. Writes that
// are not idempotent are only replayed when the store cannot have applied
// them: a 429 rejection or a connection that was never established.
func shouldRetry(method string, err error) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodPut, http.MethodDelete:
		return isRetryableHTTPError(err) || isRetryableTransportError(err)
	}
	var httpErr *httpStatusError
	if errors.As(err, &httpErr) {
		return httpErr.statusCode == http.StatusTooManyRequests
	}
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "connection refused")
}

func retryDelay(attempt int) time.Duration {
	if attempt < 0 {
		return 0
	}
	delay := retryBaseDelay << attempt
	if delay > retryMaxDelay || delay <= 0 {
		delay = retryMaxDelay
	}
	return delay
}

func sleepWithContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
