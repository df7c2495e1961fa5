package dinodial

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// tokenInvalidMarker is the exact text the proxy embeds in 400/401 bodies
// when the bearer token has been rejected.
const tokenInvalidMarker = "Token is not valid"

// rateLimitMarker appears in the error text of throttled responses, which the
// proxy may deliver with any status code.
const rateLimitMarker = "Rate limit"

// APIError is a non-success response from the Dinodial proxy.
type APIError struct {
	StatusCode int
	Message    string
	Detail     string
	Body       string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("dinodial: %s (status=%d)", e.Message, e.StatusCode)
	}
	if e.Detail != "" {
		return fmt.Sprintf("dinodial: %s (status=%d)", e.Detail, e.StatusCode)
	}
	return fmt.Sprintf("dinodial: http status %d", e.StatusCode)
}

// RateLimitError signals the caller must slow down before retrying.
type RateLimitError struct {
	Message string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("dinodial: rate limited: %s", e.Message)
}

// IsRateLimited reports whether err carries the provider's rate-limit marker.
func IsRateLimited(err error) bool {
	var rle *RateLimitError
	return errors.As(err, &rle)
}

// IsTransient reports whether err is a network-level failure worth retrying
// on a later tick: timeouts, cancelled deadlines, connection errors.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 500 && apiErr.StatusCode <= 599
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

func isTokenRejection(status int, body []byte) bool {
	if status != 400 && status != 401 {
		return false
	}
	return strings.Contains(string(body), tokenInvalidMarker)
}

func isRateLimitBody(status int, body []byte) bool {
	if status == 429 {
		return true
	}
	return strings.Contains(string(body), rateLimitMarker)
}
