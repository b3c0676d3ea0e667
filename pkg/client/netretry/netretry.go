// Package netretry retries operations that fail with transient network errors.
package netretry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"
)

// httpStatusCodePattern matches 500-504 at word boundaries so ports such as ":5000" do not match.
var httpStatusCodePattern = regexp.MustCompile(`\b50[0-4]\b`)

// StatusError reports a non-2xx HTTP response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// IsRetryable reports whether err looks transient: HTTP 429 or 5xx responses and TCP-level
// failures such as resets, refused connections, timeouts, and unexpected EOF.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == http.StatusTooManyRequests || statusErr.StatusCode >= http.StatusInternalServerError
	}

	errMsg := err.Error()

	for _, pattern := range []string{
		"Internal Server Error", "Bad Gateway",
		"Service Unavailable", "Gateway Timeout",
		"connection reset by peer", "connection refused",
		"i/o timeout", "TLS handshake timeout",
		"unexpected EOF", "no such host",
		"Client.Timeout exceeded",
	} {
		if strings.Contains(errMsg, pattern) {
			return true
		}
	}

	return httpStatusCodePattern.MatchString(errMsg)
}

// ExponentialDelay returns min(baseWait * 2^(attempt-1), maxWait).
func ExponentialDelay(attempt int, baseWait, maxWait time.Duration) time.Duration {
	return min(baseWait*time.Duration(1<<(attempt-1)), maxWait)
}

// Policy bounds a retry loop.
type Policy struct {
	Attempts int
	BaseWait time.Duration
	MaxWait  time.Duration
}

// DefaultPolicy retries up to five times, starting at one second.
func DefaultPolicy() Policy {
	return Policy{Attempts: 5, BaseWait: time.Second, MaxWait: 15 * time.Second}
}

// Do calls op until it succeeds, fails with a non-retryable error, or the attempts are used up.
// onRetry, when set, is called before each wait.
func Do(ctx context.Context, policy Policy, op func(ctx context.Context) error, onRetry func(attempt int, err error)) error {
	var err error

	for attempt := 1; attempt <= max(policy.Attempts, 1); attempt++ {
		err = op(ctx)
		if err == nil || !IsRetryable(err) || attempt == policy.Attempts {
			return err
		}

		if onRetry != nil {
			onRetry(attempt, err)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-time.After(ExponentialDelay(attempt, policy.BaseWait, policy.MaxWait)):
		}
	}

	return err
}
