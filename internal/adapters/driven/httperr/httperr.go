// Package httperr maps provider HTTP failures onto the domain's transient
// and permanent error classes.
package httperr

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/custodia-labs/scribe/internal/core/domain"
)

// maxBody bounds how much of a response body is quoted in an error.
const maxBody = 512

// Status turns a non-2xx response into an error. 429 wraps
// domain.ErrRateLimited, 408 and 5xx wrap domain.ErrTransient, anything else
// is permanent.
func Status(provider string, status int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	if len(msg) > maxBody {
		msg = msg[:maxBody] + "..."
	}

	switch {
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%s: status %d: %s: %w", provider, status, msg, domain.ErrRateLimited)
	case status == http.StatusRequestTimeout || status >= 500:
		return fmt.Errorf("%s: status %d: %s: %w", provider, status, msg, domain.ErrTransient)
	default:
		return fmt.Errorf("%s: status %d: %s", provider, status, msg)
	}
}

// Transport classifies an error from http.Client.Do. Connection failures and
// timeouts are transient; cancellation is passed through unchanged.
func Transport(provider string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: send request: %w", provider, err)
	}
	var netErr net.Error
	var opErr *net.OpError
	if errors.As(err, &netErr) || errors.As(err, &opErr) {
		return fmt.Errorf("%s: send request: %v: %w", provider, err, domain.ErrTransient)
	}
	return fmt.Errorf("%s: send request: %w", provider, err)
}
