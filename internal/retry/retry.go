// Package retry runs capability calls under an explicit, bounded retry policy.
//
// Every attempt gets its own timeout, only transient failures are retried,
// and the number of attempts and the time spent backing off are reported
// back to the caller so retries stay observable.
package retry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/custodia-labs/scribe/internal/core/domain"
)

// Policy bounds how a call is retried.
type Policy struct {
	// MaxAttempts is the total number of attempts, first call included.
	MaxAttempts int

	// InitialDelay is the wait before the second attempt.
	InitialDelay time.Duration

	// MaxDelay caps the exponential delay.
	MaxDelay time.Duration

	// Multiplier grows the delay between attempts.
	Multiplier float64

	// Jitter randomises each delay by +/- this fraction. Zero is deterministic.
	Jitter float64

	// AttemptTimeout bounds a single attempt.
	AttemptTimeout time.Duration

	// Retryable decides whether an error is transient. Nil means IsTransient.
	Retryable func(error) bool

	// OnRetry is called before each wait with the failed attempt number.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// DefaultPolicy returns the policy used for provider calls.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:    4,
		InitialDelay:   500 * time.Millisecond,
		MaxDelay:       8 * time.Second,
		Multiplier:     2,
		Jitter:         0.2,
		AttemptTimeout: 60 * time.Second,
	}
}

// Validate checks that the policy is bounded.
func (p Policy) Validate() error {
	switch {
	case p.MaxAttempts < 1:
		return fmt.Errorf("%w: retry max attempts must be at least 1", domain.ErrConfiguration)
	case p.InitialDelay < 0 || p.MaxDelay < p.InitialDelay:
		return fmt.Errorf("%w: retry delays must satisfy 0 <= initial <= max", domain.ErrConfiguration)
	case p.Multiplier < 1:
		return fmt.Errorf("%w: retry multiplier must be at least 1", domain.ErrConfiguration)
	case p.Jitter < 0 || p.Jitter >= 1:
		return fmt.Errorf("%w: retry jitter must be in [0,1)", domain.ErrConfiguration)
	case p.AttemptTimeout <= 0:
		return fmt.Errorf("%w: retry attempt timeout must be positive", domain.ErrConfiguration)
	}
	return nil
}

// Stats describes what happened during Do.
type Stats struct {
	Attempts int
	Retries  int
	Backoff  time.Duration
}

// IsTransient reports whether err is worth retrying: provider rate limits,
// transient provider failures, and network timeouts.
func IsTransient(err error) bool {
	if domain.IsRetryable(err) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// Do runs op until it succeeds, fails permanently, or the policy is exhausted.
// The returned error is the last attempt's error. Cancelling ctx stops
// retrying immediately.
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, Stats, error) {
	var stats Stats
	retryable := p.Retryable
	if retryable == nil {
		retryable = IsTransient
	}

	attempt := func() (T, error) {
		stats.Attempts++
		attemptCtx, cancel := context.WithTimeout(ctx, p.AttemptTimeout)
		defer cancel()

		res, err := op(attemptCtx)
		if err == nil {
			return res, nil
		}
		if ctx.Err() != nil {
			return res, backoff.Permanent(err)
		}
		// An attempt that ran out of its own time budget is transient.
		if errors.Is(err, context.DeadlineExceeded) && attemptCtx.Err() != nil {
			return res, fmt.Errorf("attempt timed out after %s: %w", p.AttemptTimeout, domain.ErrTransient)
		}
		if !retryable(err) {
			return res, backoff.Permanent(err)
		}
		return res, err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialDelay
	b.MaxInterval = p.MaxDelay
	b.Multiplier = p.Multiplier
	b.RandomizationFactor = p.Jitter

	res, err := backoff.Retry(ctx, attempt,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(p.MaxAttempts)),
		backoff.WithMaxElapsedTime(p.budget()),
		backoff.WithNotify(func(err error, delay time.Duration) {
			stats.Retries++
			stats.Backoff += delay
			if p.OnRetry != nil {
				p.OnRetry(stats.Attempts, err, delay)
			}
		}),
	)
	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		err = permanent.Unwrap()
	}
	return res, stats, err
}

// budget is an upper bound on the wall time of Do, so the attempt count
// rather than elapsed time is what stops retrying.
func (p Policy) budget() time.Duration {
	return time.Duration(p.MaxAttempts) * (p.AttemptTimeout + p.MaxDelay + time.Second)
}
