package resilient

import (
	"sync/atomic"
	"time"

	"github.com/custodia-labs/scribe/internal/retry"
)

// Metrics is a snapshot of the calls made through a wrapper.
type Metrics struct {
	Calls    int64
	Attempts int64
	Retries  int64
	Failures int64
	Backoff  time.Duration
}

type counters struct {
	calls, attempts, retries, failures, backoff atomic.Int64
}

func (c *counters) record(s retry.Stats, err error) {
	c.calls.Add(1)
	c.attempts.Add(int64(s.Attempts))
	c.retries.Add(int64(s.Retries))
	c.backoff.Add(int64(s.Backoff))
	if err != nil {
		c.failures.Add(1)
	}
}

func (c *counters) snapshot() Metrics {
	return Metrics{
		Calls:    c.calls.Load(),
		Attempts: c.attempts.Load(),
		Retries:  c.retries.Load(),
		Failures: c.failures.Load(),
		Backoff:  time.Duration(c.backoff.Load()),
	}
}
