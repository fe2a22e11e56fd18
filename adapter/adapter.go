// Package adapter provides shared plumbing for data-source adapters: the
// retry policy applied to individual calls, per-adapter rate limiting and
// HTTP status classification into the transient/permanent taxonomy.
// Concrete adapters live in subpackages.
package adapter

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/UIDickinson/EE-RI-Bot/core"
)

// Policy configures retrying of a single adapter call. Only transient
// failures are retried; permanent failures (malformed query, auth) return
// immediately.
type Policy struct {
	// MaxRetries is the number of attempts after the first call.
	MaxRetries int
	// BaseDelay is the initial backoff delay, doubled per attempt.
	BaseDelay time.Duration
	// MaxDelay caps the backoff delay.
	MaxDelay time.Duration
	// Jitter randomizes each delay within ±25% to avoid thundering herds.
	Jitter bool
}

// DefaultPolicy returns the baseline retry policy.
func DefaultPolicy() Policy {
	return Policy{MaxRetries: 2, BaseDelay: 500 * time.Millisecond, MaxDelay: 10 * time.Second, Jitter: true}
}

// Delay returns the backoff delay before the given retry attempt (1-based).
func (p Policy) Delay(attempt int) time.Duration {
	d := float64(p.BaseDelay) * math.Pow(2, float64(attempt-1))
	if max := float64(p.MaxDelay); p.MaxDelay > 0 && d > max {
		d = max
	}
	if p.Jitter {
		d *= 0.75 + rand.Float64()*0.5
	}
	return time.Duration(d)
}

// Do runs fn, retrying transient failures within the policy budget and
// honoring context cancellation between attempts. The last error is
// returned when the budget is exhausted.
func Do[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	var (
		val     T
		lastErr error
	)
	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return val, ctx.Err()
			case <-time.After(p.Delay(attempt)):
			}
		}

		val, lastErr = fn(ctx)
		if lastErr == nil {
			return val, nil
		}
		if !core.IsTransient(lastErr) {
			return val, lastErr
		}
	}
	return val, lastErr
}

// NewLimiter builds a per-adapter rate limiter. A non-positive perSecond
// disables limiting.
func NewLimiter(perSecond float64) *rate.Limiter {
	if perSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	burst := int(perSecond)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

// ClassifyHTTPStatus converts a non-2xx upstream response into the error
// taxonomy: 408, 429 and 5xx are transient (retryable), everything else is
// permanent.
func ClassifyHTTPStatus(source string, status int) error {
	err := fmt.Errorf("%s returned status %d", source, status)
	switch {
	case status == http.StatusRequestTimeout,
		status == http.StatusTooManyRequests,
		status >= 500:
		return core.Transient(err)
	}
	return err
}
