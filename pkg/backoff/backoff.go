// Package backoff provides the retry policy value and the exponential
// delay computation used by the retry executor.
package backoff

import (
	"math"
	"math/rand"
	"time"

	"github.com/meridianapp/api-client-go/pkg/apierror"
	"github.com/meridianapp/api-client-go/pkg/endpoint"
)

// Policy is an immutable retry policy.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// BaseDelay is the delay before the second attempt, pre-jitter.
	BaseDelay time.Duration

	// MaxDelay caps the applied delay. The scheduled delay may exceed it;
	// the applied delay never does.
	MaxDelay time.Duration

	// JitterMin and JitterMax bound the uniform random factor applied to
	// each delay. A fresh factor is drawn per call, never cached.
	JitterMin float64
	JitterMax float64

	// RetryableStatuses lists the HTTP status codes this policy retries.
	// Errors without a status fall back to kind-based classification.
	RetryableStatuses map[int]bool
}

// defaultRetryableStatuses covers rate limiting and the transient 5xx family.
func defaultRetryableStatuses() map[int]bool {
	return map[int]bool{
		429: true,
		500: true,
		502: true,
		503: true,
		504: true,
		520: true,
	}
}

// Default returns the standard policy: 3 attempts, 400ms base delay,
// 5s cap, jitter 0.8..1.3.
func Default() Policy {
	return Policy{
		MaxAttempts:       3,
		BaseDelay:         400 * time.Millisecond,
		MaxDelay:          5 * time.Second,
		JitterMin:         0.8,
		JitterMax:         1.3,
		RetryableStatuses: defaultRetryableStatuses(),
	}
}

// Conservative returns a patient policy for background work: more attempts,
// longer waits.
func Conservative() Policy {
	return Policy{
		MaxAttempts:       5,
		BaseDelay:         1 * time.Second,
		MaxDelay:          30 * time.Second,
		JitterMin:         0.9,
		JitterMax:         1.2,
		RetryableStatuses: defaultRetryableStatuses(),
	}
}

// Aggressive returns a policy for latency-sensitive foreground calls:
// quick, tightly capped retries.
func Aggressive() Policy {
	return Policy{
		MaxAttempts:       4,
		BaseDelay:         200 * time.Millisecond,
		MaxDelay:          2 * time.Second,
		JitterMin:         0.5,
		JitterMax:         1.5,
		RetryableStatuses: defaultRetryableStatuses(),
	}
}

// FailFast returns a single-attempt policy: no retries at all.
func FailFast() Policy {
	return Policy{
		MaxAttempts:       1,
		BaseDelay:         0,
		MaxDelay:          0,
		JitterMin:         1,
		JitterMax:         1,
		RetryableStatuses: map[int]bool{},
	}
}

// Delay computes the applied delay before attempt+1:
//
//	min(BaseDelay * 2^(attempt-1) * jitter, MaxDelay)
//
// with jitter drawn uniformly from [JitterMin, JitterMax) on every call.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	jitter := p.JitterMin
	if p.JitterMax > p.JitterMin {
		jitter += rand.Float64() * (p.JitterMax - p.JitterMin)
	}

	scheduled := float64(p.BaseDelay) * math.Pow(2, float64(attempt-1)) * jitter
	if p.MaxDelay > 0 && scheduled > float64(p.MaxDelay) {
		return p.MaxDelay
	}
	return time.Duration(scheduled)
}

// ShouldRetry reports whether the policy permits another attempt after err.
// HTTP-derived errors consult the policy's status list; everything else
// falls back to the error kind's classification.
func (p Policy) ShouldRetry(err *apierror.APIError) bool {
	if err == nil {
		return false
	}
	if err.Kind == apierror.KindCancelled {
		return false
	}
	if err.StatusCode != 0 {
		return p.RetryableStatuses[err.StatusCode]
	}
	return err.Kind.Retryable()
}

// RetryContext describes one iteration of a retry loop. It is created per
// attempt and handed to observers for logging; it is never persisted.
type RetryContext struct {
	// Attempt is the attempt that just failed, 1-based.
	Attempt int

	// MaxAttempts is the policy's total attempt budget.
	MaxAttempts int

	// PreviousErr is the normalized error from the failed attempt.
	PreviousErr *apierror.APIError

	// Endpoint is the endpoint being retried.
	Endpoint endpoint.Endpoint
}
