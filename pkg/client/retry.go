package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/meridianapp/api-client-go/pkg/apierror"
	"github.com/meridianapp/api-client-go/pkg/backoff"
	"github.com/meridianapp/api-client-go/pkg/endpoint"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for retry behavior.
var (
	retriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "apiclient_retries_total",
		Help: "Total retry attempts by error kind",
	}, []string{"kind"})

	retryBackoffSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "apiclient_retry_backoff_seconds",
		Help:    "Backoff delay before each retry in seconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	})

	retryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "apiclient_retry_exhausted_total",
		Help: "Requests that failed after all retry attempts, by error kind",
	}, []string{"kind"})
)

// ErrNonIdempotent is returned when retry execution is requested for an
// endpoint whose method is not safe to repeat.
var ErrNonIdempotent = errors.New("retry requires an idempotent GET endpoint")

// RetryObserver is notified before each retry sleep. Observers receive the
// attempt that just failed and the error that caused it.
type RetryObserver func(backoff.RetryContext)

// GetRawWithRetry executes a GET endpoint with exponential backoff. Only
// idempotent endpoints are accepted. On exhaustion the last attempt's
// error is returned unchanged.
func GetRawWithRetry(ctx context.Context, c *Client, ep endpoint.Endpoint, policy backoff.Policy, observers ...RetryObserver) ([]byte, error) {
	if !ep.IsIdempotent() {
		return nil, fmt.Errorf("%w: %s %s", ErrNonIdempotent, ep.Method, ep.Path)
	}
	if policy.MaxAttempts < 1 {
		policy = backoff.Default()
	}

	var lastErr *apierror.APIError
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		raw, err := c.DoRaw(ctx, ep)
		if err == nil {
			if attempt > 1 {
				c.logger.Info().
					Str("path", ep.Path).
					Int("attempt", attempt).
					Msg("Request succeeded after retry")
			}
			return raw, nil
		}

		lastErr = apierror.Map(err)
		if lastErr.Kind == apierror.KindCancelled {
			return nil, lastErr
		}
		if !policy.ShouldRetry(lastErr) {
			return nil, lastErr
		}
		if attempt == policy.MaxAttempts {
			break
		}

		for _, observe := range observers {
			observe(backoff.RetryContext{
				Attempt:     attempt,
				MaxAttempts: policy.MaxAttempts,
				PreviousErr: lastErr,
				Endpoint:    ep,
			})
		}

		delay := policy.Delay(attempt)
		retriesTotal.WithLabelValues(string(lastErr.Kind)).Inc()
		retryBackoffSeconds.Observe(delay.Seconds())
		c.logger.Debug().
			Str("path", ep.Path).
			Int("attempt", attempt).
			Int("max_attempts", policy.MaxAttempts).
			Dur("delay", delay).
			Str("kind", string(lastErr.Kind)).
			Msg("Retrying request after backoff")

		select {
		case <-ctx.Done():
			c.logger.Warn().
				Str("path", ep.Path).
				Int("attempt", attempt).
				Msg("Context cancelled during backoff")
			return nil, apierror.Map(ctx.Err())
		case <-time.After(delay):
		}
	}

	retryExhaustedTotal.WithLabelValues(string(lastErr.Kind)).Inc()
	c.logger.Warn().
		Str("path", ep.Path).
		Int("attempts", policy.MaxAttempts).
		Str("kind", string(lastErr.Kind)).
		Msg("All retry attempts exhausted")

	return nil, lastErr
}

// GetWithRetry executes a GET endpoint with retries and decodes the JSON
// response into T.
func GetWithRetry[T any](ctx context.Context, c *Client, ep endpoint.Endpoint, policy backoff.Policy, observers ...RetryObserver) (T, error) {
	var zero T
	raw, err := GetRawWithRetry(ctx, c, ep, policy, observers...)
	if err != nil {
		return zero, err
	}
	return Decode[T](raw)
}
