// Package client provides the core HTTP request executor with auth
// injection, error normalization, and retry support for idempotent calls.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/meridianapp/api-client-go/pkg/apierror"
	"github.com/meridianapp/api-client-go/pkg/endpoint"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for request execution.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "apiclient_requests_total",
		Help: "Total requests by path and status",
	}, []string{"path", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "apiclient_request_duration_seconds",
		Help:    "Request duration in seconds by path",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"path"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "apiclient_errors_total",
		Help: "Total errors by kind",
	}, []string{"kind"})
)

// HeaderUserID carries the injected user identifier.
const HeaderUserID = "X-User-ID"

// AuthProvider supplies the current credentials on demand. The core only
// reads; it never refreshes or persists anything. The second return value
// reports availability.
type AuthProvider interface {
	UserID() (string, bool)
	BearerToken() (string, bool)
}

// Config holds the client configuration.
type Config struct {
	// BaseURL is the API origin every endpoint path is resolved against.
	BaseURL string

	// UserAgent identifies the application.
	UserAgent string

	// DefaultHeaders are applied to every request. Endpoint header
	// overrides win on conflict.
	DefaultHeaders map[string]string

	// Timeout bounds each HTTP call. Defaults to 30s.
	Timeout time.Duration

	// Auth supplies credentials for endpoints that require them.
	// May be nil when no endpoint uses auth.
	Auth AuthProvider

	// HTTPClient overrides the underlying transport (for testing).
	HTTPClient *http.Client

	// Logger overrides the default component logger.
	Logger *zerolog.Logger
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(baseURL, userAgent string) Config {
	return Config{
		BaseURL:   baseURL,
		UserAgent: userAgent,
		Timeout:   30 * time.Second,
	}
}

// Client executes endpoint descriptors against the configured base URL.
type Client struct {
	baseURL        *url.URL
	userAgent      string
	defaultHeaders map[string]string
	auth           AuthProvider
	httpClient     *http.Client
	logger         zerolog.Logger
}

// New creates a new client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	logger := log.With().Str("component", "api-client").Logger()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	return &Client{
		baseURL:        base,
		userAgent:      cfg.UserAgent,
		defaultHeaders: cfg.DefaultHeaders,
		auth:           cfg.Auth,
		httpClient:     httpClient,
		logger:         logger,
	}, nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// DoRaw executes one endpoint and returns the raw response body. Every
// failure is a *apierror.APIError; no transport error type leaks upward.
func (c *Client) DoRaw(ctx context.Context, ep endpoint.Endpoint) ([]byte, error) {
	start := time.Now()

	req, err := c.buildRequest(ctx, ep)
	if err != nil {
		apiErr := apierror.Map(err)
		errorsTotal.WithLabelValues(string(apiErr.Kind)).Inc()
		return nil, apiErr
	}

	c.logger.Debug().
		Str("method", ep.Method).
		Str("path", ep.Path).
		Msg("Executing request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		apiErr := apierror.Map(err)
		errorsTotal.WithLabelValues(string(apiErr.Kind)).Inc()
		requestsTotal.WithLabelValues(ep.Path, "transport_error").Inc()
		c.logger.Warn().
			Err(err).
			Str("method", ep.Method).
			Str("path", ep.Path).
			Str("kind", string(apiErr.Kind)).
			Msg("Request failed")
		return nil, apiErr
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		apiErr := apierror.Wrap(apierror.KindConnectivity, "read response body", err)
		errorsTotal.WithLabelValues(string(apiErr.Kind)).Inc()
		return nil, apiErr
	}

	duration := time.Since(start)
	requestsTotal.WithLabelValues(ep.Path, fmt.Sprintf("%d", resp.StatusCode)).Inc()
	requestDuration.WithLabelValues(ep.Path).Observe(duration.Seconds())

	c.logger.Debug().
		Str("method", ep.Method).
		Str("path", ep.Path).
		Int("status", resp.StatusCode).
		Dur("duration", duration).
		Int("response_bytes", len(body)).
		Msg("Request completed")

	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		if resp.StatusCode == http.StatusNoContent {
			return nil, nil
		}
		return body, nil
	}

	message := apierror.MessageFromBody(body)
	apiErr := apierror.FromStatus(resp.StatusCode, message)
	errorsTotal.WithLabelValues(string(apiErr.Kind)).Inc()
	c.logger.Warn().
		Str("method", ep.Method).
		Str("path", ep.Path).
		Int("status", resp.StatusCode).
		Str("kind", string(apiErr.Kind)).
		Msg("Request returned error status")

	return nil, apiErr
}

// buildRequest resolves the URL, merges headers and injects credentials.
// Credential requirements are checked before any HTTP traffic: a missing
// token or identity fails the call outright.
func (c *Client) buildRequest(ctx context.Context, ep endpoint.Endpoint) (*http.Request, error) {
	target := c.baseURL.JoinPath(ep.Path)
	if len(ep.Query) > 0 {
		target.RawQuery = ep.Query.Encode()
	}

	var bodyReader io.Reader
	if ep.Body != nil {
		data, err := json.Marshal(ep.Body)
		if err != nil {
			return nil, apierror.Wrap(apierror.KindBadRequest, "encode request body", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, ep.Method, target.String(), bodyReader)
	if err != nil {
		return nil, apierror.Wrap(apierror.KindBadRequest, "build request", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if ep.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range c.defaultHeaders {
		req.Header.Set(key, value)
	}
	for key, value := range ep.Headers {
		req.Header.Set(key, value)
	}

	if ep.RequiresBearerToken {
		token, ok := c.bearerToken()
		if !ok {
			return nil, apierror.New(apierror.KindUnauthorized, "bearer token required but unavailable")
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if ep.RequiresUserID {
		userID, ok := c.userID()
		if !ok {
			return nil, apierror.New(apierror.KindUnauthorized, "user identity required but unavailable")
		}
		req.Header.Set(HeaderUserID, userID)
	}

	return req, nil
}

func (c *Client) bearerToken() (string, bool) {
	if c.auth == nil {
		return "", false
	}
	return c.auth.BearerToken()
}

func (c *Client) userID() (string, bool) {
	if c.auth == nil {
		return "", false
	}
	return c.auth.UserID()
}

// NoBody marks a call whose response body is irrelevant. Decoding is
// skipped entirely for this target type.
type NoBody struct{}

// Do executes the endpoint and decodes the JSON response into T.
func Do[T any](ctx context.Context, c *Client, ep endpoint.Endpoint) (T, error) {
	var zero T
	raw, err := c.DoRaw(ctx, ep)
	if err != nil {
		return zero, err
	}
	return Decode[T](raw)
}

// Decode unmarshals a response payload into T. A NoBody target or an empty
// payload yields the zero value without decoding; a malformed payload
// yields a decoding error.
func Decode[T any](raw []byte) (T, error) {
	var v T
	if _, ok := any(v).(NoBody); ok {
		return v, nil
	}
	if len(raw) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		var zero T
		return zero, apierror.Map(err)
	}
	return v, nil
}
