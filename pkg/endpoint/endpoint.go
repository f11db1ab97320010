// Package endpoint defines the immutable descriptor for a single API call.
//
// An Endpoint carries everything the request executor needs: path, method,
// query parameters, header overrides, an optional body and the two
// authentication requirements. Endpoints are plain values created per call
// and never mutated by the core; the With* helpers return modified copies.
package endpoint

import (
	"net/http"
	"net/url"
)

// Endpoint describes one HTTP call against the configured base URL.
type Endpoint struct {
	// Path is the request path relative to the base URL (e.g. "/v1/messages").
	Path string

	// Method is the HTTP method (http.MethodGet, http.MethodPost, ...).
	Method string

	// Query holds optional query parameters. Parameter order never
	// affects cache key derivation.
	Query url.Values

	// Headers are endpoint-specific header overrides. They win over the
	// client's default headers on conflict.
	Headers map[string]string

	// Body is an optional request payload, JSON-encoded before sending.
	Body any

	// RequiresUserID requests injection of the current user identifier.
	// If no identity is available the call fails before any HTTP traffic.
	RequiresUserID bool

	// RequiresBearerToken requests injection of a bearer token.
	// If no token is available the call fails before any HTTP traffic.
	RequiresBearerToken bool
}

// Get returns a GET endpoint for the given path.
func Get(path string) Endpoint {
	return Endpoint{Path: path, Method: http.MethodGet}
}

// Post returns a POST endpoint for the given path.
func Post(path string) Endpoint {
	return Endpoint{Path: path, Method: http.MethodPost}
}

// Put returns a PUT endpoint for the given path.
func Put(path string) Endpoint {
	return Endpoint{Path: path, Method: http.MethodPut}
}

// Patch returns a PATCH endpoint for the given path.
func Patch(path string) Endpoint {
	return Endpoint{Path: path, Method: http.MethodPatch}
}

// Delete returns a DELETE endpoint for the given path.
func Delete(path string) Endpoint {
	return Endpoint{Path: path, Method: http.MethodDelete}
}

// WithQuery returns a copy of the endpoint with the query parameter added.
func (e Endpoint) WithQuery(key, value string) Endpoint {
	q := make(url.Values, len(e.Query)+1)
	for k, vs := range e.Query {
		q[k] = append([]string(nil), vs...)
	}
	q.Add(key, value)
	e.Query = q
	return e
}

// WithHeader returns a copy of the endpoint with the header override set.
func (e Endpoint) WithHeader(key, value string) Endpoint {
	h := make(map[string]string, len(e.Headers)+1)
	for k, v := range e.Headers {
		h[k] = v
	}
	h[key] = value
	e.Headers = h
	return e
}

// WithBody returns a copy of the endpoint with the request body set.
func (e Endpoint) WithBody(body any) Endpoint {
	e.Body = body
	return e
}

// WithAuth returns a copy of the endpoint requiring user identity and
// bearer token injection.
func (e Endpoint) WithAuth() Endpoint {
	e.RequiresUserID = true
	e.RequiresBearerToken = true
	return e
}

// WithBearerToken returns a copy of the endpoint requiring only a bearer token.
func (e Endpoint) WithBearerToken() Endpoint {
	e.RequiresBearerToken = true
	return e
}

// IsIdempotent reports whether the endpoint may be retried automatically.
// Only GET requests qualify; the retry executor rejects everything else.
func (e Endpoint) IsIdempotent() bool {
	return e.Method == http.MethodGet
}
