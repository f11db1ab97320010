// Package apierror defines the normalized error taxonomy for the client core.
//
// Every failure the core can encounter (transport, decoding, HTTP status,
// cancellation) is mapped to exactly one Kind. Consumers never see
// transport- or platform-specific error types; they branch on the Kind and
// its classification flags.
package apierror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure.
type Kind string

const (
	// KindUnauthorized covers HTTP 401 and missing-credential pre-flight failures.
	KindUnauthorized Kind = "unauthorized"

	// KindForbidden covers HTTP 403.
	KindForbidden Kind = "forbidden"

	// KindNotFound covers HTTP 404 and cache-only misses.
	KindNotFound Kind = "not_found"

	// KindBadRequest covers HTTP 400 and unencodable request bodies.
	KindBadRequest Kind = "bad_request"

	// KindServer covers HTTP 5xx.
	KindServer Kind = "server"

	// KindDecoding covers malformed response bodies and schema mismatches.
	KindDecoding Kind = "decoding"

	// KindConnectivity covers transport failures: timeouts, DNS, TLS,
	// unreachable hosts, broken response framing.
	KindConnectivity Kind = "connectivity"

	// KindCancelled covers explicit caller cancellation.
	KindCancelled Kind = "cancelled"

	// KindRateLimited covers HTTP 429 regardless of which path discovers it.
	KindRateLimited Kind = "rate_limited"

	// KindUnknown covers everything else, with or without an HTTP status.
	KindUnknown Kind = "unknown"
)

// Retryable reports whether failures of this kind are transient and may be
// retried under a backoff policy.
func (k Kind) Retryable() bool {
	switch k {
	case KindConnectivity, KindServer, KindRateLimited, KindUnknown:
		return true
	default:
		return false
	}
}

// AuthenticationError reports whether this kind indicates missing or
// insufficient credentials.
func (k Kind) AuthenticationError() bool {
	return k == KindUnauthorized || k == KindForbidden
}

// ClientError reports whether the failure originates on the caller's side
// and will not resolve by retrying.
func (k Kind) ClientError() bool {
	switch k {
	case KindBadRequest, KindUnauthorized, KindForbidden, KindNotFound, KindDecoding:
		return true
	default:
		return false
	}
}

// APIError is the single error type surfaced by the client core.
type APIError struct {
	Kind Kind

	// StatusCode is the originating HTTP status, 0 when the failure was
	// not derived from an HTTP response.
	StatusCode int

	// Message is a short human-readable description of the failure.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

// New creates an APIError without an HTTP status.
func New(kind Kind, message string) *APIError {
	return &APIError{Kind: kind, Message: message}
}

// Wrap creates an APIError carrying an underlying cause.
func Wrap(kind Kind, message string, err error) *APIError {
	return &APIError{Kind: kind, Message: message, Err: err}
}

// Error implements the error interface.
func (e *APIError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("%s (status %d): %s: %v", e.Kind, e.StatusCode, e.Message, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s (status %d): %s", e.Kind, e.StatusCode, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *APIError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the error is transient.
func (e *APIError) Retryable() bool {
	return e.Kind.Retryable()
}

// AuthenticationError reports whether the error is credential-related.
func (e *APIError) AuthenticationError() bool {
	return e.Kind.AuthenticationError()
}

// ClientError reports whether the error is caller-caused.
func (e *APIError) ClientError() bool {
	return e.Kind.ClientError()
}

// UserMessage returns a message suitable for direct display.
func (e *APIError) UserMessage() string {
	switch e.Kind {
	case KindUnauthorized:
		return "Please sign in again."
	case KindForbidden:
		return "You don't have access to this resource."
	case KindNotFound:
		return "The requested resource was not found."
	case KindBadRequest:
		if e.Message != "" {
			return e.Message
		}
		return "The request was invalid."
	case KindServer:
		return "The server encountered a problem. Please try again later."
	case KindDecoding:
		return "The server response could not be read."
	case KindConnectivity:
		return "A network problem occurred. Check your connection and try again."
	case KindCancelled:
		return "The request was cancelled."
	case KindRateLimited:
		return "Too many requests. Please wait a moment and try again."
	default:
		return "An unexpected error occurred."
	}
}

// FromStatus maps a non-2xx HTTP status and an extracted message to an
// APIError. 429 is special-cased to rate_limited; unrecognized statuses
// become unknown but keep the status for policy decisions.
func FromStatus(status int, message string) *APIError {
	if message == "" {
		message = http.StatusText(status)
	}

	var kind Kind
	switch {
	case status == http.StatusBadRequest:
		kind = KindBadRequest
	case status == http.StatusUnauthorized:
		kind = KindUnauthorized
	case status == http.StatusForbidden:
		kind = KindForbidden
	case status == http.StatusNotFound:
		kind = KindNotFound
	case status == http.StatusTooManyRequests:
		kind = KindRateLimited
	case status >= 500 && status <= 599:
		kind = KindServer
	default:
		kind = KindUnknown
	}

	return &APIError{Kind: kind, StatusCode: status, Message: message}
}

// KindOf returns the Kind of err, or KindUnknown when err carries no
// APIError in its chain.
func KindOf(err error) Kind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindUnknown
}
