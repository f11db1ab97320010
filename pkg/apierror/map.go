package apierror

import (
	"context"
	"crypto/x509"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/url"
)

// Map normalizes any failure into an APIError. The mapping is total: every
// error yields a taxonomy value, falling back to unknown without a status.
//
// Precedence matters: cancellation is checked before transport errors
// because a cancelled HTTP call surfaces as a *url.Error wrapping
// context.Canceled.
func Map(err error) *APIError {
	if err == nil {
		return nil
	}

	// Already normalized.
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	// Explicit cancellation, including when wrapped by the transport.
	if errors.Is(err, context.Canceled) {
		return Wrap(KindCancelled, "request cancelled", err)
	}

	// Caller deadline expiry is a timeout, not a user cancellation.
	if errors.Is(err, context.DeadlineExceeded) {
		return Wrap(KindConnectivity, "request timed out", err)
	}

	// Malformed response body / schema mismatch.
	var (
		syntaxErr        *json.SyntaxError
		typeErr          *json.UnmarshalTypeError
		invalidUnmarshal *json.InvalidUnmarshalError
	)
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) || errors.As(err, &invalidUnmarshal) {
		return Wrap(KindDecoding, "malformed response body", err)
	}

	// Transport-layer failures.
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return Wrap(KindConnectivity, "DNS lookup failed", err)
	}
	var certErr x509.UnknownAuthorityError
	if errors.As(err, &certErr) {
		return Wrap(KindConnectivity, "TLS certificate verification failed", err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return Wrap(KindConnectivity, "connection timed out", err)
		}
		return Wrap(KindConnectivity, "network error", err)
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return Wrap(KindConnectivity, "request failed", err)
	}
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return Wrap(KindConnectivity, "connection closed unexpectedly", err)
	}

	return Wrap(KindUnknown, "unexpected error", err)
}
