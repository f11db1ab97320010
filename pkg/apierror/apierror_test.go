package apierror

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestFromStatus(t *testing.T) {
	tests := []struct {
		status int
		kind   Kind
	}{
		{400, KindBadRequest},
		{401, KindUnauthorized},
		{403, KindForbidden},
		{404, KindNotFound},
		{429, KindRateLimited},
		{500, KindServer},
		{502, KindServer},
		{503, KindServer},
		{599, KindServer},
		{418, KindUnknown},
		{302, KindUnknown},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status_%d", tt.status), func(t *testing.T) {
			err := FromStatus(tt.status, "boom")
			if err.Kind != tt.kind {
				t.Errorf("Kind = %q, want %q", err.Kind, tt.kind)
			}
			if err.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", err.StatusCode, tt.status)
			}
			if err.Message != "boom" {
				t.Errorf("Message = %q, want %q", err.Message, "boom")
			}
		})
	}
}

func TestFromStatus_EmptyMessageFallsBackToStatusText(t *testing.T) {
	err := FromStatus(404, "")
	if err.Message != http.StatusText(404) {
		t.Errorf("Message = %q, want %q", err.Message, http.StatusText(404))
	}
}

func TestKindClassification(t *testing.T) {
	tests := []struct {
		kind      Kind
		retryable bool
		authError bool
		clientErr bool
	}{
		{KindUnauthorized, false, true, true},
		{KindForbidden, false, true, true},
		{KindNotFound, false, false, true},
		{KindBadRequest, false, false, true},
		{KindServer, true, false, false},
		{KindDecoding, false, false, true},
		{KindConnectivity, true, false, false},
		{KindCancelled, false, false, false},
		{KindRateLimited, true, false, false},
		{KindUnknown, true, false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			if got := tt.kind.Retryable(); got != tt.retryable {
				t.Errorf("Retryable() = %v, want %v", got, tt.retryable)
			}
			if got := tt.kind.AuthenticationError(); got != tt.authError {
				t.Errorf("AuthenticationError() = %v, want %v", got, tt.authError)
			}
			if got := tt.kind.ClientError(); got != tt.clientErr {
				t.Errorf("ClientError() = %v, want %v", got, tt.clientErr)
			}
		})
	}
}

func TestAPIError_ErrorAndUnwrap(t *testing.T) {
	cause := errors.New("underlying")
	err := Wrap(KindServer, "internal failure", cause)
	err.StatusCode = 500

	if !errors.Is(err, cause) {
		t.Error("Unwrap should expose the underlying cause")
	}
	msg := err.Error()
	if msg == "" {
		t.Fatal("Error() returned empty string")
	}
	// Kind, status and message all belong in the rendered error.
	for _, want := range []string{"server", "500", "internal failure"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() = %q, missing %q", msg, want)
		}
	}
}

func TestUserMessage_NeverEmpty(t *testing.T) {
	kinds := []Kind{
		KindUnauthorized, KindForbidden, KindNotFound, KindBadRequest,
		KindServer, KindDecoding, KindConnectivity, KindCancelled,
		KindRateLimited, KindUnknown,
	}
	for _, k := range kinds {
		if msg := New(k, "").UserMessage(); msg == "" {
			t.Errorf("UserMessage() for %q is empty", k)
		}
	}
}

func TestKindOf(t *testing.T) {
	wrapped := fmt.Errorf("loading feed: %w", New(KindNotFound, "missing"))
	if got := KindOf(wrapped); got != KindNotFound {
		t.Errorf("KindOf(wrapped) = %q, want %q", got, KindNotFound)
	}
	if got := KindOf(errors.New("opaque")); got != KindUnknown {
		t.Errorf("KindOf(opaque) = %q, want %q", got, KindUnknown)
	}
}
