package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestAPIErrorClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		target error
		want   bool
	}{
		{"unauthorized is auth", 401, ErrAuth, true},
		{"forbidden is auth", 403, ErrAuth, true},
		{"not found", 404, ErrNotFound, true},
		{"rate limited", 429, ErrRateLimited, true},
		{"server error is unavailable", 500, ErrUnavailable, true},
		{"bad gateway is unavailable", 502, ErrUnavailable, true},
		{"not found is not auth", 404, ErrAuth, false},
		{"server error is not rate limit", 503, ErrRateLimited, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewAPIError(tt.status, "/brief-bibs", "boom")
			if got := errors.Is(err, tt.target); got != tt.want {
				t.Errorf("errors.Is(%d, %v) = %v, want %v", tt.status, tt.target, got, tt.want)
			}
		})
	}
}

func TestIsTransient(t *testing.T) {
	if !IsTransient(NewAPIError(500, "/bibs", "down")) {
		t.Error("5xx should be transient")
	}
	if !IsTransient(NewAPIError(429, "/bibs", "slow down")) {
		t.Error("429 should be transient")
	}
	if IsTransient(NewAPIError(401, "/bibs", "denied")) {
		t.Error("auth failures are not transient")
	}
	if IsTransient(nil) {
		t.Error("nil is not transient")
	}
}

func TestAuthenticationError(t *testing.T) {
	inner := errors.New("invalid_client")
	err := WrapAuth("https://oauth.example.org/token", inner)

	if !IsAuth(err) {
		t.Error("wrapped auth error should satisfy IsAuth")
	}
	if !errors.Is(err, inner) {
		t.Error("wrapped auth error should unwrap to the cause")
	}
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("ISBN", "0306406153", "checksum mismatch")
	if !IsValidationError(err) {
		t.Error("validation error should satisfy IsValidationError")
	}
	if IsAuth(err) {
		t.Error("validation error must not read as fatal")
	}
}

func TestWrapNilReturnsNil(t *testing.T) {
	if WrapIO("write", "/tmp/x", nil) != nil {
		t.Error("WrapIO(nil) should be nil")
	}
	if WrapParse("json", "x.json", nil) != nil {
		t.Error("WrapParse(nil) should be nil")
	}
	if WrapAuth("url", nil) != nil {
		t.Error("WrapAuth(nil) should be nil")
	}
}

func TestErrorsWrapThroughFmt(t *testing.T) {
	err := fmt.Errorf("fetch 123: %w", NewAPIError(404, "/brief-bibs", "no records"))
	if !IsNotFound(err) {
		t.Error("sentinel classification should survive fmt.Errorf wrapping")
	}
}
