package apperr

import (
	"errors"
	"net/http"
	"testing"
)

func TestNew_SetsStatusCode(t *testing.T) {
	err := New(InvalidInput, "bad input")
	if err.StatusCode != http.StatusBadRequest {
		t.Errorf("StatusCode = %d, want %d", err.StatusCode, http.StatusBadRequest)
	}
	if err.Error() != "InvalidInput: bad input" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestWrap_PreservesCauseForUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, TransientNetwork, "tax registry call failed")

	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to find the wrapped cause")
	}
	if err.StatusCode != http.StatusInternalServerError {
		t.Errorf("StatusCode = %d, want %d", err.StatusCode, http.StatusInternalServerError)
	}
}

func TestWithDetails_Fluent(t *testing.T) {
	err := New(ParseError, "malformed response").WithDetails("unexpected token at offset 12")
	if err.Error() != "ParseError: malformed response (unexpected token at offset 12)" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"transient network", New(TransientNetwork, "x"), true},
		{"rate limited", New(RateLimited, "x"), true},
		{"auth expired", New(AuthExpired, "x"), true},
		{"invalid input", New(InvalidInput, "x"), false},
		{"not found", New(NotFound, "x"), false},
		{"unrecognized error shape", errors.New("plain error"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Retryable(tt.err); got != tt.want {
				t.Errorf("Retryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestAs(t *testing.T) {
	ae := New(NotFound, "record missing")
	if got, ok := As(ae); !ok || got != ae {
		t.Errorf("As(*AppError) = (%v, %v), want (%v, true)", got, ok, ae)
	}
	if _, ok := As(errors.New("plain")); ok {
		t.Error("As(plain error) = true, want false")
	}
}
