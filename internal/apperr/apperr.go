// Package apperr implements the error taxonomy of spec §7. Workers and
// provider clients never panic or bubble a raw error to callers; every
// fallible operation returns (or wraps) an *AppError so the stage worker
// can map it to a stage status and the HTTP layer can map it to a status
// code without a type switch on driver-specific errors.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the exhaustive error taxonomy from spec §7.
type Kind string

const (
	TransientNetwork    Kind = "TransientNetwork"
	RateLimited         Kind = "RateLimited"
	AuthExpired         Kind = "AuthExpired"
	NotFound            Kind = "NotFound"
	InvalidInput        Kind = "InvalidInput"
	ParseError          Kind = "ParseError"
	ImageFormatInvalid  Kind = "ImageFormatInvalid"
	ConfigMissing       Kind = "ConfigMissing"
	Internal            Kind = "Internal"
)

// AppError is a structured error carrying a taxonomy Kind, an HTTP
// status mapping and an optional wrapped cause.
type AppError struct {
	Kind       Kind
	Message    string
	Details    string
	StatusCode int
	Cause      error
}

func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error { return e.Cause }

// WithDetails mutates and returns the same error, matching the fluent
// builder style used across the provider and worker packages.
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

func (e *AppError) WithDetailsf(format string, args ...any) *AppError {
	e.Details = fmt.Sprintf(format, args...)
	return e
}

// statusFor maps a taxonomy Kind to the HTTP status code of spec §7
// ("User-visible failure behavior").
func statusFor(k Kind) int {
	switch k {
	case InvalidInput, ParseError, ImageFormatInvalid:
		return http.StatusBadRequest
	case AuthExpired:
		return http.StatusUnauthorized
	case NotFound:
		return http.StatusNotFound
	case RateLimited:
		return http.StatusTooManyRequests
	case TransientNetwork, ConfigMissing, Internal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// New creates a fresh AppError of the given kind.
func New(kind Kind, message string) *AppError {
	return &AppError{Kind: kind, Message: message, StatusCode: statusFor(kind)}
}

// Newf creates a fresh AppError with a formatted message.
func Newf(kind Kind, format string, args ...any) *AppError {
	return New(kind, fmt.Sprintf(format, args...))
}

// Wrap attaches a taxonomy Kind and message to an existing error,
// preserving it as Cause for Unwrap/errors.Is chains.
func Wrap(cause error, kind Kind, message string) *AppError {
	return &AppError{Kind: kind, Message: message, StatusCode: statusFor(kind), Cause: cause}
}

func Wrapf(cause error, kind Kind, format string, args ...any) *AppError {
	return Wrap(cause, kind, fmt.Sprintf(format, args...))
}

// As reports whether err is (or wraps) an *AppError and returns it.
func As(err error) (*AppError, bool) {
	var ae *AppError
	ok := errors.As(err, &ae)
	return ae, ok
}

// Retryable reports whether the queue infrastructure should retry the
// job that produced this error, per the policy table in spec §7.
func Retryable(err error) bool {
	ae, ok := As(err)
	if !ok {
		return true // unrecognized error shape — be conservative and retry
	}
	switch ae.Kind {
	case TransientNetwork, RateLimited, Internal:
		return true
	case AuthExpired:
		return true // the CPF client drops its cached token on 401/403, so a retry fetches a fresh one
	default:
		return false
	}
}
