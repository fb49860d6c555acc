// Package providers holds thin, typed adapters for every external
// collaborator in spec §4.1 (C1): tax registry, CPF registry with
// fallback, the two geocoders, the Places provider, photo fetch, the two
// vision LLMs and the two text LLMs. Every client returns a discriminated
// Result instead of throwing, is cancellation-aware via context, and
// never mutates a Record — reconciliation across sources happens one
// layer up, in internal/crossvalidate.
package providers

import (
	"github.com/catalogforge/enrichment-engine/internal/apperr"
)

// Result is the discriminated {ok, data} / {err, kind} result type of
// spec §4.1, reified as a generic so every client returns the same shape.
type Result[T any] struct {
	Ok    bool
	Value T
	Err   *apperr.AppError
}

// Success wraps a value in an Ok result.
func Success[T any](v T) Result[T] {
	return Result[T]{Ok: true, Value: v}
}

// Failure wraps an AppError in a non-Ok result.
func Failure[T any](err *apperr.AppError) Result[T] {
	return Result[T]{Ok: false, Err: err}
}
