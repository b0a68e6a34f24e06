// Package fn holds small generic building blocks shared by the feed
// pipeline: a Result type for fallible values, composable stages, and
// slice helpers. Nothing here knows about news or providers.
package fn

import "fmt"

// Result carries either a value or an error, never both.
type Result[T any] struct {
	val T
	err error
}

// Ok wraps a successful value.
func Ok[T any](v T) Result[T] { return Result[T]{val: v} }

// Err wraps a failure. A nil err still counts as a failure state
// carrying a zero value; callers should pass a real error.
func Err[T any](err error) Result[T] { return Result[T]{err: err} }

// Errf builds a failed Result from a format string.
func Errf[T any](format string, args ...any) Result[T] {
	return Result[T]{err: fmt.Errorf(format, args...)}
}

// FromPair lifts the conventional (value, error) pair into a Result.
func FromPair[T any](v T, err error) Result[T] {
	if err != nil {
		return Err[T](err)
	}
	return Ok(v)
}

func (r Result[T]) IsOk() bool  { return r.err == nil }
func (r Result[T]) IsErr() bool { return r.err != nil }

// Unwrap returns the value and error as a plain pair.
func (r Result[T]) Unwrap() (T, error) { return r.val, r.err }

// UnwrapOr returns the value, or fallback when the Result failed.
func (r Result[T]) UnwrapOr(fallback T) T {
	if r.err != nil {
		return fallback
	}
	return r.val
}

// Must returns the value or panics. Test helper; avoid in production paths.
func (r Result[T]) Must() T {
	if r.err != nil {
		panic(r.err)
	}
	return r.val
}

// MapResult applies f to the value of a successful Result and passes
// failures through untouched.
func MapResult[In, Out any](r Result[In], f func(In) Out) Result[Out] {
	if r.err != nil {
		return Err[Out](r.err)
	}
	return Ok(f(r.val))
}
