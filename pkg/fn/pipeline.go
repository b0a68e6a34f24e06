package fn

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Stage is one step of a processing pipeline. Stages take a context so
// long-running steps can be cancelled mid-flight.
type Stage[In, Out any] func(ctx context.Context, in In) Result[Out]

// Then composes two stages. The second runs only if the first succeeded.
func Then[A, B, C any](first Stage[A, B], second Stage[B, C]) Stage[A, C] {
	return func(ctx context.Context, in A) Result[C] {
		mid := first(ctx, in)
		if mid.IsErr() {
			return Err[C](mid.err)
		}
		if err := ctx.Err(); err != nil {
			return Err[C](err)
		}
		return second(ctx, mid.val)
	}
}

// Pipeline chains same-typed stages in order, stopping at the first
// failure or context cancellation.
func Pipeline[T any](stages ...Stage[T, T]) Stage[T, T] {
	return func(ctx context.Context, in T) Result[T] {
		cur := in
		for _, st := range stages {
			if err := ctx.Err(); err != nil {
				return Err[T](err)
			}
			r := st(ctx, cur)
			if r.IsErr() {
				return r
			}
			cur = r.val
		}
		return Ok(cur)
	}
}

// MapStage lifts a pure function into a Stage that cannot fail.
func MapStage[In, Out any](f func(In) Out) Stage[In, Out] {
	return func(_ context.Context, in In) Result[Out] {
		return Ok(f(in))
	}
}

// TapStage runs a side effect (logging, metrics) and passes the value on.
func TapStage[T any](f func(T)) Stage[T, T] {
	return func(_ context.Context, in T) Result[T] {
		f(in)
		return Ok(in)
	}
}

// TracedStage wraps a stage in an OpenTelemetry span named after the step.
func TracedStage[In, Out any](name string, st Stage[In, Out]) Stage[In, Out] {
	tracer := otel.Tracer("pkg/fn")
	return func(ctx context.Context, in In) Result[Out] {
		ctx, span := tracer.Start(ctx, name, trace.WithAttributes(
			attribute.String("stage.name", name),
		))
		defer span.End()

		r := st(ctx, in)
		if r.IsErr() {
			span.RecordError(r.err)
			span.SetStatus(codes.Error, r.err.Error())
		}
		return r
	}
}
