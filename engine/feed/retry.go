package feed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tickerwire/tickerwire/engine/domain"
	"github.com/tickerwire/tickerwire/engine/source"
	"github.com/tickerwire/tickerwire/pkg/metrics"
)

var tracer = otel.Tracer("engine/feed")

// RetryPolicy controls how the executor re-invokes a provider after a
// transient transport failure.
type RetryPolicy struct {
	// MaxRetries is the number of re-invocations after the first attempt,
	// so a provider is called at most MaxRetries+1 times.
	MaxRetries int
	// BaseDelay is the backoff unit: attempt n sleeps BaseDelay * 2^n.
	BaseDelay time.Duration
	// RetryableStatuses is the set of transport statuses worth retrying.
	// Anything else, including non-transport errors, abandons immediately.
	RetryableStatuses map[int]bool
	// CallTimeout bounds each individual provider invocation.
	CallTimeout time.Duration
}

// DefaultRetryPolicy retries rate-limit and upstream-overload responses
// a few times with exponential backoff.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 3,
		BaseDelay:  time.Second,
		RetryableStatuses: map[int]bool{
			429: true,
			502: true,
			503: true,
			504: true,
		},
		CallTimeout: 30 * time.Second,
	}
}

// Executor invokes providers under a retry policy. Call never returns an
// error and never lets a provider panic escape, so one misbehaving source
// cannot take down a fan-out.
type Executor struct {
	policy RetryPolicy
	log    *slog.Logger
	met    *metrics.Registry
}

func NewExecutor(policy RetryPolicy, log *slog.Logger, met *metrics.Registry) *Executor {
	if log == nil {
		log = slog.Default()
	}
	if policy.MaxRetries < 0 {
		policy.MaxRetries = 0
	}
	if policy.BaseDelay <= 0 {
		policy.BaseDelay = time.Second
	}
	if policy.CallTimeout <= 0 {
		policy.CallTimeout = 30 * time.Second
	}
	return &Executor{policy: policy, log: log, met: met}
}

// Call fetches news from a single provider, retrying recoverable transport
// failures per the policy. On success the fetched items are returned; on
// abandonment (non-retryable failure, exhausted retries, panic, cancelled
// context) the result is an empty slice.
func (e *Executor) Call(ctx context.Context, p source.Provider, ticker string, start, end time.Time, limit int) []domain.NewsItem {
	tag := string(p.Name())
	ctx, span := tracer.Start(ctx, "feed.fetch", trace.WithAttributes(
		attribute.String("source", tag),
	))
	defer span.End()

	for attempt := 0; attempt <= e.policy.MaxRetries; attempt++ {
		items, err := e.invoke(ctx, p, ticker, start, end, limit)
		if err == nil {
			if attempt > 0 {
				e.log.Info("provider recovered after retry",
					"source", tag,
					"attempts", attempt+1,
				)
			}
			e.count("feed_provider_calls_total", tag, "ok")
			return items
		}

		status, transport := domain.FetchStatus(err)
		if !transport || !e.policy.RetryableStatuses[status] {
			e.log.Warn("provider abandoned",
				"source", tag,
				"attempt", attempt+1,
				"error", err,
			)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			e.count("feed_provider_calls_total", tag, "abandoned")
			return nil
		}
		if attempt == e.policy.MaxRetries {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			break
		}

		delay := e.policy.BaseDelay << uint(attempt)
		e.log.Warn("provider retrying",
			"source", tag,
			"attempt", attempt+1,
			"status", status,
			"delay", delay,
		)
		e.count("feed_provider_retries_total", tag, "")
		select {
		case <-ctx.Done():
			e.count("feed_provider_calls_total", tag, "cancelled")
			return nil
		case <-time.After(delay):
		}
	}

	e.log.Warn("provider exhausted retries",
		"source", tag,
		"attempts", e.policy.MaxRetries+1,
	)
	e.count("feed_provider_calls_total", tag, "exhausted")
	return nil
}

// invoke runs a single bounded provider call, converting a panic into an
// error so the retry loop sees it as a plain non-retryable failure.
func (e *Executor) invoke(ctx context.Context, p source.Provider, ticker string, start, end time.Time, limit int) (items []domain.NewsItem, err error) {
	callCtx, cancel := context.WithTimeout(ctx, e.policy.CallTimeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("panic recovered", "source", p.Name(), "panic", r)
			items = nil
			err = fmt.Errorf("provider %s panicked: %v", p.Name(), r)
		}
	}()
	return p.Fetch(callCtx, ticker, start, end, limit)
}

func (e *Executor) count(name, tag, outcome string) {
	if e.met == nil {
		return
	}
	kvs := []string{"source", tag}
	if outcome != "" {
		kvs = append(kvs, "outcome", outcome)
	}
	e.met.Counter(metrics.WithLabels(name, kvs...), "Provider call outcomes by source.").Inc()
}
