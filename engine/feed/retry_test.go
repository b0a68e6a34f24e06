package feed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tickerwire/tickerwire/engine/domain"
)

func testPolicy(maxRetries int) RetryPolicy {
	return RetryPolicy{
		MaxRetries:        maxRetries,
		BaseDelay:         time.Millisecond,
		RetryableStatuses: map[int]bool{429: true, 503: true},
		CallTimeout:       time.Second,
	}
}

func fetchWindow() (time.Time, time.Time) {
	end := time.Now()
	return end.Add(-6 * time.Hour), end
}

func TestExecutorRetriesRecoverableFailure(t *testing.T) {
	p := stub("flaky")
	p.failures = 2
	p.failWith = domain.NewFetchError("flaky", 503, errors.New("upstream overloaded"))
	p.items = []domain.NewsItem{{Title: "recovered headline", Source: "flaky"}}

	exec := NewExecutor(testPolicy(3), nil, nil)
	start, end := fetchWindow()
	items := exec.Call(context.Background(), p, "000001", start, end, 10)

	if p.calls != 3 {
		t.Fatalf("expected 3 invocations, got %d", p.calls)
	}
	if len(items) != 1 || items[0].Title != "recovered headline" {
		t.Errorf("expected the successful result, got %v", items)
	}
}

func TestExecutorAbandonsNonRetryableStatus(t *testing.T) {
	p := stub("broken")
	p.failures = 100
	p.failWith = domain.NewFetchError("broken", 401, errors.New("bad token"))

	exec := NewExecutor(testPolicy(3), nil, nil)
	start, end := fetchWindow()
	items := exec.Call(context.Background(), p, "000001", start, end, 10)

	if p.calls != 1 {
		t.Fatalf("expected exactly 1 invocation, got %d", p.calls)
	}
	if len(items) != 0 {
		t.Errorf("expected empty result, got %v", items)
	}
}

func TestExecutorAbandonsNonTransportError(t *testing.T) {
	p := stub("odd")
	p.failures = 100
	p.failWith = errors.New("malformed payload")

	exec := NewExecutor(testPolicy(3), nil, nil)
	start, end := fetchWindow()
	items := exec.Call(context.Background(), p, "000001", start, end, 10)

	if p.calls != 1 {
		t.Fatalf("expected exactly 1 invocation, got %d", p.calls)
	}
	if len(items) != 0 {
		t.Errorf("expected empty result, got %v", items)
	}
}

func TestExecutorExhaustsRetries(t *testing.T) {
	p := stub("hammered")
	p.failures = 100
	p.failWith = domain.NewFetchError("hammered", 429, errors.New("rate limited"))

	exec := NewExecutor(testPolicy(2), nil, nil)
	start, end := fetchWindow()
	items := exec.Call(context.Background(), p, "000001", start, end, 10)

	if p.calls != 3 {
		t.Fatalf("expected max_retries+1 = 3 invocations, got %d", p.calls)
	}
	if len(items) != 0 {
		t.Errorf("expected empty result after exhaustion, got %v", items)
	}
}

func TestExecutorRecoversPanic(t *testing.T) {
	p := stub("explosive")
	p.panics = true

	exec := NewExecutor(testPolicy(3), nil, nil)
	start, end := fetchWindow()
	items := exec.Call(context.Background(), p, "000001", start, end, 10)

	if p.calls != 1 {
		t.Fatalf("expected 1 invocation, got %d", p.calls)
	}
	if len(items) != 0 {
		t.Errorf("expected empty result after panic, got %v", items)
	}
}

func TestExecutorStopsOnCancelledContext(t *testing.T) {
	p := stub("slow")
	p.failures = 100
	p.failWith = domain.NewFetchError("slow", 503, errors.New("upstream overloaded"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	exec := NewExecutor(testPolicy(5), nil, nil)
	start, end := fetchWindow()
	items := exec.Call(ctx, p, "000001", start, end, 10)

	if p.calls != 1 {
		t.Fatalf("expected backoff to observe cancellation after 1 invocation, got %d", p.calls)
	}
	if len(items) != 0 {
		t.Errorf("expected empty result, got %v", items)
	}
}

func TestExecutorSuccessFirstTry(t *testing.T) {
	p := stub("steady")
	p.items = []domain.NewsItem{{Title: "calm markets today"}, {Title: "second headline"}}

	exec := NewExecutor(testPolicy(3), nil, nil)
	start, end := fetchWindow()
	items := exec.Call(context.Background(), p, "AAPL", start, end, 10)

	if p.calls != 1 {
		t.Fatalf("expected 1 invocation, got %d", p.calls)
	}
	if len(items) != 2 {
		t.Errorf("expected 2 items, got %d", len(items))
	}
}
