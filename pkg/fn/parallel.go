package fn

import (
	"context"
	"sync"
)

// ParMap applies f to every element of in using at most workers
// goroutines. Output order matches input order. A worker count below 1
// is treated as 1. Cancellation stops new work from being picked up;
// elements never started keep their zero value.
func ParMap[In, Out any](ctx context.Context, in []In, workers int, f func(context.Context, In) Out) []Out {
	if len(in) == 0 {
		return nil
	}
	if workers < 1 {
		workers = 1
	}
	if workers > len(in) {
		workers = len(in)
	}

	out := make([]Out, len(in))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i := range in {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			out[i] = f(ctx, in[i])
		}(i)
	}
	wg.Wait()
	return out
}
