package stage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/UIDickinson/EE-RI-Bot/adapter"
)

// FanOutOptions bounds one stage's concurrent adapter calls.
type FanOutOptions struct {
	// Concurrency caps simultaneous in-flight calls, respecting upstream
	// rate limits.
	Concurrency int
	// CallTimeout bounds a single call including its retries. It is
	// strictly smaller than the stage timeout carried by ctx.
	CallTimeout time.Duration
	// Retry is the per-call retry policy for transient failures.
	Retry adapter.Policy
}

// DefaultFanOutOptions returns the baseline fan-out bounds.
func DefaultFanOutOptions() FanOutOptions {
	return FanOutOptions{
		Concurrency: 4,
		CallTimeout: 20 * time.Second,
		Retry:       adapter.DefaultPolicy(),
	}
}

// Call is one unit of fan-out work, attributed to an adapter identity for
// error recording.
type Call[T any] struct {
	Adapter string
	Fn      func(ctx context.Context) (T, error)
}

// Outcome pairs a call's result (or error) with its adapter identity.
// Outcomes are returned in call order regardless of completion order.
type Outcome[T any] struct {
	Adapter string
	Value   T
	Err     error
}

// FanOut runs calls concurrently, bounded by opts.Concurrency, each retried
// per opts.Retry within opts.CallTimeout. When ctx expires (stage timeout)
// or is cancelled, still-pending calls are abandoned and recorded as
// failures while completed results are kept, so the stage proceeds with
// whatever finished.
func FanOut[T any](ctx context.Context, opts FanOutOptions, calls []Call[T]) []Outcome[T] {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}

	outcomes := make([]Outcome[T], len(calls))
	completed := make([]bool, len(calls))

	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := semaphore.NewWeighted(int64(opts.Concurrency))

	for i, c := range calls {
		wg.Add(1)
		go func(i int, c Call[T]) {
			defer wg.Done()

			if err := sem.Acquire(ctx, 1); err != nil {
				// Never scheduled; the abandonment sweep below records it.
				return
			}
			defer sem.Release(1)

			callCtx := ctx
			if opts.CallTimeout > 0 {
				var cancel context.CancelFunc
				callCtx, cancel = context.WithTimeout(ctx, opts.CallTimeout)
				defer cancel()
			}

			val, err := adapter.Do(callCtx, opts.Retry, c.Fn)

			mu.Lock()
			outcomes[i] = Outcome[T]{Adapter: c.Adapter, Value: val, Err: err}
			completed[i] = true
			mu.Unlock()
		}(i, c)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		// Stage budget expired: abandoned calls keep running until their
		// own contexts unwind, but their results are discarded.
	}

	mu.Lock()
	defer mu.Unlock()
	result := make([]Outcome[T], len(calls))
	for i := range calls {
		if completed[i] {
			result[i] = outcomes[i]
			continue
		}
		result[i] = Outcome[T]{
			Adapter: calls[i].Adapter,
			Err:     fmt.Errorf("call abandoned: %w", ctx.Err()),
		}
	}
	return result
}
