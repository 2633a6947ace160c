package resilience

import (
	"context"
	"sync"
)

// SingleFlight coalesces concurrent calls for the same cache key into one
// in-flight upstream request. The first caller runs fn; duplicates block on
// its outcome or give up when their own context ends. The winner is never
// interrupted by a waiter's cancellation.
type SingleFlight struct {
	mu       sync.Mutex
	inflight map[string]*flightCall
}

type flightCall struct {
	done chan struct{}
	val  any
	err  error
}

// Do returns fn's result for key, running fn at most once across concurrent
// callers. The bool reports whether the result was shared from another
// caller's run.
func (f *SingleFlight) Do(ctx context.Context, key string, fn func() (any, error)) (any, error, bool) {
	f.mu.Lock()
	if f.inflight == nil {
		f.inflight = make(map[string]*flightCall)
	}
	if c, ok := f.inflight[key]; ok {
		f.mu.Unlock()
		select {
		case <-c.done:
			return c.val, c.err, true
		case <-ctx.Done():
			return nil, ctx.Err(), true
		}
	}

	c := &flightCall{done: make(chan struct{})}
	f.inflight[key] = c
	f.mu.Unlock()

	c.val, c.err = fn()

	f.mu.Lock()
	delete(f.inflight, key)
	f.mu.Unlock()
	close(c.done)

	return c.val, c.err, false
}
