package async

import (
	"context"
	"sync"
)

// Flight collapses concurrent calls into a single in-flight computation.
// While a computation started by Do is running, every further call to Do
// receives the same Future instead of starting a new one. Once it completes
// the slot is released and the next Do starts a fresh computation.
//
// The zero value is ready to use. A Flight must not be copied after first use.
type Flight[T any] struct {
	mu      sync.Mutex
	current *Future[T]
}

// Do returns the in-flight Future, or starts fn and returns its Future.
// The boolean result reports whether this call started the computation.
//
// fn receives ctx unchanged; callers that share the computation between
// independent requesters should pass a context that outlives any one of them
// (for example context.WithoutCancel).
func (g *Flight[T]) Do(ctx context.Context, fn func(context.Context) (T, error)) (*Future[T], bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.current != nil {
		return g.current, false
	}

	f := newFuture[T]()
	go func() {
		defer close(f.done)
		result, err := fn(ctx)
		// Release the slot before the Future resolves so that a caller woken
		// by the result can immediately start a new computation.
		g.release(f)
		f.complete(result, err)
	}()
	g.current = f

	return f, true
}

// InFlight reports whether a computation is currently running.
func (g *Flight[T]) InFlight() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current != nil
}

func (g *Flight[T]) release(f *Future[T]) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.current == f {
		g.current = nil
	}
}
