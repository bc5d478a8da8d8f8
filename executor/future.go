package executor

import "context"

// Future is the single-use handoff of a Deadline callback's result.
// It is resolved exactly once, by the executor goroutine.
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

func (f *Future[T]) resolve(val T, err error) {
	f.val, f.err = val, err
	close(f.done)
}

// Done returns a channel closed once the result is available.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Get blocks until the result is available and returns it. The error is the
// callback's error, a *PanicError, or ErrCanceled.
func (f *Future[T]) Get() (T, error) {
	<-f.done
	return f.val, f.err
}

// Wait is Get bounded by ctx.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
