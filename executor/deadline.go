package executor

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Baduit/Timer/clock"
	"github.com/Baduit/Timer/internal/logger"
	"github.com/Baduit/Timer/waiter"
)

// Deadline runs a callback once, after a delay, on its own goroutine.
// It can't be paused.
type Deadline[T any] struct {
	opts options

	mu       sync.Mutex
	canceled atomic.Bool
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewDeadline returns an idle Deadline.
func NewDeadline[T any](opts ...Option) *Deadline[T] {
	return &Deadline[T]{opts: newOptions(kindDeadline, opts)}
}

// AfterFunc creates a Deadline and starts it with d and fn.
func AfterFunc[T any](d time.Duration, fn func() (T, error), opts ...Option) (*Deadline[T], *Future[T]) {
	dl := NewDeadline[T](opts...)
	return dl, dl.Start(d, fn)
}

// Start arms the deadline: after d, fn runs on a new goroutine unless Stop was
// called first. The returned Future yields fn's result, or the zero value and
// ErrCanceled if the deadline was stopped before fn ran.
//
// Start panics if a previous run of this Deadline is still active. A Deadline
// can be armed again once its previous run has fired or been stopped.
func (dl *Deadline[T]) Start(d time.Duration, fn func() (T, error)) *Future[T] {
	dl.mu.Lock()
	defer dl.mu.Unlock()

	if !exited(dl.done) {
		panic("executor: Deadline.Start called while a previous run is active")
	}
	if dl.cancel != nil {
		dl.cancel()
	}

	ctx, cancel := context.WithCancel(context.Background())
	dl.cancel = cancel
	dl.canceled.Store(false)
	dl.done = make(chan struct{})

	fut := newFuture[T]()
	dl.opts.metrics.ExecutorStarted(kindDeadline)
	logger.Debugf("%s: armed for %s", dl.opts.name, d)

	go dl.run(ctx, d, fn, fut, dl.done)
	return fut
}

func (dl *Deadline[T]) run(ctx context.Context, d time.Duration, fn func() (T, error), fut *Future[T], done chan struct{}) {
	defer close(done)
	defer dl.opts.metrics.ExecutorExited(kindDeadline)

	// Only Stop cancels ctx, and it sets the flag first.
	_ = waiter.New(dl.opts.source).WaitContext(ctx, d)

	if dl.canceled.Load() {
		logger.Debugf("%s: stopped before the deadline", dl.opts.name)
		dl.opts.metrics.CallbackSkipped(kindDeadline)
		var zero T
		fut.resolve(zero, ErrCanceled)
		return
	}

	var val T
	sw := clock.NewWithSource(dl.opts.source)
	err := invoke(func() error {
		var err error
		val, err = fn()
		return err
	})
	dl.opts.metrics.ObserveCallback(kindDeadline, outcome(err), sw.Elapsed())
	if err != nil {
		logger.Debugf("%s: callback returned error: %v", dl.opts.name, err)
	}
	fut.resolve(val, err)
}

// Stop cancels the deadline and blocks until the executor goroutine has
// exited. If the callback has not started it never will, and the Future
// resolves with ErrCanceled. If the callback is running, Stop waits for it.
// Stop is a no-op on a Deadline that was never started.
//
// Stop must not be called from the Deadline's own callback.
func (dl *Deadline[T]) Stop() {
	dl.mu.Lock()
	done := dl.done
	if done != nil {
		dl.canceled.Store(true)
		dl.cancel()
	}
	dl.mu.Unlock()

	if done == nil {
		return
	}
	sw := clock.NewWithSource(dl.opts.source)
	<-done
	dl.opts.metrics.ObserveStop(kindDeadline, sw.Elapsed())
}

// Close stops the Deadline. It always returns nil.
func (dl *Deadline[T]) Close() error {
	dl.Stop()
	return nil
}
