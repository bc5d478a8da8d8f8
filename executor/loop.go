package executor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Baduit/Timer/clock"
	"github.com/Baduit/Timer/internal/logger"
	"github.com/Baduit/Timer/waiter"
)

// nextFunc returns how long to wait before the next invocation, or false
// when there is no next invocation.
type nextFunc func(now time.Time) (time.Duration, bool)

// loop is the repeating executor shared by Interval and Schedule.
//
// Each iteration waits, exits if a hard stop was requested, invokes the
// callback, then exits if a soft stop was requested. A hard stop interrupts
// the wait; a soft stop lets it run to completion.
type loop struct {
	kind string
	opts options

	mu     sync.Mutex
	soft   atomic.Bool
	hard   atomic.Bool
	cancel context.CancelFunc
	done   chan struct{}

	invocations atomic.Int64
}

func (l *loop) init(kind string, opts []Option) {
	l.kind = kind
	l.opts = newOptions(kind, opts)
}

func (l *loop) start(next nextFunc, fn func() error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !exited(l.done) {
		panic(fmt.Sprintf("executor: %s started while already running", l.kind))
	}
	if l.cancel != nil {
		l.cancel()
	}

	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel
	l.soft.Store(false)
	l.hard.Store(false)
	l.done = make(chan struct{})

	l.opts.metrics.ExecutorStarted(l.kind)
	go l.run(ctx, next, fn, l.done)
}

func (l *loop) run(ctx context.Context, next nextFunc, fn func() error, done chan struct{}) {
	defer close(done)
	defer l.opts.metrics.ExecutorExited(l.kind)

	w := waiter.New(l.opts.source)
	for {
		d, ok := next(l.opts.source.Now())
		if !ok {
			logger.Warnf("%s: schedule has no next activation, exiting", l.opts.name)
			return
		}
		if err := w.WaitContext(ctx, d); err != nil || l.hard.Load() {
			break
		}
		l.call(fn)
		if l.soft.Load() {
			break
		}
	}
	logger.Debugf("%s: exited after %d invocations", l.opts.name, l.invocations.Load())
}

func (l *loop) call(fn func() error) {
	sw := clock.NewWithSource(l.opts.source)
	err := invoke(fn)
	l.invocations.Add(1)
	l.opts.metrics.ObserveCallback(l.kind, outcome(err), sw.Elapsed())

	// Failures never end the loop.
	if err != nil {
		l.opts.reportError(err)
	}
}

func (l *loop) stop(hard bool) {
	l.mu.Lock()
	done := l.done
	if done != nil {
		if hard {
			l.hard.Store(true)
			l.cancel()
		} else {
			l.soft.Store(true)
		}
	}
	l.mu.Unlock()

	if done == nil {
		return
	}
	sw := clock.NewWithSource(l.opts.source)
	<-done
	l.opts.metrics.ObserveStop(l.kind, sw.Elapsed())
}

// SoftStop lets the current wait finish, invokes the callback one last time,
// then blocks until the executor goroutine has exited. It may block for up to
// one full period. It is a no-op on an executor that was never started.
//
// SoftStop must not be called from the executor's own callback.
func (l *loop) SoftStop() {
	l.stop(false)
}

// HardStop abandons the current wait without invoking the callback again and
// blocks until the executor goroutine has exited. If the callback is running,
// HardStop waits for it to return. It is a no-op on an executor that was
// never started.
//
// HardStop must not be called from the executor's own callback.
func (l *loop) HardStop() {
	l.stop(true)
}

// Close hard-stops the executor. It always returns nil.
func (l *loop) Close() error {
	l.HardStop()
	return nil
}

// Invocations returns the number of callback invocations that have
// completed, including ones that failed.
func (l *loop) Invocations() int64 {
	return l.invocations.Load()
}
