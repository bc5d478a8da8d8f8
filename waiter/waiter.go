// Package waiter provides a cancelable sleep: a timed wait that other
// goroutines can cut short with WakeOne or WakeAll.
package waiter

import (
	"context"
	"sync"
	"time"

	"github.com/Baduit/Timer/clock"
)

// Waiter parks goroutines for a bounded duration. Wakes are not remembered:
// WakeOne and WakeAll only affect goroutines that are already waiting.
//
// The zero value is ready to use and reads the real time source.
type Waiter struct {
	src clock.Source

	mu sync.Mutex
	// parked is ordered by arrival, WakeOne releases the oldest entry.
	parked []chan struct{}
}

// New returns a Waiter reading src. A nil src means the real time source.
func New(src clock.Source) *Waiter {
	return &Waiter{src: src}
}

// Wait blocks until d elapses or the waiter is woken, whichever comes first.
// It does not report which of the two happened; use WaitWoken for that.
func (w *Waiter) Wait(d time.Duration) {
	w.wait(context.Background(), d)
}

// WaitWoken is Wait, returning true if the wait was ended by WakeOne or WakeAll
// and false if d elapsed.
func (w *Waiter) WaitWoken(d time.Duration) bool {
	woken, _ := w.wait(context.Background(), d)
	return woken
}

// WaitContext is Wait, also returning early with ctx.Err() once ctx is done.
// A nil error means the wait timed out or was woken.
func (w *Waiter) WaitContext(ctx context.Context, d time.Duration) error {
	_, err := w.wait(ctx, d)
	return err
}

// WakeOne wakes the goroutine that has been waiting the longest, if any.
func (w *Waiter) WakeOne() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.parked) == 0 {
		return
	}
	close(w.parked[0])
	w.parked[0] = nil
	w.parked = w.parked[1:]
}

// WakeAll wakes every goroutine currently waiting.
func (w *Waiter) WakeAll() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, ch := range w.parked {
		close(ch)
	}
	w.parked = nil
}

// Waiting returns the number of goroutines currently blocked in a wait.
func (w *Waiter) Waiting() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.parked)
}

func (w *Waiter) wait(ctx context.Context, d time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if d <= 0 {
		return false, nil
	}

	wake := make(chan struct{})
	w.mu.Lock()
	w.parked = append(w.parked, wake)
	w.mu.Unlock()

	expired := make(chan struct{})
	timer := clock.OrReal(w.src).AfterFunc(d, func() { close(expired) })
	defer timer.Stop()

	select {
	case <-wake:
		return true, nil
	case <-expired:
		// A wake that raced with the timeout still counts as consumed.
		return !w.unpark(wake), nil
	case <-ctx.Done():
		if !w.unpark(wake) {
			return true, nil
		}
		return false, ctx.Err()
	}
}

// unpark removes wake from the parked list, reporting false if a concurrent
// WakeOne or WakeAll already released it.
func (w *Waiter) unpark(wake chan struct{}) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i, ch := range w.parked {
		if ch == wake {
			w.parked = append(w.parked[:i], w.parked[i+1:]...)
			return true
		}
	}
	return false
}
