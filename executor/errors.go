package executor

import (
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/Baduit/Timer/metrics"
)

// ErrCanceled is the error of a Future whose Deadline was stopped before the
// callback ran. The value is then the zero value of the result type.
var ErrCanceled = errors.New("executor: canceled before the deadline")

// PanicError is returned in place of a callback that panicked.
type PanicError struct {
	Value interface{}
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("executor: callback panicked: %v", e.Value)
}

// Unwrap returns the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// invoke calls fn, converting a panic into a *PanicError.
func invoke(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return fn()
}

func outcome(err error) string {
	var pe *PanicError
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.As(err, &pe):
		return metrics.OutcomePanic
	default:
		return metrics.OutcomeError
	}
}

// exited reports whether a run's done channel is nil or closed.
func exited(done chan struct{}) bool {
	if done == nil {
		return true
	}
	select {
	case <-done:
		return true
	default:
		return false
	}
}
