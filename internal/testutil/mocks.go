// Package testutil provides test utilities: a deterministic time source and leak checks.
package testutil

import (
	"sort"
	"sync"
	"time"

	"github.com/Baduit/Timer/clock"
)

// =============================================================================
// MockSource - Testable time abstraction
// =============================================================================

// MockSource implements clock.Source for testing, providing deterministic control
// over time-dependent operations like deadlines and periodic callbacks.
type MockSource struct {
	mu           sync.Mutex
	now          time.Time
	pendingFuncs []pendingFunc
}

type pendingFunc struct {
	executeAt time.Time
	fn        func()
	stopped   bool
}

// MockTimer implements clock.Timer for testing.
type MockTimer struct {
	source *MockSource
	index  int
}

// Compile-time assertion that MockSource implements clock.Source
var _ clock.Source = (*MockSource)(nil)

// NewMockSource creates a new MockSource with the current time as initial value.
func NewMockSource() *MockSource {
	return &MockSource{
		now: time.Now(),
	}
}

// NewMockSourceAt creates a new MockSource with a specific initial time.
func NewMockSourceAt(t time.Time) *MockSource {
	return &MockSource{
		now: t,
	}
}

// Now returns the mock's current time.
func (m *MockSource) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// SetNow sets the mock's current time without triggering pending functions.
func (m *MockSource) SetNow(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = t
}

// AfterFunc schedules f to be called after duration d.
// Returns a Timer that can be used to cancel the call.
func (m *MockSource) AfterFunc(d time.Duration, f func()) clock.Timer {
	m.mu.Lock()
	defer m.mu.Unlock()

	executeAt := m.now.Add(d)
	index := len(m.pendingFuncs)
	m.pendingFuncs = append(m.pendingFuncs, pendingFunc{
		executeAt: executeAt,
		fn:        f,
		stopped:   false,
	})

	return &MockTimer{source: m, index: index}
}

// Advance moves time forward by the given duration and executes any functions
// whose scheduled time has passed, earliest first. Returns the number of
// functions executed.
func (m *MockSource) Advance(d time.Duration) int {
	m.mu.Lock()
	newTime := m.now.Add(d)
	m.now = newTime

	// Collect functions to execute (those that haven't been stopped and are due)
	var due []*pendingFunc
	for i := range m.pendingFuncs {
		pf := &m.pendingFuncs[i]
		if !pf.stopped && !pf.executeAt.After(newTime) {
			due = append(due, pf)
		}
	}
	sort.SliceStable(due, func(i, j int) bool {
		return due[i].executeAt.Before(due[j].executeAt)
	})
	toExecute := make([]func(), 0, len(due))
	for _, pf := range due {
		toExecute = append(toExecute, pf.fn)
		pf.stopped = true // Mark as executed
	}
	m.mu.Unlock()

	// Execute outside the lock to avoid deadlocks
	for _, fn := range toExecute {
		fn()
	}
	return len(toExecute)
}

// FireAll immediately executes all pending scheduled functions, regardless of
// their scheduled time. Useful for testing without worrying about delays.
func (m *MockSource) FireAll() int {
	m.mu.Lock()
	var toExecute []func()
	for i := range m.pendingFuncs {
		pf := &m.pendingFuncs[i]
		if !pf.stopped {
			toExecute = append(toExecute, pf.fn)
			pf.stopped = true
		}
	}
	m.mu.Unlock()

	for _, fn := range toExecute {
		fn()
	}
	return len(toExecute)
}

// PendingCount returns the number of scheduled functions that haven't been
// executed or stopped.
func (m *MockSource) PendingCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, pf := range m.pendingFuncs {
		if !pf.stopped {
			count++
		}
	}
	return count
}

// Reset clears all pending scheduled functions and resets time to now.
func (m *MockSource) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pendingFuncs = nil
	m.now = time.Now()
}

// Stop prevents the timer from firing. Returns true if the timer was stopped,
// false if it had already fired or been stopped.
func (t *MockTimer) Stop() bool {
	t.source.mu.Lock()
	defer t.source.mu.Unlock()
	if t.index < len(t.source.pendingFuncs) && !t.source.pendingFuncs[t.index].stopped {
		t.source.pendingFuncs[t.index].stopped = true
		return true
	}
	return false
}
