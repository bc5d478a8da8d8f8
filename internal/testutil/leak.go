package testutil

import (
	"testing"

	"go.uber.org/goleak"
)

// LeakOptions is used to filter the goroutines.
var LeakOptions = []goleak.Option{
	// natefinch/lumberjack#56, the mill goroutine outlives the logger.
	goleak.IgnoreTopFunction("gopkg.in/natefinch/lumberjack%2ev2.(*Logger).millRun"),
	// net/http keeps idle client connections around after httptest servers close.
	goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
}

// MustTestMainWithLeakDetection runs the package tests and fails if any
// goroutine is still running once they finish.
//
//	func TestMain(m *testing.M) {
//		testutil.MustTestMainWithLeakDetection(m)
//	}
func MustTestMainWithLeakDetection(m *testing.M, options ...goleak.Option) {
	goleak.VerifyTestMain(m, append(LeakOptions, options...)...)
}

