package logger

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate resets the package state for one test and restores it afterwards.
func isolate(t *testing.T, level LogLevel) {
	t.Helper()
	mu.Lock()
	origLevel, origListeners := minLevel, listeners
	minLevel, listeners = level, nil
	mu.Unlock()

	t.Cleanup(func() {
		mu.Lock()
		minLevel, listeners = origLevel, origListeners
		mu.Unlock()
	})
}

func receive(t *testing.T, ch chan LogEntry) (LogEntry, bool) {
	t.Helper()
	select {
	case e := <-ch:
		return e, true
	case <-time.After(50 * time.Millisecond):
		return LogEntry{}, false
	}
}

// =============================================================================
// Level tests
// =============================================================================

func TestLevelPriority_Ordering(t *testing.T) {
	assert.Less(t, levelPriority(Debug), levelPriority(Info))
	assert.Less(t, levelPriority(Info), levelPriority(Warn))
	assert.Less(t, levelPriority(Warn), levelPriority(Error))
	assert.Equal(t, levelPriority(Info), levelPriority(LogLevel("unknown")))
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected LogLevel
	}{
		{"debug", Debug},
		{"info", Info},
		{"warn", Warn},
		{"error", Error},
		{"invalid", Info},
		{"DEBUG", Info}, // case sensitive, falls back to Info
		{"", Info},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLevel(tt.input))
		})
	}
}

func TestSetLevel(t *testing.T) {
	isolate(t, Info)

	SetLevel("error")
	assert.False(t, Enabled(Warn))
	assert.True(t, Enabled(Error))

	SetLevel("debug")
	assert.True(t, Enabled(Debug))
}

// =============================================================================
// Subscribe/Unsubscribe tests
// =============================================================================

func TestSubscribe_UniqueChannels(t *testing.T) {
	isolate(t, Info)

	ch1 := Subscribe()
	ch2 := Subscribe()

	assert.Len(t, listeners, 2)
	assert.NotEqual(t, ch1, ch2)
}

func TestUnsubscribe(t *testing.T) {
	isolate(t, Info)

	ch1 := Subscribe()
	ch2 := Subscribe()

	Unsubscribe(ch1)
	require.Len(t, listeners, 1)
	assert.Equal(t, ch2, listeners[0])

	_, ok := <-ch1
	assert.False(t, ok, "channel should be closed after unsubscribe")

	// Unknown channels are ignored.
	Unsubscribe(make(chan LogEntry))
	assert.Len(t, listeners, 1)
}

func TestBroadcast_DropsWhenFull(t *testing.T) {
	isolate(t, Info)
	ch := Subscribe()

	for i := 0; i < cap(ch); i++ {
		broadcast(LogEntry{Message: "fill"})
	}

	done := make(chan struct{})
	go func() {
		broadcast(LogEntry{Message: "overflow"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(100 * time.Millisecond):
		t.Fatal("broadcast() blocked when channel was full")
	}
	assert.Len(t, ch, cap(ch))
}

// =============================================================================
// Log tests
// =============================================================================

func TestLog_Filtering(t *testing.T) {
	tests := []struct {
		name      string
		minLevel  LogLevel
		logLevel  LogLevel
		expectMsg bool
	}{
		{"debug at debug level", Debug, Debug, true},
		{"debug at info level", Info, Debug, false},
		{"warn at info level", Info, Warn, true},
		{"warn at error level", Error, Warn, false},
		{"error at error level", Error, Error, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t, tt.minLevel)
			ch := Subscribe()

			Log(tt.logLevel, "test message")

			_, got := receive(t, ch)
			assert.Equal(t, tt.expectMsg, got)
		})
	}
}

func TestLog_Helpers(t *testing.T) {
	isolate(t, Debug)
	ch := Subscribe()

	helpers := map[LogLevel]func(string, ...interface{}){
		Debug: Debugf,
		Info:  Infof,
		Warn:  Warnf,
		Error: Errorf,
	}
	for level, fn := range helpers {
		fn("hello %s, number %d", "world", 42)

		entry, ok := receive(t, ch)
		require.True(t, ok, "no entry for %s", level)
		assert.Equal(t, level, entry.Level)
		assert.Equal(t, "hello world, number 42", entry.Message)
		assert.NotEmpty(t, entry.Timestamp)
	}
}

// =============================================================================
// File output tests
// =============================================================================

func TestInit_EmptyDirKeepsStdout(t *testing.T) {
	require.NoError(t, Init(""))
	assert.Equal(t, "", GetLogDir())
}

func TestInit_WritesToFile(t *testing.T) {
	isolate(t, Debug)
	logDir := filepath.Join(t.TempDir(), "subdir", "logs")

	require.NoError(t, Init(logDir))
	assert.Equal(t, logDir, GetLogDir())

	Infof("%s", "unique-test-message-12345")
	require.NoError(t, Close())
	assert.Equal(t, "", GetLogDir())

	content, err := os.ReadFile(filepath.Join(logDir, "timer.log"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "unique-test-message-12345")
}

func TestClose_WithoutInit(t *testing.T) {
	assert.NoError(t, Close())
}
