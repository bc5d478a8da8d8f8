// Package logger provides leveled logging to stdout, an optional rotated log
// file and in-process subscribers.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// LogLevel represents the severity level of a log message.
type LogLevel string

const (
	Debug LogLevel = "DEBUG"
	Info  LogLevel = "INFO"
	Warn  LogLevel = "WARN"
	Error LogLevel = "ERROR"
)

// levelPriority returns the numeric priority of a log level (higher = more severe)
func levelPriority(level LogLevel) int {
	switch level {
	case Debug:
		return 0
	case Info:
		return 1
	case Warn:
		return 2
	case Error:
		return 3
	default:
		return 1
	}
}

// ParseLevel maps "debug", "info", "warn" and "error" to a LogLevel.
// Anything else is Info.
func ParseLevel(level string) LogLevel {
	switch level {
	case "debug":
		return Debug
	case "warn":
		return Warn
	case "error":
		return Error
	default:
		return Info
	}
}

// LogEntry represents a single log message with metadata for streaming to clients.
type LogEntry struct {
	Timestamp string   `json:"timestamp"`
	Level     LogLevel `json:"level"`
	Message   string   `json:"message"`
}

var (
	// mu guards every package variable below. Executor goroutines log
	// concurrently with SetLevel and Init.
	mu         sync.RWMutex
	minLevel   = Info
	listeners  []chan LogEntry
	fileLogger *lumberjack.Logger
)

func init() {
	// Default to stdout only until Init() is called with a log directory
	log.SetOutput(os.Stdout)
	log.SetFlags(0) // timestamps are added by Log
}

// SetLevel sets the minimum log level. Valid values: "debug", "info", "warn", "error"
func SetLevel(level string) {
	lvl := ParseLevel(level)
	mu.Lock()
	minLevel = lvl
	mu.Unlock()
	log.Printf("Log level set to: %s", lvl)
}

// Enabled reports whether messages at level are currently written.
func Enabled(level LogLevel) bool {
	mu.RLock()
	defer mu.RUnlock()
	return levelPriority(level) >= levelPriority(minLevel)
}

// Init additionally writes log output to a rotated timer.log in logDir.
// An empty logDir keeps stdout only.
func Init(logDir string) error {
	if logDir == "" {
		return nil
	}
	if err := os.MkdirAll(logDir, 0700); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	fl := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, "timer.log"),
		MaxSize:    20, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}

	mu.Lock()
	if fileLogger != nil {
		_ = fileLogger.Close()
	}
	fileLogger = fl
	mu.Unlock()

	log.SetOutput(io.MultiWriter(os.Stdout, fl))
	return nil
}

// Close detaches and closes the log file opened by Init, if any.
func Close() error {
	mu.Lock()
	fl := fileLogger
	fileLogger = nil
	mu.Unlock()

	log.SetOutput(os.Stdout)
	if fl == nil {
		return nil
	}
	return fl.Close()
}

// GetLogDir returns the directory where log files are stored, or "" when
// logging to stdout only.
func GetLogDir() string {
	mu.RLock()
	defer mu.RUnlock()
	if fileLogger != nil {
		return filepath.Dir(fileLogger.Filename)
	}
	return ""
}

// Subscribe returns a channel that receives all log entries for real-time streaming.
func Subscribe() chan LogEntry {
	mu.Lock()
	defer mu.Unlock()
	ch := make(chan LogEntry, 100)
	listeners = append(listeners, ch)
	return ch
}

// Unsubscribe removes a log listener channel and closes it.
func Unsubscribe(ch chan LogEntry) {
	mu.Lock()
	defer mu.Unlock()
	for i, l := range listeners {
		if l == ch {
			listeners = append(listeners[:i], listeners[i+1:]...)
			close(ch)
			break
		}
	}
}

func broadcast(entry LogEntry) {
	mu.RLock()
	defer mu.RUnlock()
	for _, ch := range listeners {
		select {
		case ch <- entry:
		default:
			// Drop message if channel is full to prevent blocking
		}
	}
}

// Log writes a formatted message at the specified level to stdout, file, and subscribers.
func Log(level LogLevel, format string, v ...interface{}) {
	if !Enabled(level) {
		return
	}

	msg := fmt.Sprintf(format, v...)
	timestamp := time.Now().Format(time.RFC3339Nano)

	// Format: timestamp [LEVEL] message
	log.Printf("%s [%s] %s", timestamp, level, msg)

	broadcast(LogEntry{
		Timestamp: timestamp,
		Level:     level,
		Message:   msg,
	})
}

// Infof logs a formatted message at INFO level.
func Infof(format string, v ...interface{}) {
	Log(Info, format, v...)
}

// Errorf logs a formatted message at ERROR level.
func Errorf(format string, v ...interface{}) {
	Log(Error, format, v...)
}

// Debugf logs a formatted message at DEBUG level.
func Debugf(format string, v ...interface{}) {
	Log(Debug, format, v...)
}

// Warnf logs a formatted message at WARN level.
func Warnf(format string, v ...interface{}) {
	Log(Warn, format, v...)
}
