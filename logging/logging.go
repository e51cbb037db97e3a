// Package logging contains the structured loggers used by the drive stack.
package logging

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// NewLogger returns a logger that writes Info+ lines to stdout with UTC timestamps.
func NewLogger(name string) Logger {
	return &impl{name, NewAtomicLevelAt(INFO), true, []Appender{NewStdoutAppender()}}
}

// NewTestLogger returns a Debug+ logger that writes to the test object in local time.
func NewTestLogger(tb testing.TB) Logger {
	logger, _ := NewObservedTestLogger(tb)
	return logger
}

// NewObservedTestLogger is like NewTestLogger but also records entries for assertions.
func NewObservedTestLogger(tb testing.TB) (Logger, *observer.ObservedLogs) {
	logger := &impl{"", NewAtomicLevelAt(DEBUG), false, []Appender{NewTestAppender(tb)}}
	observerCore, observedLogs := observer.New(zap.LevelEnablerFunc(zapcore.DebugLevel.Enabled))
	logger.AddAppender(observerCore)
	return logger, observedLogs
}
