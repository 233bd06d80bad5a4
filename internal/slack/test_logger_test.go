package slack

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// testLogger captures client log entries so tests can assert on retries and
// auth guidance.
type testLogger struct {
	*zap.Logger
	observer *observer.ObservedLogs
}

func newTestLogger() *testLogger {
	core, logs := observer.New(zapcore.DebugLevel)
	return &testLogger{
		Logger:   zap.New(core),
		observer: logs,
	}
}

// HasMessage checks if a specific message was logged at any level
func (tl *testLogger) HasMessage(msg string) bool {
	return tl.observer.FilterMessage(msg).Len() > 0
}

// CountMessage returns how many times msg was logged.
func (tl *testLogger) CountMessage(msg string) int {
	return tl.observer.FilterMessage(msg).Len()
}

// FieldString returns the string value of key on the first entry logged
// with msg.
func (tl *testLogger) FieldString(msg, key string) (string, bool) {
	for _, entry := range tl.observer.FilterMessage(msg).All() {
		if v, ok := entry.ContextMap()[key].(string); ok {
			return v, true
		}
	}
	return "", false
}
