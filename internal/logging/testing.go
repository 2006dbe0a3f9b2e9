// internal/logging/testing.go
package logging

import (
	"reflect"
	"slices"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// TestLogger records every entry so tests can assert on what the codec
// service, servers and CLI logged.
type TestLogger struct {
	*Logger
	observed *observer.ObservedLogs
}

// NewTestLogger observes entries at every level, fields unredacted.
func NewTestLogger() *TestLogger {
	return newTestLogger(NewDefaultConfig(), false)
}

// NewRedactedTestLogger observes entries after the default payload
// redaction, the way a production logger would write them.
func NewRedactedTestLogger() *TestLogger {
	return newTestLogger(NewDefaultConfig(), true)
}

func newTestLogger(cfg *Config, redact bool) *TestLogger {
	core, observed := observer.New(TraceLevel)

	var c zapcore.Core = core
	if redact {
		redactor, err := NewRedactor(cfg.Redaction)
		if err != nil {
			panic("logging: default redaction config: " + err.Error())
		}
		c = redactor.Wrap(core)
	}

	return &TestLogger{
		Logger:   &Logger{zap: zap.New(c), config: cfg},
		observed: observed,
	}
}

// All returns all logged entries.
func (t *TestLogger) All() []observer.LoggedEntry {
	return t.observed.All()
}

// FilterMessage returns entries whose message contains msg.
func (t *TestLogger) FilterMessage(msg string) *observer.ObservedLogs {
	return t.observed.FilterMessageSnippet(msg)
}

// Reset drops everything recorded so far.
func (t *TestLogger) Reset() {
	t.observed.TakeAll()
}

// find returns the first entry at level whose message contains msg.
func (t *TestLogger) find(level zapcore.Level, msg string) (observer.LoggedEntry, bool) {
	for _, e := range t.observed.All() {
		if e.Level == level && strings.Contains(e.Message, msg) {
			return e, true
		}
	}
	return observer.LoggedEntry{}, false
}

// AssertLogged fails unless an entry at level contains msg.
func (t *TestLogger) AssertLogged(tb testing.TB, level zapcore.Level, msg string) {
	tb.Helper()
	if _, ok := t.find(level, msg); !ok {
		tb.Errorf("expected %v entry containing %q, got %d entries: %s", level, msg, t.observed.Len(), t.summary())
	}
}

// AssertNotLogged fails if an entry at level contains msg.
func (t *TestLogger) AssertNotLogged(tb testing.TB, level zapcore.Level, msg string) {
	tb.Helper()
	if e, ok := t.find(level, msg); ok {
		tb.Errorf("unexpected %v entry %q", level, e.Message)
	}
}

// AssertField fails unless an entry whose message contains msg carries key
// with the expected value.
func (t *TestLogger) AssertField(tb testing.TB, msg, key string, expected any) {
	tb.Helper()
	for _, e := range t.FilterMessage(msg).All() {
		v, ok := e.ContextMap()[key]
		if ok && reflect.DeepEqual(v, expected) {
			return
		}
	}
	tb.Errorf("field %q=%v not found in entries containing %q: %s", key, expected, msg, t.summary())
}

// AssertNoPayloads fails if a payload field (see PayloadFields) was written
// unredacted. Use it with NewRedactedTestLogger.
func (t *TestLogger) AssertNoPayloads(tb testing.TB) {
	tb.Helper()
	for _, e := range t.observed.All() {
		for _, f := range e.Context {
			if f.Type != zapcore.StringType || !slices.Contains(PayloadFields, strings.ToLower(f.Key)) {
				continue
			}
			if !strings.HasPrefix(f.String, "[REDACTED") {
				tb.Errorf("payload field %q leaked in %q: %q", f.Key, e.Message, f.String)
			}
		}
	}
}

// AssertTraceCorrelation fails unless an entry containing msg carries trace_id.
func (t *TestLogger) AssertTraceCorrelation(tb testing.TB, msg string) {
	tb.Helper()
	for _, e := range t.FilterMessage(msg).All() {
		if _, ok := e.ContextMap()["trace_id"]; ok {
			return
		}
	}
	tb.Errorf("no entry containing %q carries trace_id", msg)
}

func (t *TestLogger) summary() string {
	msgs := make([]string, 0, t.observed.Len())
	for _, e := range t.observed.All() {
		msgs = append(msgs, e.Level.String()+":"+e.Message)
	}
	return "[" + strings.Join(msgs, ", ") + "]"
}
