// Package testutil provides log capture, a fake analysis backend and payload
// fixtures for foresight tests.
package testutil

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"
)

// LogEntry is one captured log record with its attributes flattened.
type LogEntry struct {
	Time    time.Time
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

// TestLogger captures structured logs for assertion in tests.
type TestLogger struct {
	Logger *slog.Logger

	mu      sync.RWMutex
	entries []LogEntry
}

// NewTestLogger creates a logger that records every entry at debug level and above.
func NewTestLogger(t *testing.T) *TestLogger {
	t.Helper()
	tl := &TestLogger{}
	tl.Logger = slog.New(&captureHandler{sink: tl})
	return tl
}

type captureHandler struct {
	sink  *TestLogger
	attrs []slog.Attr
	group string
}

func (h *captureHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *captureHandler) Handle(_ context.Context, r slog.Record) error {
	entry := LogEntry{
		Time:    r.Time,
		Level:   r.Level,
		Message: r.Message,
		Attrs:   make(map[string]any, len(h.attrs)+r.NumAttrs()),
	}
	for _, a := range h.attrs {
		entry.Attrs[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		key := a.Key
		if h.group != "" {
			key = h.group + "." + key
		}
		entry.Attrs[key] = a.Value.Any()
		return true
	})

	h.sink.mu.Lock()
	h.sink.entries = append(h.sink.entries, entry)
	h.sink.mu.Unlock()
	return nil
}

func (h *captureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	for _, a := range attrs {
		if h.group != "" {
			a.Key = h.group + "." + a.Key
		}
		merged = append(merged, a)
	}
	return &captureHandler{sink: h.sink, attrs: merged, group: h.group}
}

func (h *captureHandler) WithGroup(name string) slog.Handler {
	group := name
	if h.group != "" {
		group = h.group + "." + name
	}
	return &captureHandler{sink: h.sink, attrs: h.attrs, group: group}
}

// Entries returns a copy of all captured log entries.
func (l *TestLogger) Entries() []LogEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]LogEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Filter returns the entries for which keep returns true.
func (l *TestLogger) Filter(keep func(LogEntry) bool) []LogEntry {
	var out []LogEntry
	for _, e := range l.Entries() {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

// Containing returns entries whose message contains substring.
func (l *TestLogger) Containing(substring string) []LogEntry {
	return l.Filter(func(e LogEntry) bool { return strings.Contains(e.Message, substring) })
}

// WithAttr returns entries whose attribute key equals value.
func (l *TestLogger) WithAttr(key string, value any) []LogEntry {
	return l.Filter(func(e LogEntry) bool {
		v, ok := e.Attrs[key]
		return ok && v == value
	})
}

// CountLevel returns the number of entries at level.
func (l *TestLogger) CountLevel(level slog.Level) int {
	return len(l.Filter(func(e LogEntry) bool { return e.Level == level }))
}

// AssertContains fails the test if no entry message contains msg.
func (l *TestLogger) AssertContains(t *testing.T, msg string) {
	t.Helper()
	if len(l.Containing(msg)) == 0 {
		t.Errorf("Expected log to contain message %q, but it wasn't found", msg)
	}
}

// AssertNoErrors fails the test if any ERROR entry was logged.
func (l *TestLogger) AssertNoErrors(t *testing.T) {
	t.Helper()
	errs := l.Filter(func(e LogEntry) bool { return e.Level >= slog.LevelError })
	if len(errs) > 0 {
		messages := make([]string, len(errs))
		for i, e := range errs {
			messages[i] = e.Message
		}
		t.Errorf("Expected no errors, got %d: %v", len(errs), messages)
	}
}

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
