package orchestrator

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fin-foresight/foresight/internal/types"
)

// TraceAction represents the type of action being traced.
type TraceAction string

const (
	TraceActionStart    TraceAction = "start"    // Run started
	TraceActionInvoke   TraceAction = "invoke"   // Agent request sent
	TraceActionResult   TraceAction = "result"   // Step result applied
	TraceActionCascade  TraceAction = "cascade"  // Pending agent failed by cascade
	TraceActionComplete TraceAction = "complete" // Run reached a terminal status
)

// TraceEntry represents a single trace log entry.
type TraceEntry struct {
	Timestamp time.Time       `json:"ts"`
	Action    TraceAction     `json:"action"`
	RunID     string          `json:"run_id,omitempty"`
	Agent     types.AgentID   `json:"agent,omitempty"`
	Result    string          `json:"result,omitempty"` // success, application_error, transport_error
	Next      types.NextAgent `json:"next,omitempty"`
	Status    string          `json:"status,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// Tracer records controller transitions.
type Tracer interface {
	Log(entry TraceEntry) error
}

// JSONLTracer writes one JSON object per line.
type JSONLTracer struct {
	mu    sync.Mutex
	w     io.Writer
	runID string
	now   func() time.Time
}

// NewJSONLTracer creates a tracer writing to w.
func NewJSONLTracer(w io.Writer, runID string) *JSONLTracer {
	return &JSONLTracer{w: w, runID: runID, now: time.Now}
}

// OpenTraceFile opens path for appending and returns a tracer over it.
// The caller closes the returned file.
func OpenTraceFile(path, runID string) (*JSONLTracer, *os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, nil, fmt.Errorf("creating trace directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening trace file: %w", err)
	}
	return NewJSONLTracer(f, runID), f, nil
}

// Log writes a trace entry.
func (t *JSONLTracer) Log(entry TraceEntry) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry.Timestamp = t.now()
	if entry.RunID == "" {
		entry.RunID = t.runID
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshaling trace entry: %w", err)
	}
	if _, err := t.w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("writing trace entry: %w", err)
	}
	return nil
}

// resultKind names a StepResult variant for traces and logs.
func resultKind(r types.StepResult) string {
	switch r.(type) {
	case types.Success:
		return "success"
	case types.ApplicationError:
		return "application_error"
	case types.TransportError:
		return "transport_error"
	}
	return "unknown"
}
