package status

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/fin-foresight/foresight/internal/types"
)

// AgentState is one agent's row in a Snapshot.
type AgentState struct {
	ID        types.AgentID     `json:"id" yaml:"id"`
	Status    types.AgentStatus `json:"status" yaml:"status"`
	Message   string            `json:"message,omitempty" yaml:"message,omitempty"`
	StartedAt *time.Time        `json:"started_at,omitempty" yaml:"started_at,omitempty"`
	DoneAt    *time.Time        `json:"done_at,omitempty" yaml:"done_at,omitempty"`
}

// Snapshot is a point-in-time copy of a run. Agents are in registry order.
type Snapshot struct {
	RunStatus      types.RunStatus `json:"run_status" yaml:"run_status"`
	Agents         []AgentState    `json:"agents" yaml:"agents"`
	ActiveAgent    types.AgentID   `json:"active_agent,omitempty" yaml:"active_agent,omitempty"`
	CompletedCount int             `json:"completed_count" yaml:"completed_count"`
	Total          int             `json:"total" yaml:"total"`
	StartedAt      *time.Time      `json:"started_at,omitempty" yaml:"started_at,omitempty"`
	DoneAt         *time.Time      `json:"done_at,omitempty" yaml:"done_at,omitempty"`
}

// Percent returns the share of completed agents, 0 to 100.
func (s Snapshot) Percent() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.CompletedCount) * 100 / float64(s.Total)
}

// Agent returns the state of one agent.
func (s Snapshot) Agent(id types.AgentID) (AgentState, bool) {
	for _, a := range s.Agents {
		if a.ID == id {
			return a, true
		}
	}
	return AgentState{}, false
}

// Count returns how many agents are in the given status.
func (s Snapshot) Count(status types.AgentStatus) int {
	n := 0
	for _, a := range s.Agents {
		if a.Status == status {
			n++
		}
	}
	return n
}

// Duration returns how long the run took, or has been running.
func (s Snapshot) Duration() time.Duration {
	if s.StartedAt == nil {
		return 0
	}
	if s.DoneAt != nil {
		return s.DoneAt.Sub(*s.StartedAt)
	}
	return time.Since(*s.StartedAt)
}

// Encode writes v to w as "json" or "yaml".
func Encode(w io.Writer, format string, v any) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unsupported output format %q", format)
}
