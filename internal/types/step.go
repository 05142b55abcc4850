package types

import (
	"encoding/json"
	"fmt"
)

// NextAgent is the backend's instruction after a step: the agent to run next,
// or one of the terminal signals NextCompleted and NextFailed.
type NextAgent string

const (
	NextCompleted NextAgent = "completed"
	NextFailed    NextAgent = "failed"
)

// IsAgent returns true if n names an agent rather than a terminal signal.
// An empty value is neither; callers fall back to registry order.
func (n NextAgent) IsAgent() bool {
	return n != "" && n != NextCompleted && n != NextFailed
}

// Agent returns n as an AgentID.
func (n NextAgent) Agent() AgentID {
	return AgentID(n)
}

// StepResult is the outcome of one remote agent invocation.
// It is exactly one of Success, ApplicationError or TransportError.
type StepResult interface {
	stepResult()
}

// Success is a step the backend reported as "success".
type Success struct {
	Results *Results
	Next    NextAgent
}

// ApplicationError is a step the backend understood but reported as failed.
// Results holds any partial payload that came with the failure.
type ApplicationError struct {
	Message string
	Results *Results
}

// TransportError is a step whose request could not be completed or whose
// response could not be parsed.
type TransportError struct {
	Cause error
}

func (Success) stepResult()          {}
func (ApplicationError) stepResult() {}
func (TransportError) stepResult()   {}

// Error implements error.
func (e TransportError) Error() string {
	if e.Cause == nil {
		return "transport error"
	}
	return e.Cause.Error()
}

// Unwrap returns the underlying cause.
func (e TransportError) Unwrap() error {
	return e.Cause
}

// Results is the "results" object of a run_agent response: one payload per
// agent plus the backend's current_agent pointer.
type Results struct {
	Agents       map[AgentID]*AgentResult
	CurrentAgent NextAgent
}

// For returns the payload for an agent, or nil. Safe on a nil receiver.
func (r *Results) For(id AgentID) *AgentResult {
	if r == nil {
		return nil
	}
	return r.Agents[id]
}

// UnmarshalJSON decodes every key except current_agent as an agent payload.
// Payloads that do not match their agent's shape are kept as generic fields
// so a malformed section never fails the whole envelope.
func (r *Results) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decoding results: %w", err)
	}

	r.Agents = make(map[AgentID]*AgentResult, len(raw))
	r.CurrentAgent = ""
	for key, value := range raw {
		if key == "current_agent" {
			var next string
			if err := json.Unmarshal(value, &next); err == nil {
				r.CurrentAgent = NextAgent(next)
			}
			continue
		}
		id := AgentID(key)
		r.Agents[id] = DecodeAgentResult(id, value)
	}
	return nil
}

// MarshalJSON re-encodes results in the backend's shape.
func (r *Results) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Agents)+1)
	for id, res := range r.Agents {
		out[string(id)] = res
	}
	if r.CurrentAgent != "" {
		out["current_agent"] = r.CurrentAgent
	}
	return json.Marshal(out)
}
