package present

import (
	"sync"

	"github.com/fin-foresight/foresight/internal/orchestrator"
	"github.com/fin-foresight/foresight/internal/types"
)

// Report is one presented agent outcome in structured output.
type Report struct {
	Agent   types.AgentID      `json:"agent" yaml:"agent"`
	Status  types.AgentStatus  `json:"status" yaml:"status"`
	Message string             `json:"message,omitempty" yaml:"message,omitempty"`
	Error   string             `json:"error,omitempty" yaml:"error,omitempty"`
	Result  *types.AgentResult `json:"result,omitempty" yaml:"result,omitempty"`
}

// Collector records outcomes in presentation order instead of printing them.
type Collector struct {
	mu      sync.Mutex
	reports []Report
}

// Present implements orchestrator.Presenter.
func (c *Collector) Present(agent types.AgentID, outcome orchestrator.Outcome) {
	r := Report{
		Agent:   agent,
		Status:  outcome.Status,
		Message: outcome.Message,
		Result:  outcome.Result,
	}
	if outcome.Cause != nil {
		r.Error = outcome.Cause.Error()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.reports = append(c.reports, r)
}

// Reports returns a copy of the recorded outcomes.
func (c *Collector) Reports() []Report {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Report(nil), c.reports...)
}

// Result returns the latest outcome presented for agent.
func (c *Collector) Result(agent types.AgentID) (types.AgentStatus, string, *types.AgentResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.reports) - 1; i >= 0; i-- {
		if r := c.reports[i]; r.Agent == agent {
			return r.Status, r.Message, r.Result, true
		}
	}
	return "", "", nil, false
}

// Multi fans one outcome out to several presenters.
type Multi []orchestrator.Presenter

// Present implements orchestrator.Presenter.
func (m Multi) Present(agent types.AgentID, outcome orchestrator.Outcome) {
	for _, p := range m {
		p.Present(agent, outcome)
	}
}
