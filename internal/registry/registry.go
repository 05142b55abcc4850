// Package registry holds the ordered list of analysis agents a run executes.
// The order is the only valid execution sequence; the backend names the next
// agent after each step, and Next is the fallback when it does not.
package registry

import (
	"strings"

	ferrors "github.com/fin-foresight/foresight/internal/errors"
	"github.com/fin-foresight/foresight/internal/types"
)

// Registry is an immutable ordered set of agent ids.
type Registry struct {
	agents []types.AgentID
	index  map[types.AgentID]int
}

// New builds a registry from ids in execution order.
// Blank or repeated ids are rejected.
func New(ids ...types.AgentID) (*Registry, error) {
	r := &Registry{
		agents: make([]types.AgentID, 0, len(ids)),
		index:  make(map[types.AgentID]int, len(ids)),
	}
	for _, id := range ids {
		if strings.TrimSpace(string(id)) == "" {
			return nil, ferrors.ConfigInvalidValue("workflow.agents", string(id), "agent id must not be blank")
		}
		if _, dup := r.index[id]; dup {
			return nil, ferrors.AgentDuplicate(string(id))
		}
		r.index[id] = len(r.agents)
		r.agents = append(r.agents, id)
	}
	return r, nil
}

// FromNames builds a registry from configured agent names.
// An empty list yields the default pipeline.
func FromNames(names []string) (*Registry, error) {
	if len(names) == 0 {
		return Default(), nil
	}
	ids := make([]types.AgentID, len(names))
	for i, n := range names {
		ids[i] = types.AgentID(strings.TrimSpace(n))
	}
	return New(ids...)
}

// Default returns the four-stage pipeline served by the analysis backend.
func Default() *Registry {
	r, _ := New(
		types.AgentDataAnalyst,
		types.AgentTradeStrategy,
		types.AgentTradeAdvisor,
		types.AgentRiskAdvisor,
	)
	return r
}

// Agents returns a copy of the ordered agent ids.
func (r *Registry) Agents() []types.AgentID {
	out := make([]types.AgentID, len(r.agents))
	copy(out, r.agents)
	return out
}

// Len returns the number of agents.
func (r *Registry) Len() int {
	return len(r.agents)
}

// First returns the first agent, or false for an empty registry.
func (r *Registry) First() (types.AgentID, bool) {
	if len(r.agents) == 0 {
		return "", false
	}
	return r.agents[0], true
}

// Contains reports whether id is part of the registry.
func (r *Registry) Contains(id types.AgentID) bool {
	_, ok := r.index[id]
	return ok
}

// Next returns the agent after current. It returns false when current is the
// last agent or is not registered.
func (r *Registry) Next(current types.AgentID) (types.AgentID, bool) {
	i, ok := r.index[current]
	if !ok || i+1 >= len(r.agents) {
		return "", false
	}
	return r.agents[i+1], true
}
