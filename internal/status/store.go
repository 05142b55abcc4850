// Package status tracks the per-agent and aggregate state of a workflow run.
//
// The Store is the single writer-side record of a run. The workflow
// controller mutates it one transition at a time; any goroutine may read it
// through Snapshot, which returns an independent deep copy.
package status

import (
	"fmt"
	"sync"
	"time"

	ferrors "github.com/fin-foresight/foresight/internal/errors"
	"github.com/fin-foresight/foresight/internal/registry"
	"github.com/fin-foresight/foresight/internal/types"
)

type agentEntry struct {
	status    types.AgentStatus
	message   string
	startedAt *time.Time
	doneAt    *time.Time
}

// Store holds the state of one workflow run.
type Store struct {
	mu sync.RWMutex

	order   []types.AgentID
	entries map[types.AgentID]*agentEntry

	run       types.RunStatus
	startedAt *time.Time
	doneAt    *time.Time

	now func() time.Time
}

// NewStore creates a store for the agents of reg, already initialized.
func NewStore(reg *registry.Registry) *Store {
	s := &Store{
		order: reg.Agents(),
		now:   time.Now,
	}
	s.Initialize()
	return s
}

// Initialize resets every agent to pending and the run to idle.
func (s *Store) Initialize() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[types.AgentID]*agentEntry, len(s.order))
	for _, id := range s.order {
		s.entries[id] = &agentEntry{status: types.AgentStatusPending}
	}
	s.run = types.RunStatusIdle
	s.startedAt = nil
	s.doneAt = nil
}

// SetStatus moves an agent to a new status. Setting the current status again
// is a no-op. It fails when the agent is unknown, already terminal, would move
// backwards, or would become a second processing agent.
func (s *Store) SetStatus(id types.AgentID, status types.AgentStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return ferrors.AgentNotFound(string(id))
	}
	if !status.Valid() {
		return ferrors.InvariantViolation(string(id), string(e.status), string(status), "unknown status")
	}
	if e.status == status {
		return nil
	}
	if e.status.IsTerminal() {
		return ferrors.InvariantViolation(string(id), string(e.status), string(status), "agent already finished")
	}
	if !e.status.CanTransitionTo(status) {
		return ferrors.InvariantViolation(string(id), string(e.status), string(status), "transition not allowed")
	}
	if status == types.AgentStatusProcessing {
		if active := s.activeLocked(); active != "" {
			return ferrors.InvariantViolation(string(id), string(e.status), string(status),
				fmt.Sprintf("%s is already processing", active))
		}
	}

	now := s.now()
	e.status = status
	switch {
	case status == types.AgentStatusProcessing:
		e.startedAt = &now
	case status.IsTerminal():
		e.doneAt = &now
	}
	return nil
}

// SetMessage attaches an explanation to an agent, shown next to its status.
func (s *Store) SetMessage(id types.AgentID, msg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return ferrors.AgentNotFound(string(id))
	}
	e.message = msg
	return nil
}

// SetRunStatus moves the run to a new status. Completed requires every agent
// completed; failed requires at least one error and nothing processing.
func (s *Store) SetRunStatus(status types.RunStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !status.Valid() {
		return ferrors.InvariantViolation("run", string(s.run), string(status), "unknown status")
	}
	if s.run == status {
		return nil
	}
	if !s.run.CanTransitionTo(status) {
		return ferrors.InvariantViolation("run", string(s.run), string(status), "transition not allowed")
	}

	switch status {
	case types.RunStatusCompleted:
		for _, id := range s.order {
			if st := s.entries[id].status; st != types.AgentStatusCompleted {
				return ferrors.InvariantViolation("run", string(s.run), string(status),
					fmt.Sprintf("%s is %s", id, st))
			}
		}
	case types.RunStatusFailed:
		if active := s.activeLocked(); active != "" {
			return ferrors.InvariantViolation("run", string(s.run), string(status),
				fmt.Sprintf("%s is still processing", active))
		}
		if !s.anyLocked(types.AgentStatusError) {
			return ferrors.InvariantViolation("run", string(s.run), string(status), "no agent failed")
		}
	}

	now := s.now()
	if status == types.RunStatusRunning || s.startedAt == nil {
		s.startedAt = &now
	}
	if status.IsTerminal() {
		s.doneAt = &now
	}
	s.run = status
	return nil
}

// Status returns the current status of an agent.
func (s *Store) Status(id types.AgentID) (types.AgentStatus, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[id]
	if !ok {
		return "", false
	}
	return e.status, true
}

// RunStatus returns the current run status.
func (s *Store) RunStatus() types.RunStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.run
}

// Snapshot returns an immutable copy of the run state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		RunStatus: s.run,
		Agents:    make([]AgentState, 0, len(s.order)),
		Total:     len(s.order),
		StartedAt: copyTime(s.startedAt),
		DoneAt:    copyTime(s.doneAt),
	}
	for _, id := range s.order {
		e := s.entries[id]
		snap.Agents = append(snap.Agents, AgentState{
			ID:        id,
			Status:    e.status,
			Message:   e.message,
			StartedAt: copyTime(e.startedAt),
			DoneAt:    copyTime(e.doneAt),
		})
		switch e.status {
		case types.AgentStatusCompleted:
			snap.CompletedCount++
		case types.AgentStatusProcessing:
			snap.ActiveAgent = id
		}
	}
	return snap
}

func (s *Store) activeLocked() types.AgentID {
	for _, id := range s.order {
		if s.entries[id].status == types.AgentStatusProcessing {
			return id
		}
	}
	return ""
}

func (s *Store) anyLocked(status types.AgentStatus) bool {
	for _, id := range s.order {
		if s.entries[id].status == status {
			return true
		}
	}
	return false
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
