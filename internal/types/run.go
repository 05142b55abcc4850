package types

// RunStatus represents the lifecycle state of a workflow run.
type RunStatus string

const (
	RunStatusIdle      RunStatus = "idle"      // Created, not started
	RunStatusRunning   RunStatus = "running"   // Agents are being invoked
	RunStatusCompleted RunStatus = "completed" // Every agent completed
	RunStatusFailed    RunStatus = "failed"    // An agent failed
)

// Valid returns true if this is a recognized run status.
func (s RunStatus) Valid() bool {
	switch s {
	case RunStatusIdle, RunStatusRunning, RunStatusCompleted, RunStatusFailed:
		return true
	}
	return false
}

// IsTerminal returns true if this status is final.
func (s RunStatus) IsTerminal() bool {
	return s == RunStatusCompleted || s == RunStatusFailed
}

// CanTransitionTo returns true if transitioning from s to target is valid.
// An idle run may complete directly when there is nothing to run.
func (s RunStatus) CanTransitionTo(target RunStatus) bool {
	switch s {
	case RunStatusIdle:
		return target == RunStatusRunning || target == RunStatusCompleted
	case RunStatusRunning:
		return target == RunStatusCompleted || target == RunStatusFailed
	}
	return false
}
