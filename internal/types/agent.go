package types

// AgentID names one stage of the backend analysis pipeline.
type AgentID string

// Pipeline agents served by the analysis backend, in execution order.
const (
	AgentDataAnalyst   AgentID = "data_analyst"
	AgentTradeStrategy AgentID = "trade_strategy"
	AgentTradeAdvisor  AgentID = "trade_advisor"
	AgentRiskAdvisor   AgentID = "risk_advisor"
)

// Title returns a human-readable name for the agent.
func (a AgentID) Title() string {
	switch a {
	case AgentDataAnalyst:
		return "Data Analyst"
	case AgentTradeStrategy:
		return "Trade Strategy"
	case AgentTradeAdvisor:
		return "Trade Advisor"
	case AgentRiskAdvisor:
		return "Risk Advisor"
	}
	return string(a)
}

// AgentStatus represents the lifecycle state of an agent within a run.
type AgentStatus string

const (
	AgentStatusPending    AgentStatus = "pending"    // Not yet invoked
	AgentStatusProcessing AgentStatus = "processing" // Request in flight
	AgentStatusCompleted  AgentStatus = "completed"  // Finished successfully
	AgentStatusError      AgentStatus = "error"      // Failed, or cascaded from a pipeline failure
)

// Valid returns true if this is a recognized status.
func (s AgentStatus) Valid() bool {
	switch s {
	case AgentStatusPending, AgentStatusProcessing, AgentStatusCompleted, AgentStatusError:
		return true
	}
	return false
}

// IsTerminal returns true if this status is final (completed or error).
func (s AgentStatus) IsTerminal() bool {
	return s == AgentStatusCompleted || s == AgentStatusError
}

// CanTransitionTo returns true if transitioning from s to target is valid.
// Pending may jump straight to a terminal status when the run ends around it.
func (s AgentStatus) CanTransitionTo(target AgentStatus) bool {
	switch s {
	case AgentStatusPending:
		return target == AgentStatusProcessing || target == AgentStatusCompleted || target == AgentStatusError
	case AgentStatusProcessing:
		return target == AgentStatusCompleted || target == AgentStatusError
	case AgentStatusCompleted, AgentStatusError:
		return false
	}
	return false
}

// Label returns the capitalized status used in progress output.
func (s AgentStatus) Label() string {
	switch s {
	case AgentStatusPending:
		return "Pending"
	case AgentStatusProcessing:
		return "Processing"
	case AgentStatusCompleted:
		return "Completed"
	case AgentStatusError:
		return "Error"
	}
	return string(s)
}
