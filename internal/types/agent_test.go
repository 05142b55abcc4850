package types

import "testing"

func TestAgentStatus(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		for _, s := range []AgentStatus{AgentStatusPending, AgentStatusProcessing, AgentStatusCompleted, AgentStatusError} {
			if !s.Valid() {
				t.Errorf("%s should be valid", s)
			}
		}
		if AgentStatus("done").Valid() {
			t.Error("done should not be valid")
		}
	})

	t.Run("IsTerminal", func(t *testing.T) {
		if !AgentStatusCompleted.IsTerminal() || !AgentStatusError.IsTerminal() {
			t.Error("completed and error should be terminal")
		}
		if AgentStatusPending.IsTerminal() || AgentStatusProcessing.IsTerminal() {
			t.Error("pending and processing should not be terminal")
		}
	})

	t.Run("Label", func(t *testing.T) {
		if got := AgentStatusProcessing.Label(); got != "Processing" {
			t.Errorf("Label() = %q, want Processing", got)
		}
	})
}

func TestAgentStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to AgentStatus
		want     bool
	}{
		{AgentStatusPending, AgentStatusProcessing, true},
		{AgentStatusPending, AgentStatusError, true},
		{AgentStatusPending, AgentStatusCompleted, true},
		{AgentStatusProcessing, AgentStatusCompleted, true},
		{AgentStatusProcessing, AgentStatusError, true},
		{AgentStatusProcessing, AgentStatusPending, false},
		{AgentStatusCompleted, AgentStatusError, false},
		{AgentStatusCompleted, AgentStatusProcessing, false},
		{AgentStatusError, AgentStatusCompleted, false},
		{AgentStatusError, AgentStatusPending, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
				t.Errorf("CanTransitionTo = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAgentID_Title(t *testing.T) {
	if got := AgentTradeAdvisor.Title(); got != "Trade Advisor" {
		t.Errorf("Title() = %q, want Trade Advisor", got)
	}
	if got := AgentID("sentiment").Title(); got != "sentiment" {
		t.Errorf("Title() = %q, want sentiment", got)
	}
}

func TestRunStatus(t *testing.T) {
	if !RunStatusCompleted.IsTerminal() || !RunStatusFailed.IsTerminal() {
		t.Error("completed and failed should be terminal")
	}
	if RunStatusRunning.IsTerminal() {
		t.Error("running should not be terminal")
	}
	if !RunStatusIdle.CanTransitionTo(RunStatusCompleted) {
		t.Error("idle -> completed should be allowed for an empty pipeline")
	}
	if RunStatusIdle.CanTransitionTo(RunStatusFailed) {
		t.Error("idle -> failed should not be allowed")
	}
	if RunStatusCompleted.CanTransitionTo(RunStatusFailed) {
		t.Error("completed -> failed should not be allowed")
	}
}
