package ipc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fin-foresight/foresight/internal/status"
	"github.com/fin-foresight/foresight/internal/types"
)

// SnapshotSource is satisfied by the orchestrator controller.
type SnapshotSource interface {
	Snapshot() status.Snapshot
}

// ResultSource returns the latest presented outcome of an agent.
type ResultSource interface {
	Result(agent types.AgentID) (types.AgentStatus, string, *types.AgentResult, bool)
}

// RunHandler answers requests about one run.
type RunHandler struct {
	RunID   string
	Ticker  string
	Run     SnapshotSource
	Results ResultSource // optional
}

// HandleGetStatus implements Handler.
func (h *RunHandler) HandleGetStatus(ctx context.Context, msg *GetStatusMessage) any {
	return &StatusMessage{
		Type:     MsgStatus,
		RunID:    h.RunID,
		Ticker:   h.Ticker,
		Snapshot: h.Run.Snapshot(),
	}
}

// HandleGetResult implements Handler.
func (h *RunHandler) HandleGetResult(ctx context.Context, msg *GetResultMessage) any {
	if h.Results == nil {
		return &ErrorMessage{Type: MsgError, Message: "results are not recorded for this run"}
	}
	st, message, res, ok := h.Results.Result(msg.Agent)
	if !ok {
		return &ErrorMessage{Type: MsgError, Message: fmt.Sprintf("no result for agent %q yet", msg.Agent)}
	}

	out := &ResultMessage{Type: MsgResult, Agent: msg.Agent, Status: st, Message: message}
	if res != nil {
		data, err := json.Marshal(res)
		if err != nil {
			return &ErrorMessage{Type: MsgError, Message: fmt.Sprintf("encoding result: %v", err)}
		}
		out.Result = data
	}
	return out
}
