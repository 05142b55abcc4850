// Package ipc serves a running analysis to other foresight processes.
//
// The protocol is newline-delimited JSON over a Unix domain socket. Each
// message is a single JSON object on one line. Socket path:
// $TMPDIR/foresight-{run_id}.sock
package ipc

import (
	"encoding/json"
	"fmt"

	"github.com/fin-foresight/foresight/internal/status"
	"github.com/fin-foresight/foresight/internal/types"
)

// MessageType identifies the IPC message kind.
type MessageType string

const (
	// Request types (client → run)
	MsgGetStatus MessageType = "get_status"
	MsgGetResult MessageType = "get_result"

	// Response types (run → client)
	MsgStatus MessageType = "status"
	MsgResult MessageType = "result"
	MsgError  MessageType = "error"
)

// Valid returns true if this is a recognized message type.
func (t MessageType) Valid() bool {
	switch t {
	case MsgGetStatus, MsgGetResult, MsgStatus, MsgResult, MsgError:
		return true
	}
	return false
}

// IsRequest returns true if this message type is sent by a client.
func (t MessageType) IsRequest() bool {
	return t == MsgGetStatus || t == MsgGetResult
}

// GetStatusMessage asks for the run's progress.
type GetStatusMessage struct {
	Type MessageType `json:"type"` // Always "get_status"
}

// GetResultMessage asks for the latest presented result of one agent.
type GetResultMessage struct {
	Type  MessageType   `json:"type"` // Always "get_result"
	Agent types.AgentID `json:"agent"`
}

// StatusMessage carries a progress snapshot.
type StatusMessage struct {
	Type     MessageType     `json:"type"` // Always "status"
	RunID    string          `json:"run_id"`
	Ticker   string          `json:"ticker"`
	Snapshot status.Snapshot `json:"snapshot"`
}

// ResultMessage carries one agent's payload as the backend sent it.
type ResultMessage struct {
	Type    MessageType       `json:"type"` // Always "result"
	Agent   types.AgentID     `json:"agent"`
	Status  types.AgentStatus `json:"status"`
	Message string            `json:"message,omitempty"`
	Result  json.RawMessage   `json:"result,omitempty"`
}

// AgentResult decodes the carried payload. It is nil when none was sent.
func (m *ResultMessage) AgentResult() *types.AgentResult {
	if len(m.Result) == 0 || string(m.Result) == "null" {
		return nil
	}
	return types.DecodeAgentResult(m.Agent, m.Result)
}

// ErrorMessage reports a failed request.
type ErrorMessage struct {
	Type    MessageType `json:"type"` // Always "error"
	Message string      `json:"message"`
}

// Message is the interface implemented by all IPC messages.
type Message interface {
	// MessageType returns the type identifier for this message.
	MessageType() MessageType
}

func (m *GetStatusMessage) MessageType() MessageType { return MsgGetStatus }
func (m *GetResultMessage) MessageType() MessageType { return MsgGetResult }
func (m *StatusMessage) MessageType() MessageType    { return MsgStatus }
func (m *ResultMessage) MessageType() MessageType    { return MsgResult }
func (m *ErrorMessage) MessageType() MessageType     { return MsgError }

// RawMessage is used for initial parsing to determine message type.
type RawMessage struct {
	Type MessageType `json:"type"`
}

// ParseMessage parses a JSON message and returns the appropriate typed message.
// Returns an error if the message type is unknown or JSON is malformed.
func ParseMessage(data []byte) (Message, error) {
	var raw RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	var msg Message
	switch raw.Type {
	case MsgGetStatus:
		msg = &GetStatusMessage{}
	case MsgGetResult:
		msg = &GetResultMessage{}
	case MsgStatus:
		msg = &StatusMessage{}
	case MsgResult:
		msg = &ResultMessage{}
	case MsgError:
		msg = &ErrorMessage{}
	default:
		return nil, fmt.Errorf("unknown message type: %q", raw.Type)
	}

	if err := json.Unmarshal(data, msg); err != nil {
		return nil, fmt.Errorf("failed to parse %s message: %w", raw.Type, err)
	}

	return msg, nil
}

// Marshal serializes a message to JSON as a single line (no pretty printing).
func Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}
