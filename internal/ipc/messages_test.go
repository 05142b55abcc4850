package ipc

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/fin-foresight/foresight/internal/status"
	"github.com/fin-foresight/foresight/internal/types"
)

func TestMessageType_Valid(t *testing.T) {
	tests := []struct {
		msgType MessageType
		valid   bool
		request bool
	}{
		{MsgGetStatus, true, true},
		{MsgGetResult, true, true},
		{MsgStatus, true, false},
		{MsgResult, true, false},
		{MsgError, true, false},
		{"step_done", false, false},
		{"", false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.msgType), func(t *testing.T) {
			if got := tt.msgType.Valid(); got != tt.valid {
				t.Errorf("Valid() = %v, want %v", got, tt.valid)
			}
			if got := tt.msgType.IsRequest(); got != tt.request {
				t.Errorf("IsRequest() = %v, want %v", got, tt.request)
			}
		})
	}
}

func TestParseMessage(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantType MessageType
		wantErr  string
	}{
		{"get_status", `{"type":"get_status"}`, MsgGetStatus, ""},
		{"get_result", `{"type":"get_result","agent":"trade_advisor"}`, MsgGetResult, ""},
		{"status", `{"type":"status","run_id":"r1","snapshot":{"run_status":"running","agents":[],"completed_count":0,"total":0}}`, MsgStatus, ""},
		{"result", `{"type":"result","agent":"data_analyst","status":"completed","result":{"status":"completed"}}`, MsgResult, ""},
		{"error", `{"type":"error","message":"boom"}`, MsgError, ""},
		{"unknown", `{"type":"step_done"}`, "", "unknown message type"},
		{"malformed", `{"type":`, "", "invalid JSON"},
		{"bad field", `{"type":"get_result","agent":42}`, "", "failed to parse get_result"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := ParseMessage([]byte(tt.input))
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("ParseMessage() error = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseMessage() error = %v", err)
			}
			if msg.MessageType() != tt.wantType {
				t.Errorf("MessageType() = %s, want %s", msg.MessageType(), tt.wantType)
			}
		})
	}
}

func TestParseMessage_GetResultAgent(t *testing.T) {
	msg, err := ParseMessage([]byte(`{"type":"get_result","agent":"risk_advisor"}`))
	if err != nil {
		t.Fatalf("ParseMessage() error = %v", err)
	}
	m, ok := msg.(*GetResultMessage)
	if !ok {
		t.Fatalf("got %T, want *GetResultMessage", msg)
	}
	if m.Agent != types.AgentRiskAdvisor {
		t.Errorf("Agent = %s, want risk_advisor", m.Agent)
	}
}

func TestStatusMessage_RoundTrip(t *testing.T) {
	in := &StatusMessage{
		Type:   MsgStatus,
		RunID:  "run-1",
		Ticker: "AAPL",
		Snapshot: status.Snapshot{
			RunStatus:      types.RunStatusRunning,
			Agents:         []status.AgentState{{ID: types.AgentDataAnalyst, Status: types.AgentStatusProcessing}},
			ActiveAgent:    types.AgentDataAnalyst,
			Total:          1,
			CompletedCount: 0,
		},
	}
	data, err := Marshal(in)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if strings.Contains(string(data), "\n") {
		t.Error("marshaled message must be a single line")
	}

	msg, err := ParseMessage(data)
	if err != nil {
		t.Fatalf("ParseMessage() error = %v", err)
	}
	out := msg.(*StatusMessage)
	if out.Snapshot.ActiveAgent != types.AgentDataAnalyst {
		t.Errorf("ActiveAgent = %s, want data_analyst", out.Snapshot.ActiveAgent)
	}
	if out.Ticker != "AAPL" {
		t.Errorf("Ticker = %s, want AAPL", out.Ticker)
	}
}

func TestResultMessage_AgentResult(t *testing.T) {
	payload := `{"status":"completed","recommendation":{"ticker":"AAPL","signal":"bullish"}}`
	m := &ResultMessage{Type: MsgResult, Agent: types.AgentTradeAdvisor, Result: json.RawMessage(payload)}

	res := m.AgentResult()
	if res == nil {
		t.Fatal("AgentResult() = nil")
	}
	rec, ok := res.Payload.(*types.Recommendation)
	if !ok {
		t.Fatalf("Payload = %T, want *types.Recommendation", res.Payload)
	}
	if rec.Signal != "bullish" {
		t.Errorf("Signal = %s, want bullish", rec.Signal)
	}

	if (&ResultMessage{Result: json.RawMessage("null")}).AgentResult() != nil {
		t.Error("null result should decode to nil")
	}
}
