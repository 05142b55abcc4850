package status

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/fin-foresight/foresight/internal/types"
)

func sampleSnapshot(run types.RunStatus, statuses ...types.AgentStatus) Snapshot {
	ids := []types.AgentID{types.AgentDataAnalyst, types.AgentTradeStrategy, types.AgentTradeAdvisor, types.AgentRiskAdvisor}
	snap := Snapshot{RunStatus: run, Total: len(ids)}
	for i, id := range ids {
		st := types.AgentStatusPending
		if i < len(statuses) {
			st = statuses[i]
		}
		snap.Agents = append(snap.Agents, AgentState{ID: id, Status: st})
		switch st {
		case types.AgentStatusCompleted:
			snap.CompletedCount++
		case types.AgentStatusProcessing:
			snap.ActiveAgent = id
		}
	}
	return snap
}

func TestFormatSnapshot(t *testing.T) {
	snap := sampleSnapshot(types.RunStatusRunning,
		types.AgentStatusCompleted, types.AgentStatusCompleted, types.AgentStatusProcessing)

	output := FormatSnapshot(snap, FormatOptions{NoColor: true})

	assert.Contains(t, output, "Progress:")
	assert.Contains(t, output, "50% (2/4 agents)")
	assert.Contains(t, output, "✓ Data Analyst")
	assert.Contains(t, output, "● Trade Advisor")
	assert.Contains(t, output, "○ Risk Advisor")
	assert.NotContains(t, output, "workflow")
}

func TestFormatSnapshot_Banner(t *testing.T) {
	done := sampleSnapshot(types.RunStatusCompleted,
		types.AgentStatusCompleted, types.AgentStatusCompleted, types.AgentStatusCompleted, types.AgentStatusCompleted)
	assert.Contains(t, FormatSnapshot(done, FormatOptions{NoColor: true}), "completed successfully")

	failed := sampleSnapshot(types.RunStatusFailed,
		types.AgentStatusCompleted, types.AgentStatusError, types.AgentStatusError, types.AgentStatusError)
	failed.Agents[1].Message = "Strategy calculation failed"
	output := FormatSnapshot(failed, FormatOptions{NoColor: true})
	assert.Contains(t, output, "encountered an error")
	assert.Contains(t, output, "✗ Trade Strategy")
	assert.Contains(t, output, "Strategy calculation failed")
}

func TestFormatSnapshot_Quiet(t *testing.T) {
	snap := sampleSnapshot(types.RunStatusRunning, types.AgentStatusProcessing)
	output := FormatSnapshot(snap, FormatOptions{NoColor: true, Quiet: true})

	assert.Equal(t, 1, strings.Count(output, "Progress:"))
	assert.NotContains(t, output, "Data Analyst")
}

func TestFormatProgress_Bar(t *testing.T) {
	empty := formatProgress(sampleSnapshot(types.RunStatusRunning), FormatOptions{NoColor: true})
	assert.Contains(t, empty, strings.Repeat("░", barWidth))

	full := formatProgress(sampleSnapshot(types.RunStatusCompleted,
		types.AgentStatusCompleted, types.AgentStatusCompleted, types.AgentStatusCompleted, types.AgentStatusCompleted),
		FormatOptions{NoColor: true})
	assert.Contains(t, full, strings.Repeat("█", barWidth))
	assert.Contains(t, full, "100%")
}

func TestTerminalView_SkipsUnchanged(t *testing.T) {
	var buf bytes.Buffer
	view := NewTerminalView(&buf, FormatOptions{NoColor: true})

	snap := sampleSnapshot(types.RunStatusRunning, types.AgentStatusProcessing)
	view.Refresh(snap)
	view.Refresh(snap)
	assert.Equal(t, 1, strings.Count(buf.String(), "Progress:"))

	snap.Agents[0].Status = types.AgentStatusCompleted
	snap.CompletedCount = 1
	view.Refresh(snap)
	assert.Equal(t, 2, strings.Count(buf.String(), "Progress:"))
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{250 * time.Millisecond, "250ms"},
		{42 * time.Second, "42s"},
		{3*time.Minute + 5*time.Second, "3m5s"},
		{2*time.Hour + 10*time.Minute, "2h10m"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatDuration(tt.d))
	}
}

func TestEncode(t *testing.T) {
	snap := sampleSnapshot(types.RunStatusFailed, types.AgentStatusError, types.AgentStatusError)

	var jsonBuf bytes.Buffer
	require.NoError(t, Encode(&jsonBuf, "json", snap))
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(jsonBuf.Bytes(), &decoded))
	assert.Equal(t, "failed", decoded["run_status"])
	assert.Equal(t, float64(4), decoded["total"])

	var yamlBuf bytes.Buffer
	require.NoError(t, Encode(&yamlBuf, "yaml", snap))
	var yamlDecoded Snapshot
	require.NoError(t, yaml.Unmarshal(yamlBuf.Bytes(), &yamlDecoded))
	assert.Equal(t, types.RunStatusFailed, yamlDecoded.RunStatus)
	assert.Len(t, yamlDecoded.Agents, 4)

	assert.Error(t, Encode(&yamlBuf, "xml", snap))
}

func TestSnapshot_Percent(t *testing.T) {
	assert.Zero(t, Snapshot{}.Percent())
	snap := sampleSnapshot(types.RunStatusRunning, types.AgentStatusCompleted)
	assert.Equal(t, float64(25), snap.Percent())
}
