package cmd

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fin-foresight/foresight/internal/ipc"
	"github.com/fin-foresight/foresight/internal/orchestrator"
	"github.com/fin-foresight/foresight/internal/present"
	"github.com/fin-foresight/foresight/internal/registry"
	"github.com/fin-foresight/foresight/internal/status"
	"github.com/fin-foresight/foresight/internal/testutil"
	"github.com/fin-foresight/foresight/internal/types"
)

// serveRun starts a status socket for a run with the data analyst done and
// the trade strategy in flight.
func serveRun(t *testing.T) string {
	t.Helper()
	store := status.NewStore(registry.Default())
	store.Initialize()
	require.NoError(t, store.SetRunStatus(types.RunStatusRunning))
	require.NoError(t, store.SetStatus(types.AgentDataAnalyst, types.AgentStatusProcessing))
	require.NoError(t, store.SetStatus(types.AgentDataAnalyst, types.AgentStatusCompleted))
	require.NoError(t, store.SetStatus(types.AgentTradeStrategy, types.AgentStatusProcessing))

	collector := &present.Collector{}
	collector.Present(types.AgentDataAnalyst, orchestrator.Outcome{
		Status: types.AgentStatusCompleted,
		Result: testutil.DecodeResult(t, types.AgentDataAnalyst, testutil.DataAnalystPayload("AAPL")),
	})

	dir, err := os.MkdirTemp("", "fs")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	path := filepath.Join(dir, "run.sock")
	handler := &ipc.RunHandler{RunID: "run-1", Ticker: "AAPL", Run: store, Results: collector}
	server := ipc.NewServerWithPath(path, handler, testutil.DiscardLogger())
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, server.StartAsync(ctx))
	t.Cleanup(func() {
		cancel()
		server.Shutdown()
	})
	return path
}

func TestStatus_Text(t *testing.T) {
	path := serveRun(t)

	out, _, err := execute(t, "status", "--socket", path, "--no-color")
	require.NoError(t, err)
	assert.Contains(t, out, "Run run-1 (AAPL): running")
	assert.Contains(t, out, "(1/4 agents)")
	assert.Contains(t, out, "Trade Strategy")
}

func TestStatus_JSON(t *testing.T) {
	path := serveRun(t)

	out, _, err := execute(t, "status", "--socket", path, "--format", "json")
	require.NoError(t, err)

	var msg ipc.StatusMessage
	require.NoError(t, json.Unmarshal([]byte(out), &msg), out)
	assert.Equal(t, types.AgentTradeStrategy, msg.Snapshot.ActiveAgent)
	assert.Equal(t, 1, msg.Snapshot.CompletedCount)
}

func TestStatus_AgentResult(t *testing.T) {
	path := serveRun(t)

	out, _, err := execute(t, "status", "--socket", path, "--agent", "data_analyst", "--no-color")
	require.NoError(t, err)
	assert.Contains(t, out, "Data Analyst (Completed)")
	assert.Contains(t, out, "AAPL Corp")

	_, _, err = execute(t, "status", "--socket", path, "--agent", "risk_advisor")
	assert.Error(t, err)
}

func TestStatus_RequiresTarget(t *testing.T) {
	_, _, err := execute(t, "status")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run id or --socket is required")
}

func TestStatus_NoSuchRun(t *testing.T) {
	_, _, err := execute(t, "status", "does-not-exist")
	assert.Error(t, err)
}
