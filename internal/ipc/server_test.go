package ipc

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fin-foresight/foresight/internal/registry"
	"github.com/fin-foresight/foresight/internal/status"
	"github.com/fin-foresight/foresight/internal/testutil"
	"github.com/fin-foresight/foresight/internal/types"
)

// fakeResults implements ResultSource for testing.
type fakeResults struct {
	mu      sync.Mutex
	results map[types.AgentID]*types.AgentResult
}

func (f *fakeResults) Result(agent types.AgentID) (types.AgentStatus, string, *types.AgentResult, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	res, ok := f.results[agent]
	if !ok {
		return "", "", nil, false
	}
	return types.AgentStatusCompleted, "", res, true
}

func newRunHandler(t *testing.T) (*RunHandler, *status.Store) {
	t.Helper()
	store := status.NewStore(registry.Default())
	store.Initialize()
	if err := store.SetRunStatus(types.RunStatusRunning); err != nil {
		t.Fatalf("SetRunStatus: %v", err)
	}
	if err := store.SetStatus(types.AgentDataAnalyst, types.AgentStatusProcessing); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}

	results := &fakeResults{results: map[types.AgentID]*types.AgentResult{
		types.AgentDataAnalyst: testutil.DecodeResult(t, types.AgentDataAnalyst, testutil.DataAnalystPayload("AAPL")),
	}}
	return &RunHandler{RunID: "run-1", Ticker: "AAPL", Run: store, Results: results}, store
}

// startServer starts a server on a short socket path and returns a client for it.
func startServer(t *testing.T, handler Handler) *Client {
	t.Helper()
	dir, err := os.MkdirTemp("", "fs")
	if err != nil {
		t.Fatalf("MkdirTemp: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })

	server := NewServerWithPath(filepath.Join(dir, "run.sock"), handler, testutil.DiscardLogger())
	ctx, cancel := context.WithCancel(context.Background())
	if err := server.StartAsync(ctx); err != nil {
		cancel()
		t.Fatalf("StartAsync: %v", err)
	}
	t.Cleanup(func() {
		cancel()
		server.Shutdown()
	})

	client := NewClient(server.Path())
	client.SetTimeout(2 * time.Second)
	return client
}

func TestSocketPath(t *testing.T) {
	path := SocketPath("run-abc123")
	expected := filepath.Join(os.TempDir(), "foresight-run-abc123.sock")
	if path != expected {
		t.Errorf("SocketPath() = %q, want %q", path, expected)
	}
}

func TestServer_StartShutdown(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "test.sock")
	handler, _ := newRunHandler(t)
	server := NewServerWithPath(socketPath, handler, nil)

	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(ctx)
	}()

	time.Sleep(50 * time.Millisecond)

	if _, err := os.Stat(socketPath); os.IsNotExist(err) {
		t.Error("socket file should exist after start")
	}

	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Start() returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Error("server did not shut down in time")
	}

	if _, err := os.Stat(socketPath); !os.IsNotExist(err) {
		t.Error("socket file should be removed after shutdown")
	}
}

func TestClient_Status(t *testing.T) {
	handler, store := newRunHandler(t)
	client := startServer(t, handler)

	got, err := client.Status()
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if got.RunID != "run-1" || got.Ticker != "AAPL" {
		t.Errorf("RunID/Ticker = %s/%s", got.RunID, got.Ticker)
	}
	if got.Snapshot.ActiveAgent != types.AgentDataAnalyst {
		t.Errorf("ActiveAgent = %s, want data_analyst", got.Snapshot.ActiveAgent)
	}

	// Later requests see later state.
	if err := store.SetStatus(types.AgentDataAnalyst, types.AgentStatusCompleted); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	got, err = client.Status()
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if got.Snapshot.CompletedCount != 1 {
		t.Errorf("CompletedCount = %d, want 1", got.Snapshot.CompletedCount)
	}
}

func TestClient_Result(t *testing.T) {
	handler, _ := newRunHandler(t)
	client := startServer(t, handler)

	got, err := client.Result(types.AgentDataAnalyst)
	if err != nil {
		t.Fatalf("Result() error = %v", err)
	}
	analysis, ok := got.AgentResult().Payload.(*types.DataAnalysis)
	if !ok {
		t.Fatalf("Payload = %T, want *types.DataAnalysis", got.AgentResult().Payload)
	}
	if analysis.CompanyInfo.Name != "AAPL Corp" {
		t.Errorf("Name = %s, want AAPL Corp", analysis.CompanyInfo.Name)
	}

	_, err = client.Result(types.AgentRiskAdvisor)
	if err == nil || !strings.Contains(err.Error(), "no result") {
		t.Errorf("Result(risk_advisor) error = %v, want no result", err)
	}
}

func TestClient_ResultWithoutSource(t *testing.T) {
	handler, _ := newRunHandler(t)
	handler.Results = nil
	client := startServer(t, handler)

	if _, err := client.Result(types.AgentDataAnalyst); err == nil {
		t.Error("Result() should fail when results are not recorded")
	}
}

func TestServer_RejectsResponseTypes(t *testing.T) {
	handler, _ := newRunHandler(t)
	client := startServer(t, handler)

	resp, err := client.Send(&ErrorMessage{Type: MsgError, Message: "not a request"})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if _, ok := resp.(*ErrorMessage); !ok {
		t.Errorf("response = %T, want *ErrorMessage", resp)
	}
}

func TestClient_NoServer(t *testing.T) {
	client := NewClient(filepath.Join(t.TempDir(), "missing.sock"))
	client.SetTimeout(100 * time.Millisecond)
	if _, err := client.Status(); err == nil {
		t.Error("Status() should fail without a server")
	}
}
