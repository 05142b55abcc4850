package status

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "github.com/fin-foresight/foresight/internal/errors"
	"github.com/fin-foresight/foresight/internal/registry"
	"github.com/fin-foresight/foresight/internal/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(registry.Default())
}

func TestStore_Initialize(t *testing.T) {
	s := newTestStore(t)

	snap := s.Snapshot()
	assert.Equal(t, types.RunStatusIdle, snap.RunStatus)
	assert.Equal(t, 4, snap.Total)
	assert.Len(t, snap.Agents, 4)
	for _, a := range snap.Agents {
		assert.Equal(t, types.AgentStatusPending, a.Status, a.ID)
	}

	require.NoError(t, s.SetRunStatus(types.RunStatusRunning))
	require.NoError(t, s.SetStatus(types.AgentDataAnalyst, types.AgentStatusProcessing))
	require.NoError(t, s.SetMessage(types.AgentDataAnalyst, "working"))

	s.Initialize()
	snap = s.Snapshot()
	assert.Equal(t, types.RunStatusIdle, snap.RunStatus)
	assert.Empty(t, snap.ActiveAgent)
	assert.Empty(t, snap.Agents[0].Message)
	assert.Nil(t, snap.Agents[0].StartedAt)
}

func TestStore_SetStatus(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.SetStatus(types.AgentDataAnalyst, types.AgentStatusProcessing))
	snap := s.Snapshot()
	assert.Equal(t, types.AgentDataAnalyst, snap.ActiveAgent)
	assert.NotNil(t, snap.Agents[0].StartedAt)

	// Same status is a no-op.
	require.NoError(t, s.SetStatus(types.AgentDataAnalyst, types.AgentStatusProcessing))

	require.NoError(t, s.SetStatus(types.AgentDataAnalyst, types.AgentStatusCompleted))
	snap = s.Snapshot()
	assert.Equal(t, 1, snap.CompletedCount)
	assert.Empty(t, snap.ActiveAgent)
	assert.NotNil(t, snap.Agents[0].DoneAt)
}

func TestStore_SetStatus_Violations(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(s *Store)
		agent    types.AgentID
		status   types.AgentStatus
		wantCode string
	}{
		{
			name:     "unknown agent",
			setup:    func(s *Store) {},
			agent:    "sentiment",
			status:   types.AgentStatusProcessing,
			wantCode: ferrors.CodeAgentNotFound,
		},
		{
			name:     "unknown status",
			setup:    func(s *Store) {},
			agent:    types.AgentDataAnalyst,
			status:   "done",
			wantCode: ferrors.CodeInvariantViolation,
		},
		{
			name: "terminal agent",
			setup: func(s *Store) {
				_ = s.SetStatus(types.AgentDataAnalyst, types.AgentStatusCompleted)
			},
			agent:    types.AgentDataAnalyst,
			status:   types.AgentStatusError,
			wantCode: ferrors.CodeInvariantViolation,
		},
		{
			name: "backwards transition",
			setup: func(s *Store) {
				_ = s.SetStatus(types.AgentDataAnalyst, types.AgentStatusProcessing)
			},
			agent:    types.AgentDataAnalyst,
			status:   types.AgentStatusPending,
			wantCode: ferrors.CodeInvariantViolation,
		},
		{
			name: "second processing agent",
			setup: func(s *Store) {
				_ = s.SetStatus(types.AgentDataAnalyst, types.AgentStatusProcessing)
			},
			agent:    types.AgentTradeStrategy,
			status:   types.AgentStatusProcessing,
			wantCode: ferrors.CodeInvariantViolation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t)
			tt.setup(s)
			before := s.Snapshot()

			err := s.SetStatus(tt.agent, tt.status)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, ferrors.Code(err))
			assert.Equal(t, before, s.Snapshot(), "rejected change must not mutate state")
		})
	}
}

func TestStore_SetRunStatus(t *testing.T) {
	t.Run("completed requires every agent completed", func(t *testing.T) {
		s := newTestStore(t)
		require.NoError(t, s.SetRunStatus(types.RunStatusRunning))
		require.NoError(t, s.SetStatus(types.AgentDataAnalyst, types.AgentStatusCompleted))

		err := s.SetRunStatus(types.RunStatusCompleted)
		assert.True(t, ferrors.HasCode(err, ferrors.CodeInvariantViolation))

		for _, id := range registry.Default().Agents()[1:] {
			require.NoError(t, s.SetStatus(id, types.AgentStatusCompleted))
		}
		require.NoError(t, s.SetRunStatus(types.RunStatusCompleted))

		snap := s.Snapshot()
		assert.Equal(t, types.RunStatusCompleted, snap.RunStatus)
		assert.Equal(t, float64(100), snap.Percent())
		assert.NotNil(t, snap.DoneAt)
	})

	t.Run("failed requires an error and nothing processing", func(t *testing.T) {
		s := newTestStore(t)
		require.NoError(t, s.SetRunStatus(types.RunStatusRunning))
		require.NoError(t, s.SetStatus(types.AgentDataAnalyst, types.AgentStatusProcessing))

		err := s.SetRunStatus(types.RunStatusFailed)
		assert.True(t, ferrors.HasCode(err, ferrors.CodeInvariantViolation))

		require.NoError(t, s.SetStatus(types.AgentDataAnalyst, types.AgentStatusCompleted))
		err = s.SetRunStatus(types.RunStatusFailed)
		assert.True(t, ferrors.HasCode(err, ferrors.CodeInvariantViolation))

		require.NoError(t, s.SetStatus(types.AgentTradeStrategy, types.AgentStatusError))
		require.NoError(t, s.SetRunStatus(types.RunStatusFailed))
	})

	t.Run("terminal run cannot change", func(t *testing.T) {
		s, err := registry.New()
		require.NoError(t, err)
		store := NewStore(s)

		require.NoError(t, store.SetRunStatus(types.RunStatusCompleted))
		err = store.SetRunStatus(types.RunStatusRunning)
		assert.True(t, ferrors.HasCode(err, ferrors.CodeInvariantViolation))
	})
}

func TestStore_SnapshotIsIndependent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.SetStatus(types.AgentDataAnalyst, types.AgentStatusProcessing))

	first := s.Snapshot()
	second := s.Snapshot()
	assert.Equal(t, first, second)

	first.Agents[0].Status = types.AgentStatusError
	*first.Agents[0].StartedAt = first.Agents[0].StartedAt.Add(-1)
	assert.Equal(t, second, s.Snapshot())
}

func TestStore_ConcurrentReaders(t *testing.T) {
	s := newTestStore(t)
	agents := registry.Default().Agents()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				snap := s.Snapshot()
				processing := snap.Count(types.AgentStatusProcessing)
				assert.LessOrEqual(t, processing, 1)
			}
		}()
	}

	for _, id := range agents {
		require.NoError(t, s.SetStatus(id, types.AgentStatusProcessing))
		require.NoError(t, s.SetStatus(id, types.AgentStatusCompleted))
	}
	wg.Wait()

	assert.Equal(t, len(agents), s.Snapshot().CompletedCount)
}

func TestStore_SetMessage(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.SetMessage(types.AgentRiskAdvisor, "Pipeline stopped"))

	a, ok := s.Snapshot().Agent(types.AgentRiskAdvisor)
	require.True(t, ok)
	assert.Equal(t, "Pipeline stopped", a.Message)

	err := s.SetMessage("sentiment", "x")
	assert.True(t, ferrors.HasCode(err, ferrors.CodeAgentNotFound))
}
