package cli

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiotviet-integration/kvsync/internal/core/domain"
)

// mockStateService implements driving.StateService for testing.
type mockStateService struct {
	checkpoint *domain.Checkpoint
	runs       []domain.SyncRun
	err        error
	limit      int
}

func (m *mockStateService) Checkpoint(_ context.Context) (*domain.Checkpoint, error) {
	return m.checkpoint, m.err
}

func (m *mockStateService) History(_ context.Context, limit int) ([]domain.SyncRun, error) {
	m.limit = limit
	return m.runs, m.err
}

// ==================== Checkpoint Tests ====================

func TestCheckpointCmd_NotConfigured(t *testing.T) {
	withServices(t, &Services{})

	_, err := executeCommand(t, "checkpoint", "show")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "state service not configured")
}

func TestCheckpointCmd_Shows(t *testing.T) {
	state := &mockStateService{checkpoint: &domain.Checkpoint{LastPurchaseDate: "2024-05-01T10:00:00"}}
	withServices(t, &Services{State: state})

	out, err := executeCommand(t, "checkpoint", "show")

	require.NoError(t, err)
	assert.Contains(t, out, "Last purchase date: 2024-05-01T10:00:00")
}

func TestCheckpointCmd_None(t *testing.T) {
	withServices(t, &Services{State: &mockStateService{}})

	out, err := executeCommand(t, "checkpoint", "show")

	require.NoError(t, err)
	assert.Contains(t, out, "No checkpoint stored")
}

func TestCheckpointCmd_Error(t *testing.T) {
	withServices(t, &Services{State: &mockStateService{err: errors.New("corrupt")}})

	_, err := executeCommand(t, "checkpoint", "show")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read checkpoint")
}

// ==================== History Tests ====================

func TestHistoryCmd_Table(t *testing.T) {
	failed := testRun(domain.RunFailed)
	failed.ID = "run-2"
	failed.Error = "invoice sync: api error"
	state := &mockStateService{runs: []domain.SyncRun{*failed, *testRun(domain.RunSucceeded)}}
	withServices(t, &Services{State: state})

	out, err := executeCommand(t, "history", "-n", "5")

	require.NoError(t, err)
	assert.Equal(t, 5, state.limit)
	assert.Contains(t, out, "STATUS")
	assert.Contains(t, out, "succeeded")
	assert.Contains(t, out, "failed")
	assert.Contains(t, out, "invoice sync: api error")
	assert.Contains(t, out, "3s")
}

func TestHistoryCmd_DefaultLimit(t *testing.T) {
	state := &mockStateService{}
	withServices(t, &Services{State: state})

	out, err := executeCommand(t, "history")

	require.NoError(t, err)
	assert.Equal(t, 20, state.limit)
	assert.Contains(t, out, "No runs recorded.")
}

func TestHistoryCmd_Error(t *testing.T) {
	withServices(t, &Services{State: &mockStateService{err: errors.New("db locked")}})

	_, err := executeCommand(t, "history")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "db locked")
}
