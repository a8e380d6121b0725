package cli

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiotviet-integration/kvsync/internal/core/domain"
)

// mockSyncer implements driving.InvoiceSyncer for testing.
type mockSyncer struct {
	result          *domain.SyncResult
	err             error
	lastIncremental *bool
}

func (m *mockSyncer) Sync(_ context.Context, incremental bool) (*domain.SyncResult, error) {
	m.lastIncremental = &incremental
	return m.result, m.err
}

func syncResult() *domain.SyncResult {
	return &domain.SyncResult{
		Invoices:           3,
		Lines:              7,
		NewestPurchaseDate: "2024-05-01T10:00:00",
		OutputFile:         "data/output/invoice_details.csv",
		Duration:           1500 * time.Millisecond,
		Incremental:        true,
		CheckpointUpdated:  true,
	}
}

func TestSyncCmd_Use(t *testing.T) {
	assert.Equal(t, "sync", syncCmd.Use)
	assert.Equal(t, "invoices", syncInvoicesCmd.Use)
	assert.Equal(t, "Synchronise completed invoices", syncInvoicesCmd.Short)
	assert.NotNil(t, syncInvoicesCmd.Flags().Lookup("full"))
}

func TestSyncCmd_NotConfigured(t *testing.T) {
	withServices(t, &Services{})

	_, err := executeCommand(t, "sync", "invoices")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "sync service not configured")
}

func TestSyncCmd_Incremental(t *testing.T) {
	syncer := &mockSyncer{result: syncResult()}
	withServices(t, &Services{Syncer: syncer})

	out, err := executeCommand(t, "sync", "invoices")

	require.NoError(t, err)
	require.NotNil(t, syncer.lastIncremental)
	assert.True(t, *syncer.lastIncremental)
	assert.Contains(t, out,
		"Invoice sync completed: invoices=3 lines=7 duration=1.5s output=data/output/invoice_details.csv")
	assert.Contains(t, out, "Newest purchase date: 2024-05-01T10:00:00")
	assert.Contains(t, out, "Checkpoint updated")
}

func TestSyncCmd_Full(t *testing.T) {
	result := syncResult()
	result.CheckpointUpdated = false
	syncer := &mockSyncer{result: result}
	withServices(t, &Services{Syncer: syncer})

	out, err := executeCommand(t, "sync", "invoices", "--full")

	require.NoError(t, err)
	assert.False(t, *syncer.lastIncremental)
	assert.Contains(t, out, "Checkpoint unchanged")
}

func TestSyncCmd_NoNewestDate(t *testing.T) {
	result := &domain.SyncResult{OutputFile: "out.csv"}
	withServices(t, &Services{Syncer: &mockSyncer{result: result}})

	out, err := executeCommand(t, "sync", "invoices")

	require.NoError(t, err)
	assert.NotContains(t, out, "Newest purchase date")
}

func TestSyncCmd_Error(t *testing.T) {
	withServices(t, &Services{Syncer: &mockSyncer{err: domain.ErrAuthentication}})

	_, err := executeCommand(t, "sync", "invoices")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrAuthentication))
	assert.Contains(t, err.Error(), "sync failed")
}

func TestSyncCmd_RejectsArgs(t *testing.T) {
	withServices(t, &Services{Syncer: &mockSyncer{result: syncResult()}})

	_, err := executeCommand(t, "sync", "invoices", "extra")

	assert.Error(t, err)
}
