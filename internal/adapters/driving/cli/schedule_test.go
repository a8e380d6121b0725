package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockScheduler implements driving.Scheduler for testing.
type mockScheduler struct {
	startErr error
	started  bool
	stopped  bool
	// during runs while Start blocks.
	during func()
}

func (m *mockScheduler) Start(_ context.Context) error {
	m.started = true
	if m.during != nil {
		m.during()
	}
	return m.startErr
}

func (m *mockScheduler) Stop() error {
	m.stopped = true
	return nil
}

func freeAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return addr
}

func TestScheduleCmd_Use(t *testing.T) {
	assert.Equal(t, "schedule", scheduleCmd.Use)
	assert.NotNil(t, scheduleCmd.Flags().Lookup("metrics-addr"))
}

func TestScheduleCmd_NotConfigured(t *testing.T) {
	withServices(t, &Services{})

	_, err := executeCommand(t, "schedule")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "scheduler not configured")
}

func TestScheduleCmd_StopsOnCancel(t *testing.T) {
	sched := &mockScheduler{startErr: context.Canceled}
	withServices(t, &Services{Scheduler: sched})

	out, err := executeCommand(t, "schedule")

	require.NoError(t, err)
	assert.True(t, sched.started)
	assert.True(t, sched.stopped)
	assert.Contains(t, out, "Scheduler started")
	assert.Contains(t, out, "Scheduler stopped.")
}

func TestScheduleCmd_Error(t *testing.T) {
	sched := &mockScheduler{startErr: errors.New("store unavailable")}
	withServices(t, &Services{Scheduler: sched})

	_, err := executeCommand(t, "schedule")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "store unavailable")
	assert.True(t, sched.stopped)
}

func TestScheduleCmd_MetricsNotConfigured(t *testing.T) {
	withServices(t, &Services{Scheduler: &mockScheduler{}})

	_, err := executeCommand(t, "schedule", "--metrics-addr", "127.0.0.1:0")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "metrics not configured")
}

func TestScheduleCmd_ServesMetrics(t *testing.T) {
	addr := freeAddr(t)
	var body string
	var fetchErr error

	sched := &mockScheduler{during: func() {
		url := fmt.Sprintf("http://%s/metrics", addr)
		deadline := time.Now().Add(2 * time.Second)
		for time.Now().Before(deadline) {
			resp, err := http.Get(url)
			if err != nil {
				fetchErr = err
				time.Sleep(20 * time.Millisecond)
				continue
			}
			data, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			body, fetchErr = string(data), nil
			return
		}
	}}
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "kvsync_runs_total 1\n")
	})
	withServices(t, &Services{Scheduler: sched, Metrics: handler})

	_, err := executeCommand(t, "schedule", "--metrics-addr", addr)

	require.NoError(t, err)
	require.NoError(t, fetchErr)
	assert.Contains(t, body, "kvsync_runs_total 1")
}
