package metrics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiotviet-integration/kvsync/internal/core/domain"
)

func TestRecorder_SyncEvents(t *testing.T) {
	r := New(Config{}, nil)

	r.PageFetched(100, 40)
	r.PageFetched(20, 20)
	r.InvoiceWritten(3)
	r.InvoiceWritten(0)
	r.DetailFailed()
	r.SyncFinished(&domain.SyncResult{Duration: 2 * time.Second, CheckpointUpdated: true}, nil)
	r.SyncFinished(nil, errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(r.pagesFetched))
	assert.Equal(t, 120.0, testutil.ToFloat64(r.recordsFetched))
	assert.Equal(t, 60.0, testutil.ToFloat64(r.invoicesKept))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.invoicesWritten))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.linesWritten))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.detailFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.syncsTotal.WithLabelValues("succeeded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.syncsTotal.WithLabelValues("failed")))
	assert.Greater(t, testutil.ToFloat64(r.watermark), 0.0)
}

func TestRecorder_RunFinished_WithoutPushgateway(t *testing.T) {
	r := New(Config{}, nil)
	finished := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	err := r.RunFinished(context.Background(), &domain.SyncRun{
		Status:     domain.RunSucceeded,
		FinishedAt: finished,
		Products:   42,
	}, 3*time.Second)
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.runsTotal.WithLabelValues("succeeded")))
	assert.Equal(t, float64(finished.Unix()), testutil.ToFloat64(r.lastRunSuccess))
	assert.Equal(t, 42.0, testutil.ToFloat64(r.runProducts))
}

func TestRecorder_RunFinished_FailedRunKeepsLastSuccess(t *testing.T) {
	r := New(Config{}, nil)

	err := r.RunFinished(context.Background(), &domain.SyncRun{
		Status:     domain.RunFailed,
		FinishedAt: time.Now(),
	}, time.Second)
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.runsTotal.WithLabelValues("failed")))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.lastRunSuccess))
}

func TestRecorder_RunFinished_Pushes(t *testing.T) {
	var (
		mu     sync.Mutex
		method string
		path   string
		body   string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		method = req.Method
		path = req.URL.Path
		data, _ := io.ReadAll(req.Body)
		body = string(data)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	r := New(Config{PushgatewayURL: server.URL, Job: "kvsync-test"}, nil)
	err := r.RunFinished(context.Background(), &domain.SyncRun{ID: "run-1", Status: domain.RunSucceeded}, time.Second)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/metrics/job/kvsync-test", path)
	assert.NotEmpty(t, body)
}

func TestRecorder_RunFinished_PushError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	r := New(Config{PushgatewayURL: server.URL}, nil)
	err := r.RunFinished(context.Background(), &domain.SyncRun{Status: domain.RunSucceeded}, time.Second)

	assert.ErrorContains(t, err, "push metrics")
}

func TestRecorder_Handler(t *testing.T) {
	r := New(Config{}, nil)
	r.InvoiceWritten(2)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "kvsync_invoice_lines_written_total 2")
}
