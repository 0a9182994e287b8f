package monitoring

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/GriffinCanCode/pagestack/internal/stack"
	"github.com/GriffinCanCode/pagestack/internal/transport"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMetrics(t *testing.T) (*Metrics, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	return NewMetrics(reg), reg
}

func TestRecorderCounters(t *testing.T) {
	m, _ := newTestMetrics(t)

	m.PageOpened("main")
	m.PageOpened("main")
	m.PageClosed("main")
	m.PageDestroyed("main", stack.DestroyEvicted)
	m.LivePages("main", 3)
	m.LivePages("main", 2)
	m.UnsupportedURL("inner")
	m.HistoryDispatched(stack.DispatchHistory)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.PagesOpened.WithLabelValues("main")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PagesClosed.WithLabelValues("main")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PagesDestroyed.WithLabelValues("main", "evicted")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.PagesLive.WithLabelValues("main")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UnsupportedURLs.WithLabelValues("inner")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HistoryDispatches.WithLabelValues("history")))
}

func TestLoadFinished(t *testing.T) {
	m, _ := newTestMetrics(t)

	m.LoadFinished("main", stack.LoadSuccess, 120*time.Millisecond)
	m.LoadFinished("main", stack.LoadError, time.Second)
	m.LoadFinished("main", stack.LoadStale, time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Loads.WithLabelValues("main", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Loads.WithLabelValues("main", "stale")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.LoadDuration), "one series for main")

	snap := m.Snapshot()
	assert.Equal(t, int64(3), snap.Loads)
	assert.Equal(t, int64(1), snap.FailedLoads)
}

func TestFetched(t *testing.T) {
	m, _ := newTestMetrics(t)

	m.Fetched("docs.example", transport.OutcomeSuccess, 50*time.Millisecond)
	m.Fetched("docs.example", transport.OutcomeError, time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Fetches.WithLabelValues("docs.example", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Fetches.WithLabelValues("docs.example", "error")))
}

func TestSeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		newTestMetrics(t)
		newTestMetrics(t)
	})
}

func TestMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m, reg := newTestMetrics(t)

	router := gin.New()
	router.Use(Middleware(m))
	router.GET("/api/stacks/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/metrics", gin.WrapH(Handler(reg)))

	for _, path := range []string{"/api/stacks/a", "/api/stacks/b", "/missing"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/api/stacks/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "unmatched", "404")))

	snap := m.Snapshot()
	assert.Equal(t, int64(3), snap.TotalRequests)
	assert.Equal(t, int64(1), snap.TotalErrors)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, `pagestack_http_requests_total{method="GET",path="/api/stacks/:id",status="200"} 2`))
	assert.Contains(t, body, "pagestack_uptime_seconds")
}

func TestWSConnections(t *testing.T) {
	m, _ := newTestMetrics(t)

	m.IncWSConnections()
	m.IncWSConnections()
	m.DecWSConnections()
	m.RecordWSMessage("out", "snapshot")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.WSConnections))
	assert.Equal(t, int64(1), m.Snapshot().ActiveConnections)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WSMessages.WithLabelValues("out", "snapshot")))
}

func TestRecordOperation(t *testing.T) {
	m, reg := newTestMetrics(t)

	m.RecordOperation("navigate", "success", 2*time.Millisecond)
	m.RecordOperation("navigate", "error", time.Millisecond)
	m.RecordOperation("click", "success", time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("navigate", "error")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.OperationDuration))

	count, err := testutil.GatherAndCount(reg, "pagestack_session_operations_total")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}
