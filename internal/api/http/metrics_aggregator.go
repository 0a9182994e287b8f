package http

import (
	"context"
	"net/http"
	"time"

	"github.com/GriffinCanCode/pagestack/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/pagestack/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/pagestack/internal/session"
	"github.com/gin-gonic/gin"
)

// BreakerReporter exposes per-host fetch breaker states
type BreakerReporter interface {
	BreakerStates() map[string]resilience.State
}

// MetricsAggregator combines process metrics, session stats and fetch
// breaker states into one JSON document
type MetricsAggregator struct {
	metrics  *monitoring.Metrics
	nav      Navigator
	breakers BreakerReporter
}

// NewMetricsAggregator creates a metrics aggregator; breakers may be nil
func NewMetricsAggregator(metrics *monitoring.Metrics, nav Navigator, breakers BreakerReporter) *MetricsAggregator {
	return &MetricsAggregator{
		metrics:  metrics,
		nav:      nav,
		breakers: breakers,
	}
}

// MetricsSnapshot represents a snapshot of all daemon metrics
type MetricsSnapshot struct {
	Timestamp time.Time                  `json:"timestamp"`
	Metrics   monitoring.MetricsSnapshot `json:"metrics"`
	Session   *session.Stats             `json:"session,omitempty"`
	Breakers  map[string]string          `json:"breakers"`
	Summary   MetricsSummary             `json:"summary"`
}

// MetricsSummary provides high-level metrics
type MetricsSummary struct {
	TotalRequests     int64   `json:"total_requests"`
	ErrorRate         float64 `json:"error_rate"`
	LoadFailureRate   float64 `json:"load_failure_rate"`
	ActiveConnections int64   `json:"active_connections"`
	OpenBreakers      int     `json:"open_breakers"`
	UptimeSeconds     float64 `json:"uptime_seconds"`
}

// GetAggregatedMetrics returns the combined metrics
func (ma *MetricsAggregator) GetAggregatedMetrics(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	c.JSON(http.StatusOK, ma.Collect(ctx))
}

// Collect builds the snapshot. Session stats are omitted if the session
// does not answer in time.
func (ma *MetricsAggregator) Collect(ctx context.Context) MetricsSnapshot {
	snap := MetricsSnapshot{
		Timestamp: time.Now(),
		Metrics:   ma.metrics.Snapshot(),
		Breakers:  make(map[string]string),
	}
	if ma.nav != nil {
		if stats, err := ma.nav.Stats(ctx); err == nil {
			snap.Session = &stats
		}
	}
	open := 0
	if ma.breakers != nil {
		for host, state := range ma.breakers.BreakerStates() {
			snap.Breakers[host] = state.String()
			if state == resilience.StateOpen {
				open++
			}
		}
	}
	snap.Summary = summarize(snap.Metrics, open)
	return snap
}

func summarize(m monitoring.MetricsSnapshot, openBreakers int) MetricsSummary {
	s := MetricsSummary{
		TotalRequests:     m.TotalRequests,
		ActiveConnections: m.ActiveConnections,
		OpenBreakers:      openBreakers,
		UptimeSeconds:     m.UptimeSeconds,
	}
	if m.TotalRequests > 0 {
		s.ErrorRate = float64(m.TotalErrors) / float64(m.TotalRequests)
	}
	if m.Loads > 0 {
		s.LoadFailureRate = float64(m.FailedLoads) / float64(m.Loads)
	}
	return s
}
