package monitoring

import (
	"time"

	"github.com/GriffinCanCode/pagestack/internal/stack"
	"github.com/GriffinCanCode/pagestack/internal/transport"
)

var (
	_ stack.Recorder     = (*Metrics)(nil)
	_ transport.Recorder = (*Metrics)(nil)
)

// PageOpened counts an opened page
func (m *Metrics) PageOpened(stackID string) {
	m.PagesOpened.WithLabelValues(stackID).Inc()
	m.mu.Lock()
	m.snapshot.PagesOpened++
	m.mu.Unlock()
}

// PageClosed counts a closed page
func (m *Metrics) PageClosed(stackID string) {
	m.PagesClosed.WithLabelValues(stackID).Inc()
}

// PageDestroyed counts a removed page
func (m *Metrics) PageDestroyed(stackID, reason string) {
	m.PagesDestroyed.WithLabelValues(stackID, reason).Inc()
}

// LoadFinished records a finished load
func (m *Metrics) LoadFinished(stackID, outcome string, d time.Duration) {
	m.Loads.WithLabelValues(stackID, outcome).Inc()
	if outcome == stack.LoadSuccess || outcome == stack.LoadError {
		m.LoadDuration.WithLabelValues(stackID).Observe(d.Seconds())
	}

	m.mu.Lock()
	m.snapshot.Loads++
	if outcome == stack.LoadError {
		m.snapshot.FailedLoads++
	}
	m.mu.Unlock()
}

// UnsupportedURL counts a url no stack could open
func (m *Metrics) UnsupportedURL(stackID string) {
	m.UnsupportedURLs.WithLabelValues(stackID).Inc()
}

// HistoryDispatched counts an address change
func (m *Metrics) HistoryDispatched(outcome string) {
	m.HistoryDispatches.WithLabelValues(outcome).Inc()
}

// LivePages sets the number of pages held by a stack
func (m *Metrics) LivePages(stackID string, n int) {
	m.PagesLive.WithLabelValues(stackID).Set(float64(n))
}

// Fetched records a remote fetch
func (m *Metrics) Fetched(host, outcome string, d time.Duration) {
	m.Fetches.WithLabelValues(host, outcome).Inc()
	m.FetchDuration.WithLabelValues(host).Observe(d.Seconds())
}
