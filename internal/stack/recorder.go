package stack

import "time"

// Load outcomes reported to the Recorder
const (
	LoadSuccess   = "success"
	LoadError     = "error"
	LoadStale     = "stale"
	LoadCancelled = "cancelled"
)

// Destroy reasons reported to the Recorder
const (
	DestroyTemporary = "temporary"
	DestroyEvicted   = "evicted"
	DestroyClosed    = "closed"
)

// Recorder receives navigation metrics
type Recorder interface {
	PageOpened(stack string)
	PageClosed(stack string)
	PageDestroyed(stack, reason string)
	LoadFinished(stack, outcome string, d time.Duration)
	UnsupportedURL(stack string)
	HistoryDispatched(outcome string)
	LivePages(stack string, n int)
}

type nopRecorder struct{}

func (nopRecorder) PageOpened(string)                          {}
func (nopRecorder) PageClosed(string)                          {}
func (nopRecorder) PageDestroyed(string, string)               {}
func (nopRecorder) LoadFinished(string, string, time.Duration) {}
func (nopRecorder) UnsupportedURL(string)                      {}
func (nopRecorder) HistoryDispatched(string)                   {}
func (nopRecorder) LivePages(string, int)                      {}
