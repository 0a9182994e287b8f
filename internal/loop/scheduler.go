package loop

import "time"

// Scheduler serializes engine work on one logical thread
type Scheduler interface {
	// Post queues fn to run after the currently executing task
	Post(fn func())
	// After queues fn to run once d has elapsed. The returned func cancels
	// the timer and reports whether it was still pending.
	After(d time.Duration, fn func()) (stop func() bool)
}
