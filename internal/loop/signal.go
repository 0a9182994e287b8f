package loop

import "sync"

// Signal is a one-shot notification. Waiters registered before or after
// Fire are all posted to the scheduler exactly once.
type Signal struct {
	sched   Scheduler
	mu      sync.Mutex
	fired   bool
	waiters []func()
}

// NewSignal creates an unfired signal
func NewSignal(sched Scheduler) *Signal {
	return &Signal{sched: sched}
}

// Fire publishes the signal. Returns false if it was already fired.
func (s *Signal) Fire() bool {
	s.mu.Lock()
	if s.fired {
		s.mu.Unlock()
		return false
	}
	s.fired = true
	waiters := s.waiters
	s.waiters = nil
	s.mu.Unlock()

	for _, fn := range waiters {
		s.sched.Post(fn)
	}
	return true
}

// Fired reports whether Fire has been called
func (s *Signal) Fired() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fired
}

// Wait registers fn to run once the signal fires
func (s *Signal) Wait(fn func()) {
	s.mu.Lock()
	if !s.fired {
		s.waiters = append(s.waiters, fn)
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	s.sched.Post(fn)
}
