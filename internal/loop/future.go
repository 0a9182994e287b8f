package loop

import (
	"errors"
	"sync"
)

// ErrAborted rejects a future whose operation was cancelled
var ErrAborted = errors.New("operation aborted")

// State of a Future
type State int

const (
	StatePending State = iota
	StateResolved
	StateRejected
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateResolved:
		return "resolved"
	case StateRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Future is a single-resolution result. It may be settled from any
// goroutine; continuations always run on the Scheduler given to Then.
type Future[T any] struct {
	mu      sync.Mutex
	state   State
	value   T
	err     error
	abort   func()
	waiters []waiter[T]
}

type waiter[T any] struct {
	sched Scheduler
	ok    func(T)
	fail  func(error)
}

// NewFuture creates a pending future. abort, when set, is invoked once by
// Abort to stop the underlying work.
func NewFuture[T any](abort func()) *Future[T] {
	return &Future[T]{abort: abort}
}

// Resolved returns an already resolved future
func Resolved[T any](v T) *Future[T] {
	return &Future[T]{state: StateResolved, value: v}
}

// Rejected returns an already rejected future
func Rejected[T any](err error) *Future[T] {
	return &Future[T]{state: StateRejected, err: err}
}

// Resolve settles the future with v. Returns false if already settled.
func (f *Future[T]) Resolve(v T) bool {
	return f.settle(StateResolved, v, nil)
}

// Reject settles the future with err. Returns false if already settled.
func (f *Future[T]) Reject(err error) bool {
	var zero T
	return f.settle(StateRejected, zero, err)
}

func (f *Future[T]) settle(state State, v T, err error) bool {
	f.mu.Lock()
	if f.state != StatePending {
		f.mu.Unlock()
		return false
	}
	f.state = state
	f.value = v
	f.err = err
	f.abort = nil
	waiters := f.waiters
	f.waiters = nil
	f.mu.Unlock()

	for _, w := range waiters {
		f.dispatch(w)
	}
	return true
}

// State returns the current state
func (f *Future[T]) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Pending reports whether the future is still unsettled
func (f *Future[T]) Pending() bool {
	return f.State() == StatePending
}

// Result returns the settled value or error. The zero value and nil are
// returned while pending.
func (f *Future[T]) Result() (T, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value, f.err
}

// Then registers continuations. They are posted to sched once the future
// settles, or immediately if it already has.
func (f *Future[T]) Then(sched Scheduler, ok func(T), fail func(error)) {
	w := waiter[T]{sched: sched, ok: ok, fail: fail}

	f.mu.Lock()
	if f.state == StatePending {
		f.waiters = append(f.waiters, w)
		f.mu.Unlock()
		return
	}
	f.mu.Unlock()
	f.dispatch(w)
}

func (f *Future[T]) dispatch(w waiter[T]) {
	f.mu.Lock()
	state, value, err := f.state, f.value, f.err
	f.mu.Unlock()

	w.sched.Post(func() {
		switch state {
		case StateResolved:
			if w.ok != nil {
				w.ok(value)
			}
		case StateRejected:
			if w.fail != nil {
				w.fail(err)
			}
		}
	})
}

// Abort stops the underlying work and rejects the future with ErrAborted.
// Calling it more than once, or on a settled future, has no effect.
func (f *Future[T]) Abort() {
	f.mu.Lock()
	abort := f.abort
	f.abort = nil
	f.mu.Unlock()

	if abort != nil {
		abort()
	}
	f.Reject(ErrAborted)
}
