// Package loop provides the cooperative scheduling primitives the navigation
// engine runs on.
//
// All stack operations are expected to run on a single Scheduler. Work that
// completes elsewhere (HTTP fetches, timers) is never applied directly; it is
// posted back to the scheduler as a continuation.
//
// Components:
//   - Scheduler: Post and After, the only two ways work enters the loop
//   - Loop: goroutine-backed scheduler for production use
//   - Manual: deterministic scheduler with a virtual clock for tests
//   - Future: single-resolution result with success/failure continuations
//   - Signal: one-shot readiness notification
//
// Example Usage:
//
//	l := loop.New(logger)
//	go l.Run(ctx)
//	err := l.Call(ctx, func() {
//	    st.OpenURL("/docs#intro", stack.OpenOptions{})
//	})
package loop
