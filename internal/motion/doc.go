// Package motion sequences animated page transitions.
//
// A Motion animates one node for a transition and reports completion through
// a callback. Motions are looked up by name in a Registry that ships with
// "none", "fade" and "slide". Visual work is limited to inline styles; real
// rendering is left to whoever renders the document.
//
// The Sequencer runs a motion for a page and decides when the next page in
// a close->open swap may start:
//   - Overlap: next starts as soon as this animation starts
//   - otherwise next starts once this animation finishes
//   - NextDelay postpones next on the scheduler
//
// Example Usage:
//
//	seq := motion.NewSequencer(sched, motion.NewRegistry(), logger)
//	cfg := motion.DefaultSet().For(motion.Close)
//	seq.Run(current, motion.Close, cfg, false, onClosed, func() {
//		seq.Run(target, motion.Open, motion.DefaultSet().For(motion.Open), false, onOpened, nil)
//	})
package motion
