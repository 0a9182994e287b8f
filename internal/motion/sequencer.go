package motion

import (
	"github.com/GriffinCanCode/pagestack/internal/loop"
	"github.com/GriffinCanCode/pagestack/internal/markup"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// Sequencer runs motions and chains the next animation of a swap. Queued
// motions on a node wait for the node's running motions to finish.
type Sequencer struct {
	sched   loop.Scheduler
	motions *Registry
	logger  *zap.Logger

	running map[*html.Node]int
	waiting map[*html.Node][]func()
}

// NewSequencer creates a sequencer. A nil registry gets the built-ins.
func NewSequencer(sched loop.Scheduler, motions *Registry, logger *zap.Logger) *Sequencer {
	if motions == nil {
		motions = NewRegistry()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sequencer{
		sched:   sched,
		motions: motions,
		logger:  logger,
		running: make(map[*html.Node]int),
		waiting: make(map[*html.Node][]func()),
	}
}

// Motions returns the lookup table in use
func (s *Sequencer) Motions() *Registry {
	return s.motions
}

// Run animates target and calls finished once done. next, when set, is
// started immediately for overlapping configs, else after finished.
// disabled skips the motion and runs finished then next synchronously.
// A queued config starts only once target has no motion running.
func (s *Sequencer) Run(target *html.Node, kind Transition, cfg Config, disabled bool, finished func(), next func()) {
	if finished == nil {
		finished = func() {}
	}

	if disabled {
		finished()
		if next != nil {
			next()
		}
		return
	}

	if next != nil && cfg.NextDelay > 0 {
		delayed := next
		next = func() { s.sched.After(cfg.NextDelay, delayed) }
	}

	start := func() { s.start(target, kind, cfg, finished, next) }
	if cfg.Queue && s.running[target] > 0 {
		s.waiting[target] = append(s.waiting[target], start)
		return
	}
	start()
}

// Busy reports whether target has a motion running or queued
func (s *Sequencer) Busy(target *html.Node) bool {
	return s.running[target] > 0 || len(s.waiting[target]) > 0
}

func (s *Sequencer) start(target *html.Node, kind Transition, cfg Config, finished func(), next func()) {
	s.running[target]++

	settled := false
	onFinished := func() {
		if settled {
			return
		}
		settled = true
		s.release(target)
		finished()
		if next != nil && !cfg.Overlap {
			next()
		}
		s.dequeue(target)
	}

	m := s.lookup(cfg.Motion)
	if m == nil {
		onFinished()
	} else if cfg.Children {
		s.animateChildren(m, target, kind, cfg, onFinished)
	} else {
		m.Animate(s.sched, target, kind, cfg, onFinished)
	}

	if next != nil && cfg.Overlap {
		next()
	}
}

func (s *Sequencer) release(target *html.Node) {
	if s.running[target]--; s.running[target] <= 0 {
		delete(s.running, target)
	}
}

// dequeue starts the oldest queued motion of an idle target
func (s *Sequencer) dequeue(target *html.Node) {
	if s.running[target] > 0 {
		return
	}
	queue := s.waiting[target]
	if len(queue) == 0 {
		return
	}
	if len(queue) == 1 {
		delete(s.waiting, target)
	} else {
		s.waiting[target] = queue[1:]
	}
	queue[0]()
}

func (s *Sequencer) lookup(name string) Motion {
	if name == "" {
		return nil
	}
	m, ok := s.motions.Get(name)
	if !ok {
		s.logger.Warn("Unknown motion", zap.String("motion", name))
		return nil
	}
	return m
}

// animateChildren runs m on every element child and finishes after the last
func (s *Sequencer) animateChildren(m Motion, target *html.Node, kind Transition, cfg Config, done func()) {
	children := markup.Elements(target)
	if len(children) == 0 {
		done()
		return
	}

	remaining := len(children)
	for _, child := range children {
		m.Animate(s.sched, child, kind, cfg, func() {
			remaining--
			if remaining == 0 {
				done()
			}
		})
	}
}
