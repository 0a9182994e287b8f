package motion

import (
	"fmt"
	"sort"
	"sync"

	"github.com/GriffinCanCode/pagestack/internal/loop"
	"golang.org/x/net/html"
)

// Motion animates target for a transition and calls done once finished
type Motion interface {
	Animate(sched loop.Scheduler, target *html.Node, kind Transition, cfg Config, done func())
}

// Func adapts a function to Motion
type Func func(sched loop.Scheduler, target *html.Node, kind Transition, cfg Config, done func())

// Animate calls f
func (f Func) Animate(sched loop.Scheduler, target *html.Node, kind Transition, cfg Config, done func()) {
	f(sched, target, kind, cfg, done)
}

// Registry is the lookup table of named motions
type Registry struct {
	mu      sync.RWMutex
	motions map[string]Motion
}

// NewRegistry creates a registry holding the built-in motions
func NewRegistry() *Registry {
	r := &Registry{motions: make(map[string]Motion)}
	r.motions["none"] = Func(None)
	r.motions["fade"] = Func(Fade)
	r.motions["slide"] = Func(Slide)
	return r
}

// Register adds or replaces a named motion
func (r *Registry) Register(name string, m Motion) error {
	if name == "" {
		return fmt.Errorf("motion name cannot be empty")
	}
	if m == nil {
		return fmt.Errorf("motion %q is nil", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.motions[name] = m
	return nil
}

// Get looks up a motion
func (r *Registry) Get(name string) (Motion, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.motions[name]
	return m, ok
}

// Names lists registered motions
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.motions))
	for name := range r.motions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
