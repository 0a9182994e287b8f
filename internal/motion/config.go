package motion

import (
	"fmt"
	"time"
)

// Transition names the page transition being animated
type Transition string

const (
	Open   Transition = "open"
	Close  Transition = "close"
	Loaded Transition = "loaded"
)

// Config describes how one transition is animated
type Config struct {
	// Motion is the registry name of the motion; empty finishes immediately
	Motion   string        `json:"motion"`
	Delay    time.Duration `json:"delay"`
	Duration time.Duration `json:"duration"`
	// NextDelay postpones the next animation of a swap
	NextDelay time.Duration `json:"next_delay"`
	// Easing is a CSS timing function set on the animated node by the
	// built-in motions and passed as is to custom ones
	Easing string `json:"easing,omitempty"`
	// Queue waits for the node's running motions before starting
	Queue bool `json:"queue"`
	// Overlap starts the next animation without waiting for this one
	Overlap bool `json:"overlap"`
	// Children animates the element children instead of the node itself
	Children bool `json:"children"`
	// Reverse is set per run for backward navigation
	Reverse bool `json:"-"`
}

// Validate checks the config
func (c Config) Validate() error {
	if c.Delay < 0 || c.Duration < 0 || c.NextDelay < 0 {
		return fmt.Errorf("motion %q: negative timing", c.Motion)
	}
	return nil
}

// Total is the time until the motion completes
func (c Config) Total() time.Duration {
	return c.Delay + c.Duration
}

// Set holds the animation for every transition. A per-transition entry
// replaces All for that transition.
type Set struct {
	All           Config
	PerTransition map[Transition]Config
}

// DefaultSet slides pages and fades in loaded content
func DefaultSet() Set {
	return Set{
		All: Config{
			Motion:   "slide",
			Duration: 500 * time.Millisecond,
			Queue:    true,
			Overlap:  true,
		},
		PerTransition: map[Transition]Config{
			Loaded: {
				Motion:   "fade",
				Duration: 200 * time.Millisecond,
				Children: true,
			},
		},
	}
}

// For returns the config used for transition t
func (s Set) For(t Transition) Config {
	if cfg, ok := s.PerTransition[t]; ok {
		return cfg
	}
	return s.All
}

// With returns a copy of s with t configured as cfg
func (s Set) With(t Transition, cfg Config) Set {
	per := make(map[Transition]Config, len(s.PerTransition)+1)
	for k, v := range s.PerTransition {
		per[k] = v
	}
	per[t] = cfg
	return Set{All: s.All, PerTransition: per}
}

// Validate checks every config in the set
func (s Set) Validate() error {
	if err := s.All.Validate(); err != nil {
		return err
	}
	for t, cfg := range s.PerTransition {
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("%s: %w", t, err)
		}
	}
	return nil
}
