package stack

import (
	"strings"

	"github.com/GriffinCanCode/pagestack/internal/markup"
	"golang.org/x/net/html"
)

// Flags is the state flag set of a page
type Flags uint8

const (
	FlagActive Flags = 1 << iota
	FlagTemporary
	FlagPermanent
	FlagDestroying
	FlagLoading
)

var flagNames = []struct {
	flag Flags
	name string
}{
	{FlagActive, "active"},
	{FlagTemporary, "temporary"},
	{FlagPermanent, "permanent"},
	{FlagDestroying, "destroying"},
	{FlagLoading, "loading"},
}

// Names lists the set flags
func (f Flags) Names() []string {
	var out []string
	for _, fn := range flagNames {
		if f&fn.flag != 0 {
			out = append(out, fn.name)
		}
	}
	return out
}

// String joins the flag names
func (f Flags) String() string {
	return strings.Join(f.Names(), "|")
}

// Phase is where a page is in its lifecycle
type Phase int

const (
	PhaseReady Phase = iota
	PhaseOpening
	PhaseActive
	PhaseClosing
	PhaseClosed
	PhaseRemoved
)

// String returns the string representation of the phase
func (p Phase) String() string {
	switch p {
	case PhaseReady:
		return "ready"
	case PhaseOpening:
		return "opening"
	case PhaseActive:
		return "active"
	case PhaseClosing:
		return "closing"
	case PhaseClosed:
		return "closed"
	case PhaseRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// Page is one managed content panel of a stack
type Page struct {
	node       *html.Node
	stack      *Stack
	url        string
	flags      Flags
	phase      Phase
	animations int
	order      int
	handlers   handlers
}

// Node returns the page element
func (p *Page) Node() *html.Node {
	return p.node
}

// Stack returns the owning stack
func (p *Page) Stack() *Stack {
	return p.stack
}

// URL returns the canonical url (path and query)
func (p *Page) URL() string {
	return p.url
}

// ID returns the fragment id of the page
func (p *Page) ID() string {
	return markup.AttrOr(p.node, "id", "")
}

// Href returns the absolute url of the page
func (p *Page) Href() string {
	return p.stack.PageURL(p, true)
}

// Flags returns the state flags
func (p *Page) Flags() Flags { return p.flags }

// Has reports whether any of f is set
func (p *Page) Has(f Flags) bool { return p.flags&f != 0 }

// Active reports whether the page is the open one
func (p *Page) Active() bool { return p.Has(FlagActive) }

// Temporary reports whether the page is removed once closed
func (p *Page) Temporary() bool { return p.Has(FlagTemporary) }

// Permanent reports whether eviction skips the page
func (p *Page) Permanent() bool { return p.Has(FlagPermanent) }

// Destroying reports whether the page is removed after its close
func (p *Page) Destroying() bool { return p.Has(FlagDestroying) }

// Loading reports whether the page is a placeholder awaiting content
func (p *Page) Loading() bool { return p.Has(FlagLoading) }

// Phase returns the lifecycle phase
func (p *Page) Phase() Phase { return p.phase }

// Removed reports whether the page left its stack
func (p *Page) Removed() bool { return p.phase == PhaseRemoved }

// Animating reports whether a transition is running on the page
func (p *Page) Animating() bool { return p.animations > 0 }

// Order is the creation order within the stack
func (p *Page) Order() int { return p.order }

// SetPermanent exempts the page from eviction
func (p *Page) SetPermanent(on bool) {
	p.set(FlagPermanent, on)
}

// On registers a handler for events of this page
func (p *Page) On(t EventType, fn Handler) {
	p.handlers.add(t, fn)
}

func (p *Page) set(f Flags, on bool) {
	before := p.flags
	if on {
		p.flags |= f
	} else {
		p.flags &^= f
	}
	if p.flags != before {
		p.stack.changed(p)
	}
}

func (p *Page) setPhase(phase Phase) {
	if p.phase != phase {
		p.phase = phase
		p.stack.changed(p)
	}
}

func (p *Page) animationStarted() {
	p.animations++
	if p.animations == 1 {
		p.stack.changed(p)
	}
}

func (p *Page) animationDone() {
	if p.animations == 0 {
		return
	}
	p.animations--
	if p.animations == 0 {
		p.stack.changed(p)
	}
}
