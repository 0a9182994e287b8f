package stack

import (
	"github.com/GriffinCanCode/pagestack/internal/markup"
)

// Classes are the state classes written by ClassRenderer
type Classes struct {
	Active     string
	Temporary  string
	Permanent  string
	Destroying string
	Loading    string
	Animate    string
}

// DefaultClasses returns the ps-* state classes
func DefaultClasses() Classes {
	return Classes{
		Active:     "ps-active",
		Temporary:  "ps-temporary",
		Permanent:  "ps-permanent",
		Destroying: "ps-destroying",
		Loading:    "ps-loading",
		Animate:    "ps-animate",
	}
}

// ClassRenderer reflects page state onto the document as classes, and
// hides closed pages. The engine never reads these back.
type ClassRenderer struct {
	classes Classes
}

// NewClassRenderer subscribes a renderer to every stack of reg
func NewClassRenderer(reg *Registry, classes Classes) *ClassRenderer {
	if classes == (Classes{}) {
		classes = DefaultClasses()
	}
	r := &ClassRenderer{classes: classes}
	reg.Watch(r.Render)
	reg.WatchLoader(r.renderLoader)
	return r
}

// Render writes the state of p onto its node
func (r *ClassRenderer) Render(p *Page) {
	n := p.Node()
	markup.ToggleClass(n, r.classes.Active, p.Active())
	markup.ToggleClass(n, r.classes.Temporary, p.Temporary())
	markup.ToggleClass(n, r.classes.Permanent, p.Permanent())
	markup.ToggleClass(n, r.classes.Destroying, p.Destroying())
	markup.ToggleClass(n, r.classes.Loading, p.Loading())
	markup.ToggleClass(n, r.classes.Animate, p.Animating())

	switch p.Phase() {
	case PhaseClosed:
		markup.SetStyle(n, "display", "none")
	case PhaseOpening, PhaseActive:
		markup.SetStyle(n, "display", "")
	}
}

func (r *ClassRenderer) renderLoader(s *Stack, visible bool) {
	markup.ToggleClass(s.PagesContainer(), r.classes.Loading, visible)
}
