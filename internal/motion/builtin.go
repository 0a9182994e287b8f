package motion

import (
	"github.com/GriffinCanCode/pagestack/internal/loop"
	"github.com/GriffinCanCode/pagestack/internal/markup"
	"golang.org/x/net/html"
)

// None finishes without animating
func None(_ loop.Scheduler, _ *html.Node, _ Transition, _ Config, done func()) {
	done()
}

// Fade animates opacity in for open/loaded and out for close
func Fade(sched loop.Scheduler, target *html.Node, kind Transition, cfg Config, done func()) {
	from, to := "0", "1"
	if kind == Close {
		from, to = "1", "0"
	}
	markup.SetStyle(target, "opacity", from)
	ease(target, cfg)
	sched.After(cfg.Total(), func() {
		markup.SetStyle(target, "opacity", to)
		done()
	})
}

// Slide moves pages in from one side and out to the other. Reverse swaps
// the direction.
func Slide(sched loop.Scheduler, target *html.Node, kind Transition, cfg Config, done func()) {
	before, after := "100%", "-100%"
	if cfg.Reverse {
		before, after = after, before
	}

	to := "0"
	if kind == Close {
		to = after
	} else {
		markup.SetStyle(target, "left", before)
	}
	ease(target, cfg)
	sched.After(cfg.Total(), func() {
		markup.SetStyle(target, "left", to)
		done()
	})
}

// ease hands the timing curve to the renderer
func ease(target *html.Node, cfg Config) {
	if cfg.Easing != "" {
		markup.SetStyle(target, "transition-timing-function", cfg.Easing)
	}
}
