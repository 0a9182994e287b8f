package stack

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/GriffinCanCode/pagestack/internal/loop"
	"github.com/GriffinCanCode/pagestack/internal/markup"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

const basicDocument = `<!DOCTYPE html>
<html><body>
<div id="main">
	<nav class="nav">
		<a href="/app#one">One</a>
		<a href="#two">Two</a>
		<a href="/app#three">Three</a>
		<a class="ps-next" href="#">Next</a>
		<a class="ps-prev" href="#">Prev</a>
		<a class="ps-close" href="#">Close</a>
	</nav>
	<div class="ps-pages">
		<div class="ps-page" id="one">first</div>
		<div class="ps-page" id="two">second</div>
		<div class="ps-page" id="three">third</div>
	</div>
</div>
</body></html>`

// fakeFetcher hands out pending futures resolved by the test
type fakeFetcher struct {
	calls   []string
	futures map[string][]*loop.Future[markup.Content]
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{futures: make(map[string][]*loop.Future[markup.Content])}
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) *loop.Future[markup.Content] {
	fut := loop.NewFuture[markup.Content](nil)
	f.calls = append(f.calls, url)
	f.futures[url] = append(f.futures[url], fut)
	return fut
}

func (f *fakeFetcher) last(t *testing.T, url string) *loop.Future[markup.Content] {
	t.Helper()
	list := f.futures[url]
	require.NotEmpty(t, list, "no fetch for %s", url)
	return list[len(list)-1]
}

type harness struct {
	t       *testing.T
	sched   *loop.Manual
	doc     *html.Node
	addr    *MemoryAddress
	reg     *Registry
	fetcher *fakeFetcher
	events  []string
}

func newHarness(t *testing.T, document, address string) *harness {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(document))
	require.NoError(t, err)

	h := &harness{
		t:       t,
		sched:   loop.NewManual(),
		doc:     doc,
		addr:    NewMemoryAddress(address),
		fetcher: newFakeFetcher(),
	}
	h.reg = NewRegistry(h.addr)
	h.reg.Observe(func(e Event) {
		h.events = append(h.events, fmt.Sprintf("%s:%s:%s", e.Stack.ID(), e.Type, e.Page.ID()))
	})
	return h
}

func (h *harness) deps() Deps {
	return Deps{
		Document:  h.doc,
		Registry:  h.reg,
		Scheduler: h.sched,
		Fetcher:   h.fetcher,
	}
}

// stack creates a stack and runs its initialization
func (h *harness) stack(opts Options) *Stack {
	h.t.Helper()
	s, err := New(h.deps(), opts)
	require.NoError(h.t, err)
	h.sched.Drain()
	require.True(h.t, s.Initialized())
	return s
}

func (h *harness) byID(id string) *html.Node {
	h.t.Helper()
	n := markup.ByID(h.doc, id)
	require.NotNil(h.t, n, "no element #%s", id)
	return n
}

func (h *harness) reset() {
	h.events = nil
}

// quiet are options for a stack without animations keeping every page
func quiet(container string) Options {
	return Options{
		Container:        container,
		DisableAnimation: true,
		PagesLimit:       -1,
		History:          true,
	}
}

func ids(pages []*Page) []string {
	out := make([]string, 0, len(pages))
	for _, p := range pages {
		out = append(out, p.ID())
	}
	return out
}

func activeCount(s *Stack) int {
	n := 0
	for _, p := range s.Pages() {
		if p.Active() {
			n++
		}
	}
	return n
}
