package stack

import (
	"strings"
	"testing"

	"github.com/GriffinCanCode/pagestack/internal/loop"
	"github.com/GriffinCanCode/pagestack/internal/markup"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

const nestedDocument = `<!DOCTYPE html>
<html><body>
<div id="outer">
	<div class="ps-page" id="a1">A1 <a id="to-a2" href="#a2">a2</a></div>
	<div class="ps-page" id="a2">
		<div id="inner">
			<div class="ps-page" id="b1">B1 <a id="to-b2" href="#b2">b2</a> <a id="up" href="#a2">up</a></div>
			<div class="ps-page" id="b2">B2</div>
		</div>
	</div>
</div>
</body></html>`

type dispatchRecorder struct {
	nopRecorder
	dispatched []string
}

func (r *dispatchRecorder) HistoryDispatched(outcome string) {
	r.dispatched = append(r.dispatched, outcome)
}

func nested(t *testing.T, address string) (*harness, *Stack, *Stack) {
	t.Helper()
	h := newHarness(t, nestedDocument, address)
	outer, err := New(h.deps(), quiet("#outer"))
	require.NoError(t, err)
	inner, err := New(h.deps(), quiet("#inner"))
	require.NoError(t, err)
	h.sched.Drain()
	require.True(t, outer.Initialized())
	require.True(t, inner.Initialized())
	return h, outer, inner
}

func TestNestedStackUsesHostPage(t *testing.T) {
	h, outer, inner := nested(t, "/app")

	assert.Same(t, outer, inner.Parent())
	assert.Same(t, outer.GetPage("#a2"), inner.HostPage())
	assert.Equal(t, "/app", inner.BaseURL())
	assert.Equal(t, "a1", outer.ActivePage().ID())
	assert.Equal(t, "b1", inner.ActivePage().ID())

	assert.Same(t, outer, h.reg.Root())
	assert.Same(t, inner, h.reg.StackFor(h.byID("b1")))
	assert.Same(t, outer, h.reg.StackFor(h.byID("a1")))
	assert.Nil(t, h.reg.StackFor(h.doc))
}

func TestChildWaitsForParentInitialization(t *testing.T) {
	h := newHarness(t, nestedDocument, "/app")
	inner, err := New(h.deps(), quiet("#inner"))
	require.NoError(t, err)
	outer, err := New(h.deps(), quiet("#outer"))
	require.NoError(t, err)

	h.sched.Drain()

	require.True(t, inner.Initialized())
	assert.Same(t, outer, inner.Parent())
	assert.Same(t, outer.GetPage("#a2"), inner.HostPage())
	assert.Same(t, outer, h.reg.Root())

	first := func(prefix string) int {
		for i, e := range h.events {
			if strings.HasPrefix(e, prefix) {
				return i
			}
		}
		return -1
	}
	assert.Less(t, first("outer:opened:"), first("inner:ready:"))
}

func TestInitialFragmentHandedToNestedStack(t *testing.T) {
	h, outer, inner := nested(t, "/app#b2")

	assert.Equal(t, "a2", outer.ActivePage().ID())
	assert.Equal(t, "b2", inner.ActivePage().ID())
	assert.Equal(t, 1, activeCount(outer))
	assert.Equal(t, 1, activeCount(inner))

	entries, _ := h.addr.Entries()
	assert.Equal(t, []string{"/app#b2"}, entries)
}

func TestAddressChangeOpensAncestors(t *testing.T) {
	h, outer, inner := nested(t, "/app")
	rec := &dispatchRecorder{}
	h.reg.metrics = rec
	h.reset()

	h.addr.Go("/app#b2")

	assert.Equal(t, "a2", outer.ActivePage().ID())
	assert.Equal(t, "b2", inner.ActivePage().ID())
	assert.Equal(t, []string{
		"outer:close:a1",
		"outer:open:a2",
		"outer:closed:a1",
		"outer:opened:a2",
		"inner:close:b1",
		"inner:open:b2",
		"inner:closed:b1",
		"inner:opened:b2",
	}, h.events)
	assert.Equal(t, []string{DispatchPage}, rec.dispatched)

	entries, idx := h.addr.Entries()
	assert.Equal(t, []string{"/app", "/app#b2"}, entries)
	assert.Equal(t, 1, idx)
}

func TestAddressBackAndForward(t *testing.T) {
	h := newHarness(t, basicDocument, "/app")
	s := h.stack(quiet("#main"))
	s.OpenPage(s.GetPage("#two"), OpenOptions{})
	s.OpenPage(s.GetPage("#three"), OpenOptions{})

	require.True(t, h.addr.Back())
	assert.Equal(t, "two", s.ActivePage().ID())

	require.True(t, h.addr.Back())
	assert.Equal(t, "one", s.ActivePage().ID())
	assert.False(t, h.addr.Back())

	require.True(t, h.addr.Forward())
	assert.Equal(t, "two", s.ActivePage().ID())

	entries, idx := h.addr.Entries()
	assert.Equal(t, []string{"/app", "/app#two", "/app#three"}, entries)
	assert.Equal(t, 1, idx)
}

func TestAddressChangeUsesHistoryMap(t *testing.T) {
	h := newHarness(t, basicDocument, "/app")
	rec := &dispatchRecorder{}
	h.reg.metrics = rec
	s := h.stack(quiet("#main"))

	_, err := s.OpenURL("/remote#r", OpenOptions{})
	require.NoError(t, err)
	h.fetcher.last(t, "/remote").Resolve(page("r", "remote"))
	h.sched.Drain()
	require.Equal(t, "r", s.ActivePage().ID())

	s.ClosePage()
	require.Nil(t, s.GetPage("/remote#r"))

	require.True(t, h.addr.Back())
	assert.Equal(t, []string{DispatchHistory}, rec.dispatched)
	assert.Equal(t, []string{"/remote", "/remote"}, h.fetcher.calls)

	h.fetcher.last(t, "/remote").Resolve(page("r", "again"))
	h.sched.Drain()

	assert.Equal(t, "r", s.ActivePage().ID())
	entries, idx := h.addr.Entries()
	assert.Equal(t, []string{"/app", "/remote#r", "/app#three"}, entries)
	assert.Equal(t, 1, idx)
}

func TestAddressChangeFallsBackToBaseThenRoot(t *testing.T) {
	h := newHarness(t, basicDocument, "/app")
	rec := &dispatchRecorder{}
	h.reg.metrics = rec
	h.stack(quiet("#main"))

	h.addr.Go("/app#missing")
	h.addr.Go("/elsewhere")

	assert.Equal(t, []string{DispatchBase, DispatchRoot}, rec.dispatched)
	assert.Equal(t, []string{"/app", "/elsewhere"}, h.fetcher.calls)
}

func TestAddressChangeWithoutStacks(t *testing.T) {
	h := newHarness(t, basicDocument, "/app")
	rec := &dispatchRecorder{}
	h.reg.metrics = rec

	h.addr.Go("/anything")

	assert.Equal(t, []string{DispatchUnresolved}, rec.dispatched)
}

func TestRegistryCloseStopsListening(t *testing.T) {
	h := newHarness(t, basicDocument, "/app")
	s := h.stack(quiet("#main"))
	h.reg.Close()

	h.addr.Go("/app#two")

	assert.Equal(t, "one", s.ActivePage().ID())
}

type recordingAddress struct {
	*MemoryAddress
	reg   *Registry
	known []bool
}

func (a *recordingAddress) Push(url string) {
	_, ok := a.reg.History(url)
	a.known = append(a.known, ok)
	a.MemoryAddress.Push(url)
}

func TestHistoryRecordedBeforePush(t *testing.T) {
	doc, err := html.Parse(strings.NewReader(basicDocument))
	require.NoError(t, err)
	sched := loop.NewManual()
	addr := &recordingAddress{MemoryAddress: NewMemoryAddress("/app")}
	reg := NewRegistry(addr)
	addr.reg = reg

	s, err := New(Deps{Document: doc, Registry: reg, Scheduler: sched}, quiet("#main"))
	require.NoError(t, err)
	sched.Drain()

	s.OpenPage(s.GetPage("#two"), OpenOptions{})
	s.OpenPage(s.GetPage("#three"), OpenOptions{})

	assert.Equal(t, []bool{true, true}, addr.known)
}

func TestRegistryFollowLinkUsesInnermostStack(t *testing.T) {
	h, outer, inner := nested(t, "/app")

	assert.True(t, h.reg.FollowLink(h.byID("to-b2")))

	assert.Equal(t, "b2", inner.ActivePage().ID())
	assert.Equal(t, "a1", outer.ActivePage().ID())
	base, ok := h.reg.History("/app#b2")
	require.True(t, ok)
	assert.Equal(t, "/app", base)
}

func TestRegistryFollowLinkBubblesOutwards(t *testing.T) {
	h, outer, inner := nested(t, "/app")

	assert.True(t, h.reg.FollowLink(h.byID("up")))

	assert.Equal(t, "a2", outer.ActivePage().ID())
	assert.Equal(t, "b1", inner.ActivePage().ID())
}

func TestRegistryFollowLinkOutsideStacks(t *testing.T) {
	h, _, _ := nested(t, "/app")

	assert.False(t, h.reg.FollowLink(detachedLink(t, `<a href="#a2">x</a>`)))
}

func TestRemovingHostPageClosesNestedStack(t *testing.T) {
	h, outer, inner := nested(t, "/app")

	outer.OpenPage(outer.GetPage("#a2"), OpenOptions{})
	outer.ClosePage()

	assert.True(t, inner.Closed())
	_, ok := h.reg.Get("inner")
	assert.False(t, ok)
	assert.Len(t, h.reg.Stacks(), 1)
	assert.Equal(t, "a1", outer.ActivePage().ID())
}

func TestStacksWithoutIDsAreNumbered(t *testing.T) {
	doc := `<div class="stack"><div class="ps-page" id="x"></div></div><div class="stack"><div class="ps-page" id="y"></div></div>`
	h := newHarness(t, doc, "/app")

	first := h.stack(quiet(".stack"))
	second := h.stack(quiet(".stack"))

	assert.Equal(t, "1", first.ID())
	assert.Equal(t, "2", second.ID())
	assert.Equal(t, "x", first.ActivePage().ID())
	assert.Equal(t, "y", second.ActivePage().ID())
}

func TestSnapshot(t *testing.T) {
	h := newHarness(t, basicDocument, "/app")
	h.stack(quiet("#main"))

	snap := h.reg.Snapshot()
	require.Len(t, snap, 1)
	info := snap[0]

	assert.Equal(t, "main", info.ID)
	assert.Equal(t, "/app", info.BaseURL)
	assert.Equal(t, "/app#one", info.Active)
	assert.True(t, info.Ready)
	assert.False(t, info.Loading)
	assert.Equal(t, []string{"/app#one", "#two", "/app#three"}, info.NavLinks)
	require.Len(t, info.Pages, 3)
	assert.Equal(t, []string{"active"}, info.Pages[0].Flags)
	assert.Equal(t, "active", info.Pages[0].Phase)
	assert.Equal(t, []string{}, info.Pages[1].Flags)
}

func TestClassRendererReflectsState(t *testing.T) {
	h := newHarness(t, basicDocument, "/app")
	NewClassRenderer(h.reg, Classes{})
	s := h.stack(Options{Container: "#main", PagesLimit: -1})
	one, two := s.GetPage("#one"), s.GetPage("#two")

	assert.True(t, markup.HasClass(one.Node(), "ps-active"))
	assert.False(t, markup.HasClass(two.Node(), "ps-active"))

	s.OpenPage(two, OpenOptions{Temporary: true})
	assert.True(t, markup.HasClass(one.Node(), "ps-animate"))
	assert.True(t, markup.HasClass(two.Node(), "ps-temporary"))

	h.sched.Settle()
	assert.False(t, markup.HasClass(one.Node(), "ps-active"))
	assert.False(t, markup.HasClass(one.Node(), "ps-animate"))
	assert.True(t, markup.HasClass(two.Node(), "ps-active"))
	assert.Equal(t, "none", markup.Style(one.Node(), "display"))
	assert.Empty(t, markup.Style(two.Node(), "display"))

	s.OpenPage(one, OpenOptions{})
	assert.Empty(t, markup.Style(one.Node(), "display"))
	assert.True(t, markup.HasClass(two.Node(), "ps-destroying"))

	_, err := s.OpenURL("/slow", OpenOptions{})
	require.NoError(t, err)
	assert.True(t, markup.HasClass(s.PagesContainer(), "ps-loading"))
	s.CancelLoad(true)
	assert.False(t, markup.HasClass(s.PagesContainer(), "ps-loading"))
}
