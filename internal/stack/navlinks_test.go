package stack

import (
	"strings"
	"testing"

	"github.com/GriffinCanCode/pagestack/internal/markup"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func link(t *testing.T, h *harness, selector string) *html.Node {
	t.Helper()
	n := markup.FindFirst(h.doc, selector)
	require.NotNil(t, n, "no link %s", selector)
	return n
}

func detachedLink(t *testing.T, src string) *html.Node {
	t.Helper()
	n, err := markup.ParseElement(src)
	require.NoError(t, err)
	return n
}

func TestPageURL(t *testing.T) {
	h := newHarness(t, basicDocument, "/app")
	s := h.stack(quiet("#main"))
	two := s.GetPage("#two")

	assert.Equal(t, "/app#two", s.PageURL(two, true))
	assert.Equal(t, "#two", s.PageURL(two, false))
	assert.Empty(t, s.PageURL(nil, true))

	p := s.OpenContent(markup.Markup(`<p>x</p>`), OpenOptions{})
	assert.Equal(t, "/app", s.PageURL(p, false), "pages without id keep their path")
}

func TestNavLinksExcludeRoles(t *testing.T) {
	h := newHarness(t, basicDocument, "/app")
	s := h.stack(quiet("#main"))

	assert.Len(t, s.NavLinks(), 6)

	var hrefs []string
	for _, n := range s.plainNavLinks() {
		hrefs = append(hrefs, markup.AttrOr(n, "href", ""))
	}
	assert.Equal(t, []string{"/app#one", "#two", "/app#three"}, hrefs)
}

func TestNavDisabled(t *testing.T) {
	h := newHarness(t, basicDocument, "/app")
	opts := quiet("#main")
	opts.NavDisabled = true
	s := h.stack(opts)

	assert.Nil(t, s.NavContainer())
	assert.Empty(t, s.NavLinks())
	assert.Empty(t, s.FindPageNavLink(s.ActivePage(), false))
}

func TestFindPageNavLink(t *testing.T) {
	h := newHarness(t, basicDocument, "/app")
	opts := quiet("#main")
	opts.NavParentSelector = "nav"
	s := h.stack(opts)

	byURL := s.FindPageNavLink(s.GetPage("#one"), false)
	require.Len(t, byURL, 1)
	assert.Equal(t, "/app#one", markup.AttrOr(byURL[0], "href", ""))

	byFragment := s.FindPageNavLink(s.GetPage("#two"), false)
	require.Len(t, byFragment, 1)
	assert.Equal(t, "#two", markup.AttrOr(byFragment[0], "href", ""))

	withParent := s.FindPageNavLink(s.GetPage("#two"), true)
	require.Len(t, withParent, 2)
	assert.Equal(t, "nav", withParent[0].Data)
	assert.Same(t, byFragment[0], withParent[1])
}

func TestNavParentHighlight(t *testing.T) {
	doc := `<div id="main">
	<ul><li id="li-one"><a href="#one">1</a></li><li id="li-two"><a href="#two">2</a></li></ul>
	<div class="ps-page" id="one"></div><div class="ps-page" id="two"></div>
</div>`
	h := newHarness(t, doc, "/app")
	opts := quiet("#main")
	opts.NavParentSelector = "li"
	s := h.stack(opts)

	assert.True(t, markup.HasClass(h.byID("li-one"), "active"))

	s.OpenPage(s.GetPage("#two"), OpenOptions{})
	assert.False(t, markup.HasClass(h.byID("li-one"), "active"))
	assert.True(t, markup.HasClass(h.byID("li-two"), "active"))
}

func TestFindPageNavSibling(t *testing.T) {
	h := newHarness(t, basicDocument, "/app")
	s := h.stack(quiet("#main"))
	one, three := s.GetPage("#one"), s.GetPage("#three")

	next := s.FindPageNavSibling(one, Next, false)
	require.NotNil(t, next)
	assert.Equal(t, "#two", markup.AttrOr(next, "href", ""))

	assert.Nil(t, s.FindPageNavSibling(three, Next, false))
	assert.Nil(t, s.FindPageNavSibling(one, Prev, false))

	wrapped := s.FindPageNavSibling(three, Next, true)
	require.NotNil(t, wrapped)
	assert.Equal(t, "/app#one", markup.AttrOr(wrapped, "href", ""))
}

func TestFollowLinkOpensPage(t *testing.T) {
	h := newHarness(t, basicDocument, "/app")
	s := h.stack(quiet("#main"))

	assert.True(t, s.FollowLink(link(t, h, `a[href="#two"]`), OpenOptions{}))
	assert.Equal(t, "two", s.ActivePage().ID())
	assert.Equal(t, "/app#two", h.addr.Current())
}

func TestFollowLinkRoles(t *testing.T) {
	h := newHarness(t, basicDocument, "/app")
	s := h.stack(quiet("#main"))

	var reverse []bool
	s.On(EventOpen, func(e Event) { reverse = append(reverse, e.Options.Reverse) })

	assert.True(t, s.FollowLink(link(t, h, ".ps-next"), OpenOptions{}))
	assert.Equal(t, "two", s.ActivePage().ID())

	assert.True(t, s.FollowLink(link(t, h, ".ps-next"), OpenOptions{}))
	assert.Equal(t, "three", s.ActivePage().ID())

	assert.True(t, s.FollowLink(link(t, h, ".ps-prev"), OpenOptions{}))
	assert.Equal(t, "two", s.ActivePage().ID())

	assert.Equal(t, []bool{false, false, true}, reverse)
}

func TestFollowLinkNextAtEndFallsThrough(t *testing.T) {
	h := newHarness(t, basicDocument, "/app#three")
	s := h.stack(quiet("#main"))

	assert.False(t, s.FollowLink(link(t, h, ".ps-next"), OpenOptions{}), "href # is left to the host")
	assert.Equal(t, "three", s.ActivePage().ID())
}

func TestFollowLinkNextWraps(t *testing.T) {
	h := newHarness(t, basicDocument, "/app#three")
	opts := quiet("#main")
	opts.WrapNav = true
	s := h.stack(opts)

	assert.True(t, s.FollowLink(link(t, h, ".ps-next"), OpenOptions{}))
	assert.Equal(t, "one", s.ActivePage().ID())
}

func TestFollowLinkClose(t *testing.T) {
	h := newHarness(t, basicDocument, "/app")
	s := h.stack(quiet("#main"))
	one := s.ActivePage()

	assert.True(t, s.FollowLink(link(t, h, ".ps-close"), OpenOptions{}))
	assert.True(t, one.Removed())
	assert.Equal(t, "three", s.ActivePage().ID())
}

func TestFollowLinkCloseLastPage(t *testing.T) {
	doc := `<div id="main"><a class="ps-close" href="#">x</a><div class="ps-page" id="only"></div></div>`
	h := newHarness(t, doc, "/app")
	s := h.stack(quiet("#main"))

	assert.False(t, s.FollowLink(link(t, h, ".ps-close"), OpenOptions{}))
	assert.False(t, s.ActivePage().Removed())
}

func TestFollowLinkReplace(t *testing.T) {
	h := newHarness(t, basicDocument, "/app")
	s := h.stack(quiet("#main"))
	one := s.ActivePage()

	assert.True(t, s.FollowLink(detachedLink(t, `<a class="ps-replace" href="#three">3</a>`), OpenOptions{}))
	assert.True(t, one.Removed())
	assert.Equal(t, "three", s.ActivePage().ID())
}

func TestFollowLinkDeclines(t *testing.T) {
	h := newHarness(t, basicDocument, "/app")
	var filtered []string
	opts := quiet("#main")
	opts.URLFilter = func(url string) bool {
		if strings.HasPrefix(url, "/private") {
			filtered = append(filtered, url)
			return false
		}
		return true
	}
	s := h.stack(opts)

	cases := map[string]string{
		"scheme":     `<a href="https://example.com/">x</a>`,
		"mailto":     `<a href="mailto:someone@example.com">x</a>`,
		"empty hash": `<a href="#">x</a>`,
		"no href":    `<a>x</a>`,
		"onclick":    `<a href="#two" onclick="go()">x</a>`,
		"target":     `<a href="#two" target="_blank">x</a>`,
		"external":   `<a class="ps-external" href="#two">x</a>`,
		"filtered":   `<a href="/private/page">x</a>`,
		"unknown":    `<a href="#nowhere">x</a>`,
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			assert.False(t, s.FollowLink(detachedLink(t, src), OpenOptions{}))
			assert.Equal(t, "one", s.ActivePage().ID())
		})
	}
	assert.Equal(t, []string{"/private/page"}, filtered)
	assert.Empty(t, h.fetcher.calls)
}

func TestSpecialPageFragments(t *testing.T) {
	h := newHarness(t, basicDocument, "/app")
	s := h.stack(quiet("#main"))

	steps := []struct {
		url  string
		want string
	}{
		{"#next-page", "two"},
		{"#last-page", "three"},
		{"#prev-page", "two"},
		{"#first-page", "one"},
	}
	for _, step := range steps {
		p, err := s.OpenURL(step.url, OpenOptions{})
		require.NoError(t, err, step.url)
		require.NotNil(t, p, step.url)
		assert.Equal(t, step.want, s.ActivePage().ID(), step.url)
	}

	_, err := s.OpenURL("#prev-page", OpenOptions{})
	assert.ErrorIs(t, err, ErrUnsupportedURL)
	assert.Equal(t, "one", s.ActivePage().ID())
}

func TestSpecialPageFragmentsWrap(t *testing.T) {
	h := newHarness(t, basicDocument, "/app")
	opts := quiet("#main")
	opts.WrapNav = true
	s := h.stack(opts)

	_, err := s.OpenURL("#prev-page", OpenOptions{})
	require.NoError(t, err)
	assert.Equal(t, "three", s.ActivePage().ID())
}

func TestSpecialNavFragments(t *testing.T) {
	h := newHarness(t, basicDocument, "/app")
	s := h.stack(quiet("#main"))

	steps := []struct {
		url  string
		want string
	}{
		{"#next", "two"},
		{"#last", "three"},
		{"#prev", "two"},
		{"#first", "one"},
	}
	for _, step := range steps {
		_, err := s.OpenURL(step.url, OpenOptions{})
		require.NoError(t, err, step.url)
		assert.Equal(t, step.want, s.ActivePage().ID(), step.url)
	}

	_, err := s.OpenURL("#prev", OpenOptions{})
	assert.ErrorIs(t, err, ErrUnsupportedURL)
}

func TestSpecialFragmentsSkipDestroyingPages(t *testing.T) {
	h := newHarness(t, basicDocument, "/app")
	s := h.stack(Options{Container: "#main", PagesLimit: -1})

	s.OpenPage(s.GetPage("#three"), OpenOptions{Temporary: true})
	s.OpenPage(s.GetPage("#two"), OpenOptions{})
	require.True(t, s.GetPage("#three").Destroying())

	_, err := s.OpenURL("#last-page", OpenOptions{})
	require.NoError(t, err)
	assert.Equal(t, "two", s.ActivePage().ID(), "last live page is already active")
}
