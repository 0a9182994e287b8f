package stack

import (
	"regexp"

	"github.com/GriffinCanCode/pagestack/internal/markup"
	"golang.org/x/net/html"
)

// Direction along the navigation links
type Direction int

const (
	Next Direction = iota
	Prev
)

// schemePattern matches urls with a scheme, which are never followed
var schemePattern = regexp.MustCompile(`^\w+:`)

// PageURL returns the url of a page. Relative urls drop the path when the
// page has an id and lives at the stack base url.
func (s *Stack) PageURL(p *Page, absolute bool) string {
	if p == nil {
		return ""
	}
	url := p.url
	id := p.ID()
	if !absolute && id != "" && url == s.baseURL {
		url = ""
	}
	if id != "" {
		url += "#" + id
	}
	return url
}

// NavLinks returns the navigation links in document order
func (s *Stack) NavLinks() []*html.Node {
	nav := s.NavContainer()
	if nav == nil || s.opts.NavSelector == "" {
		return nil
	}
	return markup.Find(nav, s.opts.NavSelector)
}

// plainNavLinks returns the navigation links without close/next/prev roles
func (s *Stack) plainNavLinks() []*html.Node {
	var out []*html.Node
	for _, n := range s.NavLinks() {
		if !s.isRoleLink(n) {
			out = append(out, n)
		}
	}
	return out
}

func (s *Stack) isRoleLink(n *html.Node) bool {
	r := s.opts.Roles
	return markup.Is(n, r.Next) || markup.Is(n, r.Prev) || markup.Is(n, r.Close)
}

// FindPageNavLink returns the navigation links pointing at page, by its
// absolute url or its fragment. includeParent adds their ancestors
// matching the nav parent selector.
func (s *Stack) FindPageNavLink(p *Page, includeParent bool) []*html.Node {
	url := s.PageURL(p, true)
	if url == "" {
		return nil
	}
	frag := ParseURL(url).Fragment

	var out []*html.Node
	seen := make(map[*html.Node]bool)
	add := func(n *html.Node) {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}

	for _, link := range s.plainNavLinks() {
		href, _ := markup.Attr(link, "href")
		if href != url && (frag == "" || href != "#"+frag) {
			continue
		}
		if includeParent && s.opts.NavParentSelector != "" {
			for a := link.Parent; a != nil; a = a.Parent {
				if markup.Is(a, s.opts.NavParentSelector) {
					add(a)
				}
			}
		}
		add(link)
	}
	return out
}

// FindPageNavSibling returns the navigation link next to the one of page
func (s *Stack) FindPageNavSibling(p *Page, dir Direction, wrap bool) *html.Node {
	own := s.FindPageNavLink(p, false)
	if len(own) == 0 {
		return nil
	}
	step := 1
	if dir == Prev {
		step = -1
	}
	return sibling(s.plainNavLinks(), own[0], step, wrap)
}

func hrefOf(n *html.Node) (string, bool) {
	if n == nil {
		return "", false
	}
	href, ok := markup.Attr(n, "href")
	return href, ok && href != ""
}

// FollowLink handles activation of link the way a click would. It returns
// false when the host should apply its default behaviour instead.
func (s *Stack) FollowLink(link *html.Node, opts OpenOptions) bool {
	if link == nil || s.closed {
		return false
	}
	r := s.opts.Roles
	opts.Replace = opts.Replace || markup.Is(link, r.Replace)
	opts.Reverse = opts.Reverse || markup.Is(link, r.Reverse)

	switch {
	case markup.Is(link, r.Close):
		if len(s.pages) > 1 {
			s.ClosePage()
			return true
		}
		opts.Reverse = true
	case markup.Is(link, r.Next):
		if sib := s.FindPageNavSibling(s.ActivePage(), Next, s.opts.WrapNav); sib != nil {
			s.FollowLink(sib, opts)
			return true
		}
	case markup.Is(link, r.Prev):
		opts.Reverse = true
		if sib := s.FindPageNavSibling(s.ActivePage(), Prev, s.opts.WrapNav); sib != nil {
			s.FollowLink(sib, opts)
			return true
		}
	}

	href, _ := markup.Attr(link, "href")
	if href == "" || href == "#" || schemePattern.MatchString(href) {
		return false
	}
	if _, ok := markup.Attr(link, "onclick"); ok {
		return false
	}
	if _, ok := markup.Attr(link, "target"); ok {
		return false
	}
	if markup.Is(link, r.External) {
		return false
	}
	if s.opts.URLFilter != nil && !s.opts.URLFilter(href) {
		return false
	}

	if _, err := s.OpenURL(href, opts); err != nil {
		return false
	}
	return true
}
