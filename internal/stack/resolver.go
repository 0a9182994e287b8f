package stack

import (
	"github.com/GriffinCanCode/pagestack/internal/infrastructure/logging"
	"github.com/GriffinCanCode/pagestack/internal/loop"
	"github.com/GriffinCanCode/pagestack/internal/markup"
)

type resolutionKind int

const (
	resolveDefault resolutionKind = iota
	resolveUnsupported
	resolveImmediate
	resolvePending
)

// Resolution is what a ContentProvider decided for a url. The zero value
// asks for default handling.
type Resolution struct {
	kind    resolutionKind
	content markup.Content
	future  *loop.Future[markup.Content]
}

// Unsupported declines the url
func Unsupported() Resolution {
	return Resolution{kind: resolveUnsupported}
}

// UseDefault fetches the url without its fragment through the Fetcher
func UseDefault() Resolution {
	return Resolution{kind: resolveDefault}
}

// Immediate supplies the content directly
func Immediate(c markup.Content) Resolution {
	return Resolution{kind: resolveImmediate, content: c}
}

// Pending supplies content that will arrive later
func Pending(f *loop.Future[markup.Content]) Resolution {
	if f == nil {
		return Unsupported()
	}
	return Resolution{kind: resolvePending, future: f}
}

// GetPage returns the page matching url: the canonical url must equal the
// path when one is given, the id must equal the fragment when one is given
func (s *Stack) GetPage(url string) *Page {
	u := ParseURL(url)
	base := u.Base()
	if base == "" && u.Fragment == "" {
		return nil
	}
	for _, p := range s.pages {
		if base != "" && p.url != base {
			continue
		}
		if u.Fragment != "" && p.ID() != u.Fragment {
			continue
		}
		return p
	}
	return nil
}

// LoadPageURL returns the existing page for url or starts loading it.
// The page is nil while content is pending without a placeholder.
func (s *Stack) LoadPageURL(url string, opts OpenOptions) (*Page, error) {
	page, _, err := s.loadPageURL(url, opts, true)
	return page, err
}

// loadPageURL reports existing when the page was already in the stack.
// Loaded pages have been handed to opts.loaded by then.
func (s *Stack) loadPageURL(url string, opts OpenOptions, special bool) (page *Page, existing bool, err error) {
	opts.url = url
	u := ParseURL(url)

	if !opts.Reload {
		if p := s.GetPage(url); p != nil {
			return p, true, nil
		}
	}

	if special && (isNavSpecial(u.Fragment) || isPageSpecial(u.Fragment)) {
		target, ok := s.resolveSpecial(u.Fragment)
		if !ok {
			s.unsupported(url)
			return nil, false, ErrUnsupportedURL
		}
		return s.loadPageURL(target, opts, false)
	}

	res := UseDefault()
	if s.opts.ContentProvider != nil {
		res = s.opts.ContentProvider(s.ctx, Request{
			URL:      url,
			Path:     u.Base(),
			Fragment: u.Fragment,
			Stack:    s,
			Options:  opts,
		})
	}

	var future *loop.Future[markup.Content]
	switch res.kind {
	case resolveUnsupported:
		s.unsupported(url)
		return nil, false, ErrUnsupportedURL
	case resolveImmediate:
		future = loop.Resolved(res.content)
	case resolvePending:
		future = res.future
	default:
		base := u.Base()
		if base == "" || s.fetcher == nil {
			s.unsupported(url)
			return nil, false, ErrUnsupportedURL
		}
		future = s.fetcher.Fetch(s.ctx, base)
	}

	var reuse *Page
	if opts.Reload {
		reuse = s.GetPage(url)
	}
	return s.createPageFromFuture(future, reuse, opts), false, nil
}

// resolveSpecial maps a reserved fragment to a concrete url
func (s *Stack) resolveSpecial(frag string) (string, bool) {
	if isNavSpecial(frag) {
		links := s.plainNavLinks()
		if len(links) == 0 {
			return "", false
		}
		switch frag {
		case specialFirst:
			return hrefOf(links[0])
		case specialLast:
			return hrefOf(links[len(links)-1])
		case specialNext, specialPrev:
			dir := Next
			if frag == specialPrev {
				dir = Prev
			}
			return hrefOf(s.FindPageNavSibling(s.ActivePage(), dir, s.opts.WrapNav))
		}
		return "", false
	}

	var pages []*Page
	for _, p := range s.pages {
		if !p.Destroying() {
			pages = append(pages, p)
		}
	}
	if len(pages) == 0 {
		return "", false
	}

	var target *Page
	switch frag {
	case specialFirstPage:
		target = pages[0]
	case specialLastPage:
		target = pages[len(pages)-1]
	case specialNextPage, specialPrevPage:
		step := 1
		if frag == specialPrevPage {
			step = -1
		}
		target = sibling(pages, s.ActivePage(), step, s.opts.WrapNav)
	}
	if target == nil {
		return "", false
	}
	url := s.PageURL(target, true)
	return url, url != ""
}

func (s *Stack) unsupported(url string) {
	s.metrics.UnsupportedURL(s.id)
	s.logger.Debug("Unsupported url", logging.URL(url))
}

// sibling returns the element step positions away from current in list
func sibling[T comparable](list []T, current T, step int, wrap bool) T {
	var zero T
	idx := -1
	for i, v := range list {
		if v == current {
			idx = i
			break
		}
	}
	if idx < 0 {
		return zero
	}
	next := idx + step
	if next < 0 || next >= len(list) {
		if !wrap {
			return zero
		}
		next = (next + len(list)) % len(list)
	}
	if next == idx {
		return zero
	}
	return list[next]
}
