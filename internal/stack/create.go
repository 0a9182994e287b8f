package stack

import (
	"strings"

	"github.com/GriffinCanCode/pagestack/internal/infrastructure/logging"
	"github.com/GriffinCanCode/pagestack/internal/markup"
	"github.com/GriffinCanCode/pagestack/internal/motion"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// OpenContent creates a page from content and opens it
func (s *Stack) OpenContent(content markup.Content, opts OpenOptions) *Page {
	pages := s.parsePages(content, nil, opts)
	if len(pages) == 0 {
		return nil
	}
	s.OpenPage(pages[0], opts)
	return pages[0]
}

// parsePages turns content into pages. The candidate matching the url
// fragment, else the first, goes into reuse when given; every other
// candidate becomes a new page.
func (s *Stack) parsePages(content markup.Content, reuse *Page, opts OpenOptions) []*Page {
	candidates, err := s.parser.Candidates(content, markup.Scope{
		ContainerID:  markup.AttrOr(s.container, "id", s.id),
		PageSelector: s.opts.PageSelector,
	})
	if err != nil {
		s.logger.Warn("Content could not be parsed", logging.URL(opts.url), zap.Error(err))
		candidates = nil
	}

	if reuse != nil {
		reuse.set(FlagLoading|FlagTemporary, false)
	}
	if len(candidates) == 0 {
		return nil
	}

	first := 0
	if frag := ParseURL(opts.url).Fragment; frag != "" {
		for i, c := range candidates {
			if len(c) == 1 && markup.AttrOr(c[0], "id", "") == frag {
				first = i
				break
			}
		}
	}

	pages := make([]*Page, 0, len(candidates))
	pages = append(pages, s.createPage(candidates[first], reuse, opts))
	for i, c := range candidates {
		if i != first {
			pages = append(pages, s.createPage(c, nil, opts))
		}
	}
	return pages
}

// createPage makes a page out of nodes, or fills reuse with them. Nodes
// that already form a page of this stack are returned as is.
func (s *Stack) createPage(nodes []*html.Node, reuse *Page, opts OpenOptions) *Page {
	if len(nodes) == 1 {
		if p := s.pageByNode(nodes[0]); p != nil {
			return p
		}
	}

	frag := ParseURL(opts.url).Fragment
	shaped := len(nodes) == 1 && markup.Is(nodes[0], s.opts.PageSelector)

	var page *Page
	if reuse == nil {
		var node *html.Node
		if shaped {
			node = nodes[0]
			markup.Detach(node)
		} else {
			node = s.template()
			for _, n := range nodes {
				markup.Append(node, n)
			}
			if frag != "" && markup.AttrOr(node, "id", "") == "" {
				markup.SetAttr(node, "id", frag)
			}
		}
		s.pagesContainer.AppendChild(node)
		page = s.adopt(node)
	} else {
		page = reuse
		if shaped {
			mergeAttrs(page.node, nodes[0])
			markup.MoveChildren(page.node, nodes[0])
		} else {
			for _, n := range nodes {
				markup.Append(page.node, n)
			}
			if frag != "" && page.ID() == "" {
				markup.SetAttr(page.node, "id", frag)
			}
		}
		s.animateLoaded(page, opts)
	}

	if opts.Temporary {
		page.set(FlagTemporary, true)
	}

	s.initializePage(page, opts.url, opts)

	if page.Active() {
		s.onPageOpen(page, opts)
		s.onPageOpened(page, opts)
	}
	return page
}

// template returns a fresh page wrapper
func (s *Stack) template() *html.Node {
	node, err := markup.ParseElement(s.opts.PageTemplate)
	if err != nil {
		node = markup.Element("div")
	}
	markup.AddClass(node, s.opts.PageClass)
	return node
}

func (s *Stack) animateLoaded(p *Page, opts OpenOptions) {
	cfg := s.animationFor(motion.Loaded, opts)
	p.animationStarted()
	s.seq.Run(p.node, motion.Loaded, cfg, s.animationDisabled(opts), p.animationDone, nil)
}

// mergeAttrs copies the attributes of src onto dst. Classes and styles are
// combined, anything else is overwritten. src is left without attributes.
func mergeAttrs(dst, src *html.Node) {
	for _, a := range src.Attr {
		if a.Namespace != "" {
			continue
		}
		switch a.Key {
		case "class":
			for _, c := range strings.Fields(a.Val) {
				markup.AddClass(dst, c)
			}
		case "style":
			val := a.Val
			if have := markup.AttrOr(dst, "style", ""); have != "" {
				val = strings.TrimSuffix(strings.TrimSpace(val), ";") + "; " + have
			}
			markup.SetAttr(dst, "style", val)
		default:
			markup.SetAttr(dst, a.Key, a.Val)
		}
	}
	src.Attr = nil
}
