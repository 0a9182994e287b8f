package stack

import (
	"github.com/GriffinCanCode/pagestack/internal/infrastructure/logging"
	"github.com/GriffinCanCode/pagestack/internal/markup"
	"github.com/GriffinCanCode/pagestack/internal/motion"
)

// OpenPage closes the active page and opens target. A nil target only
// closes. Opening the active page does nothing.
func (s *Stack) OpenPage(target *Page, opts OpenOptions) {
	current := s.ActivePage()
	if target != nil && target == current {
		return
	}
	if target != nil && (target.stack != s || target.Removed()) {
		s.logger.Warn("Refusing to open foreign page", logging.URL(target.url))
		return
	}

	if s.loading != nil {
		s.CancelLoad(true)
	}

	if current != nil {
		if opts.Replace {
			current.set(FlagTemporary, true)
		}
		s.onPageClose(current, opts)
	}
	if target != nil {
		s.onPageOpen(target, opts)
	}

	switch {
	case current != nil:
		s.animate(current, motion.Close, opts, func() {
			if target != nil {
				s.animate(target, motion.Open, opts, nil)
			}
		})
	case target != nil:
		s.animate(target, motion.Open, opts, nil)
	}
}

// OpenURL resolves url and opens the resulting page. The page is nil while
// content loads without a placeholder; ErrUnsupportedURL leaves the stack
// untouched. Freshly loaded content is opened by openLoadedPages.
func (s *Stack) OpenURL(url string, opts OpenOptions) (*Page, error) {
	opts.url = url
	opts.loaded = func(pages []*Page) {
		s.openLoadedPages(pages, opts)
	}

	page, existing, err := s.loadPageURL(url, opts, true)
	if err != nil {
		return nil, err
	}
	if existing && !page.Loading() {
		s.OpenPage(page, opts)
	}
	return page, nil
}

// ClosePage closes the active page for good and reopens the most recent
// other page
func (s *Stack) ClosePage() {
	if active := s.ActivePage(); active != nil {
		active.set(FlagTemporary, true)
	}
	target := s.LastPage(func(p *Page) bool { return !p.Active() })
	s.OpenPage(target, OpenOptions{Reverse: true})
}

// ReloadPage loads the content of page again, the active page when nil
func (s *Stack) ReloadPage(page *Page) (*Page, error) {
	if page == nil {
		page = s.ActivePage()
	}
	if page == nil {
		return nil, nil
	}
	url := s.PageURL(page, true)
	if url == "" {
		return nil, nil
	}
	return s.OpenURL(url, OpenOptions{Reload: true})
}

// openLoadedPages opens the page the url asks for among freshly created
// pages: the fragment match, else the preferred page, else the first
func (s *Stack) openLoadedPages(pages []*Page, opts OpenOptions) {
	var page *Page
	if frag := ParseURL(opts.url).Fragment; frag != "" {
		for _, p := range pages {
			if p.ID() == frag {
				page = p
				break
			}
		}
		if page == nil && !opts.retried {
			retry := opts
			retry.retried = true
			retry.OnSuccess = nil
			retry.ShowLoadingPage = LoadingPlaceholder
			if _, err := s.OpenURL("#"+frag, retry); err == nil {
				return
			}
			page = s.deferToNested(pages, "#"+frag)
		}
	}

	if len(pages) == 0 {
		return
	}
	if page == nil {
		page = opts.preferred
	}
	if page == nil {
		page = pages[0]
	}
	if page.Removed() {
		return
	}

	if opts.first {
		for _, p := range pages {
			if p != page && p.Active() {
				p.set(FlagActive, false)
			}
		}
		if !page.Active() {
			s.onPageOpen(page, opts)
		}
		s.onPageOpened(page, opts)
		return
	}
	if !page.Active() {
		s.OpenPage(page, opts)
	}
}

// deferToNested hands url to stacks nested in pages that have not opened
// anything yet. The first page hosting such a stack is returned.
func (s *Stack) deferToNested(pages []*Page, url string) *Page {
	var host *Page
	for _, p := range pages {
		for _, child := range s.reg.within(p.node) {
			if child.initialized {
				continue
			}
			child.initialURL = url
			if host == nil {
				host = p
			}
		}
	}
	return host
}

func (s *Stack) onPageClose(p *Page, opts OpenOptions) {
	p.set(FlagActive, false)
	p.setPhase(PhaseClosing)
	s.highlight(p, false)
	if p.Temporary() {
		p.set(FlagDestroying, true)
	}
	s.metrics.PageClosed(s.id)
	s.fire(p, EventClose, opts)
}

func (s *Stack) onPageOpen(p *Page, opts OpenOptions) {
	p.set(FlagDestroying, false)
	p.set(FlagActive, true)
	p.setPhase(PhaseOpening)
	s.highlight(p, true)
	if opts.Temporary {
		p.set(FlagTemporary, true)
	}
	s.metrics.PageOpened(s.id)
	s.fire(p, EventOpen, opts)
	s.recordHistory(p, opts)
}

// onPageClosed finishes a close animation. A page opened again meanwhile
// keeps its state; eviction runs either way.
func (s *Stack) onPageClosed(p *Page, opts OpenOptions) {
	if !p.Removed() && !p.Active() {
		p.setPhase(PhaseClosed)
		s.fire(p, EventClosed, opts)
		if p.Destroying() {
			s.fire(p, EventDestroy, opts)
			s.removePage(p, DestroyTemporary)
		}
	}
	s.cleanupOldPages()
}

// onPageOpened finishes an open animation of a page still active
func (s *Stack) onPageOpened(p *Page, opts OpenOptions) {
	if p.Removed() || !p.Active() {
		return
	}
	p.setPhase(PhaseActive)
	s.fire(p, EventOpened, opts)
}

func (s *Stack) animate(p *Page, kind motion.Transition, opts OpenOptions, next func()) {
	cfg := s.animationFor(kind, opts)
	p.animationStarted()
	s.seq.Run(p.node, kind, cfg, s.animationDisabled(opts), func() {
		p.animationDone()
		switch kind {
		case motion.Close:
			s.onPageClosed(p, opts)
		case motion.Open:
			s.onPageOpened(p, opts)
		}
	}, next)
}

func (s *Stack) animationFor(kind motion.Transition, opts OpenOptions) motion.Config {
	cfg := s.opts.Animation.For(kind)
	if opts.Animation != nil {
		cfg = *opts.Animation
	}
	cfg.Reverse = opts.Reverse
	return cfg
}

func (s *Stack) animationDisabled(opts OpenOptions) bool {
	return opts.NoAnimation || s.opts.DisableAnimation
}

// recordHistory records the page in the registry, then pushes its url to
// the address
func (s *Stack) recordHistory(p *Page, opts OpenOptions) {
	if !s.opts.History || opts.NoHistory || opts.first || p.Loading() {
		return
	}
	url := s.PageURL(p, true)
	if url == "" {
		return
	}
	s.reg.record(url, s.baseURL)
}

func (s *Stack) highlight(p *Page, on bool) {
	for _, n := range s.FindPageNavLink(p, true) {
		markup.ToggleClass(n, s.opts.LinkActiveClass, on)
	}
}
