package stack

import (
	"context"
	"strconv"

	"github.com/GriffinCanCode/pagestack/internal/infrastructure/logging"
	"github.com/GriffinCanCode/pagestack/internal/loop"
	"github.com/GriffinCanCode/pagestack/internal/markup"
	"github.com/GriffinCanCode/pagestack/internal/motion"
	"github.com/GriffinCanCode/pagestack/internal/shared/id"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// Attributes written on the document
const (
	AttrContainer = "data-ps-container"
	AttrPage      = "data-ps-page"
	AttrURL       = "data-ps-url"
)

// Markup classes read when pages are first discovered
const (
	classActive    = "ps-active"
	classPermanent = "ps-permanent"
	classTemporary = "ps-temporary"
)

// Fetcher loads the markup behind a url
type Fetcher interface {
	Fetch(ctx context.Context, url string) *loop.Future[markup.Content]
}

// FetcherFunc adapts a function to Fetcher
type FetcherFunc func(ctx context.Context, url string) *loop.Future[markup.Content]

// Fetch calls f
func (f FetcherFunc) Fetch(ctx context.Context, url string) *loop.Future[markup.Content] {
	return f(ctx, url)
}

// Deps are the collaborators of a stack
type Deps struct {
	// Document is the root of the live document
	Document  *html.Node
	Registry  *Registry
	Scheduler loop.Scheduler
	Fetcher   Fetcher
	Motions   *motion.Registry
	Parser    *markup.Parser
	Logger    *zap.Logger
	Metrics   Recorder
	IDs       *id.Generator
	// Context bounds fetches started by the stack
	Context context.Context
}

// Stack manages the pages of one container. All methods must be called on
// the stack's scheduler.
type Stack struct {
	id      string
	opts    Options
	reg     *Registry
	sched   loop.Scheduler
	fetcher Fetcher
	parser  *markup.Parser
	seq     *motion.Sequencer
	logger  *zap.Logger
	metrics Recorder
	ids     *id.Generator
	ctx     context.Context
	cancel  context.CancelFunc

	document       *html.Node
	container      *html.Node
	pagesContainer *html.Node

	pages     []*Page
	nextOrder int
	loading   *loadOperation
	loader    bool
	onLoader  []func(bool)
	handlers  handlers

	parent         *Stack
	host           *Page
	parentResolved bool
	baseURL        string
	initialURL     string
	ready          *loop.Signal
	initialized    bool
	closed         bool
}

// New creates a stack on its container and registers it. Pages are
// discovered and the first page opened on the scheduler, after any parent
// stack finished its own initialization.
func New(deps Deps, opts Options) (*Stack, error) {
	opts = opts.WithDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if deps.Document == nil {
		return nil, configError("document is required")
	}
	if deps.Registry == nil {
		return nil, configError("registry is required")
	}
	if deps.Scheduler == nil {
		return nil, configError("scheduler is required")
	}

	container := opts.ContainerNode
	if container != nil {
		if _, taken := markup.Attr(container, AttrContainer); taken {
			container = nil
		}
	} else {
		container = freeContainer(deps.Document, opts.Container)
	}
	if container == nil {
		return nil, configError("container %q is missing or already occupied", opts.Container)
	}

	stackID := opts.ID
	if stackID == "" {
		stackID = markup.AttrOr(container, "id", "")
	}
	if stackID == "" {
		stackID = deps.Registry.nextID()
	}
	if _, exists := deps.Registry.Get(stackID); exists {
		return nil, configError("stack id %q already registered", stackID)
	}

	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Metrics == nil {
		deps.Metrics = nopRecorder{}
	}
	if deps.Parser == nil {
		deps.Parser = markup.NewParser()
	}
	if deps.IDs == nil {
		deps.IDs = id.Default()
	}
	if deps.Context == nil {
		deps.Context = context.Background()
	}

	pagesContainer := markup.FindFirst(container, opts.PagesContainer)
	if pagesContainer == nil {
		pagesContainer = container
	}

	ctx, cancel := context.WithCancel(deps.Context)
	s := &Stack{
		id:             stackID,
		opts:           opts,
		reg:            deps.Registry,
		sched:          deps.Scheduler,
		fetcher:        deps.Fetcher,
		parser:         deps.Parser,
		seq:            motion.NewSequencer(deps.Scheduler, deps.Motions, deps.Logger),
		logger:         deps.Logger.With(logging.Stack(stackID)),
		metrics:        deps.Metrics,
		ids:            deps.IDs,
		ctx:            ctx,
		cancel:         cancel,
		document:       deps.Document,
		container:      container,
		pagesContainer: pagesContainer,
		handlers:       make(handlers),
		initialURL:     opts.InitialURL,
		ready:          loop.NewSignal(deps.Scheduler),
	}

	markup.SetAttr(container, AttrContainer, stackID)
	s.reg.register(s)
	s.sched.Post(s.initialize)

	s.logger.Debug("Stack created", zap.String("container", container.Data))
	return s, nil
}

// freeContainer returns the first match of selector not yet hosting a stack
func freeContainer(doc *html.Node, selector string) *html.Node {
	for _, n := range markup.Find(doc, selector) {
		if _, taken := markup.Attr(n, AttrContainer); !taken {
			return n
		}
	}
	return nil
}

// ID returns the stack id
func (s *Stack) ID() string { return s.id }

// Options returns the options the stack was created with
func (s *Stack) Options() Options { return s.opts }

// Registry returns the registry the stack belongs to
func (s *Stack) Registry() *Registry { return s.reg }

// Container returns the stack element
func (s *Stack) Container() *html.Node { return s.container }

// PagesContainer returns the element holding the pages
func (s *Stack) PagesContainer() *html.Node { return s.pagesContainer }

// BaseURL is the path and query of the document the stack lives in
func (s *Stack) BaseURL() string { return s.baseURL }

// Parent returns the enclosing stack, nil for a root stack
func (s *Stack) Parent() *Stack { return s.parent }

// HostPage returns the page of Parent holding the stack
func (s *Stack) HostPage() *Page { return s.host }

// Initialized reports whether initialization finished
func (s *Stack) Initialized() bool { return s.initialized }

// Closed reports whether the stack was torn down
func (s *Stack) Closed() bool { return s.closed }

// LoaderVisible reports whether the loading indicator is shown
func (s *Stack) LoaderVisible() bool { return s.loader }

// Ready fires once the stack is initialized
func (s *Stack) Ready() *loop.Signal { return s.ready }

// Logger returns the stack logger
func (s *Stack) Logger() *zap.Logger { return s.logger }

// Sequencer returns the animation sequencer
func (s *Stack) Sequencer() *motion.Sequencer { return s.seq }

// LinksContainer returns where links are followed
func (s *Stack) LinksContainer() *html.Node {
	return s.resolve(s.opts.LinksContainer)
}

// NavContainer returns where navigation links live, nil when disabled
func (s *Stack) NavContainer() *html.Node {
	if s.opts.NavDisabled {
		return nil
	}
	return s.resolve(s.opts.NavContainer)
}

func (s *Stack) resolve(selector string) *html.Node {
	if selector == "" {
		return s.container
	}
	return markup.FindFirst(s.container, selector)
}

// Pages returns the pages in creation order
func (s *Stack) Pages() []*Page {
	return append([]*Page(nil), s.pages...)
}

// ActivePage returns the active page or nil
func (s *Stack) ActivePage() *Page {
	for i := len(s.pages) - 1; i >= 0; i-- {
		if s.pages[i].Active() {
			return s.pages[i]
		}
	}
	return nil
}

// LastPage returns the most recent page that is not being destroyed and
// satisfies keep, which may be nil
func (s *Stack) LastPage(keep func(*Page) bool) *Page {
	for i := len(s.pages) - 1; i >= 0; i-- {
		p := s.pages[i]
		if p.Destroying() {
			continue
		}
		if keep == nil || keep(p) {
			return p
		}
	}
	return nil
}

// On registers a handler for events of every page of this stack
func (s *Stack) On(t EventType, fn Handler) {
	s.handlers.add(t, fn)
}

// OnLoader registers fn to be told when the loading indicator changes
func (s *Stack) OnLoader(fn func(visible bool)) {
	if fn != nil {
		s.onLoader = append(s.onLoader, fn)
	}
}

// Close cancels any load and unregisters the stack with every stack nested
// in it. Pages stay in the document.
func (s *Stack) Close() {
	if s.closed {
		return
	}
	s.closed = true
	if op := s.loading; op != nil {
		s.loading = nil
		op.future.Abort()
		s.showLoader(false)
	}
	s.cancel()
	s.reg.unregisterWithin(s.container)
	s.reg.unregister(s)
	markup.RemoveAttr(s.container, AttrContainer)
	s.logger.Debug("Stack closed")
}

func (s *Stack) initialize() {
	if s.closed || s.initialized {
		return
	}

	if !s.parentResolved {
		s.parentResolved = true
		s.parent = s.reg.enclosing(s.container.Parent)
	}
	if s.parent != nil && !s.parent.ready.Fired() {
		s.parent.ready.Wait(s.initialize)
		return
	}

	url := s.startURL()
	if base, ok := markup.Attr(s.container, AttrURL); ok && base != "" {
		s.baseURL = base
	} else {
		s.baseURL = ParseURL(url).Base()
		markup.SetAttr(s.container, AttrURL, s.baseURL)
	}

	var pages []*Page
	var preferred *Page
	for _, n := range markup.Elements(s.pagesContainer) {
		if !markup.Is(n, s.opts.PageSelector) {
			continue
		}
		if preferred == nil && markup.HasClass(n, classActive) {
			preferred = s.adopt(n)
			pages = append(pages, preferred)
			continue
		}
		pages = append(pages, s.adopt(n))
	}
	for _, p := range pages {
		s.initializePage(p, s.baseURL, OpenOptions{url: url})
	}

	s.openLoadedPages(pages, OpenOptions{
		url:         s.initialURL,
		NoAnimation: true,
		first:       true,
		preferred:   preferred,
	})

	s.initialized = true
	s.ready.Fire()
	s.logger.Debug("Stack initialized",
		zap.String("base", s.baseURL),
		zap.Int("pages", len(pages)))
}

// startURL derives the url a stack starts from: the host page of the
// parent, the parent base, or the current address
func (s *Stack) startURL() string {
	if s.parent != nil {
		s.host = s.parent.pageContaining(s.container)
		if s.host != nil {
			if url := s.parent.PageURL(s.host, true); url != "" {
				return url
			}
		}
		return s.parent.BaseURL()
	}

	url := s.reg.Address().Current()
	if s.initialURL == "" {
		s.initialURL = url
	}
	return url
}

// pageContaining returns the page whose node contains n
func (s *Stack) pageContaining(n *html.Node) *Page {
	for _, p := range s.pages {
		if markup.Contains(p.node, n) {
			return p
		}
	}
	return nil
}

// pageByNode returns the live page for node
func (s *Stack) pageByNode(n *html.Node) *Page {
	for _, p := range s.pages {
		if p.node == n {
			return p
		}
	}
	return nil
}

// adopt registers node, already under the pages container, as a page
func (s *Stack) adopt(n *html.Node) *Page {
	p := &Page{
		node:     n,
		stack:    s,
		order:    s.nextOrder,
		handlers: make(handlers),
	}
	s.nextOrder++
	if markup.HasClass(n, classPermanent) {
		p.flags |= FlagPermanent
	}
	if markup.HasClass(n, classTemporary) {
		p.flags |= FlagTemporary
	}
	markup.RemoveClass(n, classActive)
	s.pages = append(s.pages, p)
	s.metrics.LivePages(s.id, len(s.pages))
	s.changed(p)
	return p
}

// initializePage assigns the canonical url and owner, then fires ready
func (s *Stack) initializePage(p *Page, url string, opts OpenOptions) {
	if p.url == "" {
		if attr := markup.AttrOr(p.node, AttrURL, ""); attr != "" {
			p.url = attr
		} else if base := ParseURL(url).Base(); base != "" {
			p.url = base
		} else {
			p.url = s.baseURL
		}
	}
	markup.SetAttr(p.node, AttrURL, p.url)
	markup.SetAttr(p.node, AttrPage, s.id)
	s.fire(p, EventReady, opts)
}

// removePage detaches the page and unregisters stacks nested in it
func (s *Stack) removePage(p *Page, reason string) {
	if p.Removed() {
		return
	}
	for i, have := range s.pages {
		if have == p {
			s.pages = append(s.pages[:i], s.pages[i+1:]...)
			break
		}
	}
	s.reg.unregisterWithin(p.node)
	markup.Detach(p.node)
	p.setPhase(PhaseRemoved)

	s.metrics.PageDestroyed(s.id, reason)
	s.metrics.LivePages(s.id, len(s.pages))
	s.logger.Debug("Page removed",
		logging.Page(p.ID()),
		logging.URL(s.PageURL(p, true)),
		zap.String("reason", reason))
}

func (s *Stack) fire(p *Page, t EventType, opts OpenOptions) {
	e := Event{Type: t, Page: p, Stack: s, Options: opts}
	p.handlers.fire(e)
	s.handlers.fire(e)
	s.reg.fire(e)
}

func (s *Stack) changed(p *Page) {
	s.reg.pageChanged(p)
}

func (s *Stack) showLoader(on bool) {
	if s.loader == on {
		return
	}
	s.loader = on
	for _, fn := range s.onLoader {
		fn(on)
	}
	s.reg.loaderChanged(s, on)
}

func (r *Registry) nextID() string {
	r.counter++
	return strconv.Itoa(r.counter)
}
