package stack

import (
	"github.com/GriffinCanCode/pagestack/internal/infrastructure/logging"
	"github.com/GriffinCanCode/pagestack/internal/markup"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// History dispatch outcomes reported to the Recorder
const (
	DispatchPage       = "page"
	DispatchHistory    = "history"
	DispatchBase       = "base"
	DispatchRoot       = "root"
	DispatchUnresolved = "unresolved"
)

// Registry is the directory of stacks sharing one document and address.
// It owns the history map and is the only address listener.
type Registry struct {
	address  Address
	logger   *zap.Logger
	metrics  Recorder
	unlisten func()

	stacks   []*Stack
	byID     map[string]*Stack
	byNode   map[*html.Node]*Stack
	history  map[string]string
	counter  int
	observe  []Handler
	watchers []func(*Page)
	loaders  []func(*Stack, bool)
}

// RegistryOption configures a Registry
type RegistryOption func(*Registry)

// WithLogger sets the registry logger
func WithLogger(logger *zap.Logger) RegistryOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithRecorder sets the registry metrics recorder
func WithRecorder(rec Recorder) RegistryOption {
	return func(r *Registry) {
		if rec != nil {
			r.metrics = rec
		}
	}
}

// NewRegistry creates a registry and starts listening on address
func NewRegistry(address Address, opts ...RegistryOption) *Registry {
	r := &Registry{
		address: address,
		logger:  zap.NewNop(),
		metrics: nopRecorder{},
		byID:    make(map[string]*Stack),
		byNode:  make(map[*html.Node]*Stack),
		history: make(map[string]string),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.unlisten = address.Listen(r.HandleAddressChange)
	return r
}

// Close stops listening on the address
func (r *Registry) Close() {
	if r.unlisten != nil {
		r.unlisten()
		r.unlisten = nil
	}
}

// Address returns the shared address
func (r *Registry) Address() Address {
	return r.address
}

// Get looks up a stack by id
func (r *Registry) Get(id string) (*Stack, bool) {
	s, ok := r.byID[id]
	return s, ok
}

// Stacks returns the registered stacks in registration order
func (r *Registry) Stacks() []*Stack {
	return append([]*Stack(nil), r.stacks...)
}

// Root returns the first registered stack without a parent
func (r *Registry) Root() *Stack {
	for _, s := range r.stacks {
		if r.enclosing(s.container.Parent) == nil {
			return s
		}
	}
	return nil
}

// StackFor returns the innermost stack whose container holds n
func (r *Registry) StackFor(n *html.Node) *Stack {
	return r.enclosing(n)
}

// History returns the base url recorded for url
func (r *Registry) History(url string) (string, bool) {
	base, ok := r.history[url]
	return base, ok
}

// Observe registers a handler for events of every page of every stack
func (r *Registry) Observe(fn Handler) {
	if fn != nil {
		r.observe = append(r.observe, fn)
	}
}

// Watch registers fn to be told about page state changes
func (r *Registry) Watch(fn func(*Page)) {
	if fn != nil {
		r.watchers = append(r.watchers, fn)
	}
}

// WatchLoader registers fn to be told about loading indicator changes
func (r *Registry) WatchLoader(fn func(*Stack, bool)) {
	if fn != nil {
		r.loaders = append(r.loaders, fn)
	}
}

// FollowLink lets the innermost stack whose links container holds link
// handle it, moving outwards until one does
func (r *Registry) FollowLink(link *html.Node) bool {
	for n := link; n != nil; n = n.Parent {
		s, ok := r.byNode[n]
		if !ok {
			continue
		}
		if lc := s.LinksContainer(); lc == nil || !markup.Contains(lc, link) {
			continue
		}
		if !markup.Is(link, s.opts.LinkSelector) {
			continue
		}
		if s.FollowLink(link, OpenOptions{}) {
			return true
		}
	}
	return false
}

// HandleAddressChange activates the page behind an externally changed url.
// The owning stack is found by exact page match, the history map, a stack
// base url or the root, in that order. Ancestors are opened on the way
// down without touching the address.
func (r *Registry) HandleAddressChange(url string) {
	target, page, outcome := r.resolve(url)
	r.metrics.HistoryDispatched(outcome)
	if target == nil {
		r.logger.Debug("Address change not resolved", logging.URL(url))
		return
	}
	r.logger.Debug("Address change",
		logging.URL(url),
		logging.Stack(target.id),
		zap.String("via", outcome))

	var chain []*Stack
	for s := target; s != nil; s = s.parent {
		chain = append(chain, s)
	}
	quiet := OpenOptions{NoHistory: true}
	for i := len(chain) - 1; i > 0; i-- {
		host := chain[i-1].host
		if host != nil && !host.Removed() && !host.Active() {
			chain[i].OpenPage(host, quiet)
		}
	}

	if page != nil {
		target.OpenPage(page, quiet)
		return
	}
	if _, err := target.OpenURL(url, quiet); err != nil {
		target.logger.Debug("Address change not handled", logging.URL(url), zap.Error(err))
	}
}

func (r *Registry) resolve(url string) (*Stack, *Page, string) {
	for _, s := range r.stacks {
		for _, p := range s.pages {
			if !p.Removed() && s.PageURL(p, true) == url {
				return s, p, DispatchPage
			}
		}
	}
	if base, ok := r.history[url]; ok {
		if s := r.byBase(base); s != nil {
			return s, nil, DispatchHistory
		}
	}
	if s := r.byBase(ParseURL(url).Base()); s != nil {
		return s, nil, DispatchBase
	}
	if s := r.Root(); s != nil {
		return s, nil, DispatchRoot
	}
	return nil, nil, DispatchUnresolved
}

func (r *Registry) byBase(base string) *Stack {
	for _, s := range r.stacks {
		if s.initialized && s.baseURL == base {
			return s
		}
	}
	return nil
}

// record maps url to its stack base, then pushes it to the address
func (r *Registry) record(url, base string) {
	r.history[url] = base
	if r.address.Current() != url {
		r.address.Push(url)
	}
}

func (r *Registry) register(s *Stack) {
	r.stacks = append(r.stacks, s)
	r.byID[s.id] = s
	r.byNode[s.container] = s
}

func (r *Registry) unregister(s *Stack) {
	if r.byID[s.id] != s {
		return
	}
	delete(r.byID, s.id)
	delete(r.byNode, s.container)
	for i, have := range r.stacks {
		if have == s {
			r.stacks = append(r.stacks[:i], r.stacks[i+1:]...)
			break
		}
	}
}

// unregisterWithin closes every stack whose container lies strictly inside n
func (r *Registry) unregisterWithin(n *html.Node) {
	for _, s := range r.within(n) {
		s.Close()
	}
}

// within returns the stacks whose container lies strictly inside n
func (r *Registry) within(n *html.Node) []*Stack {
	var out []*Stack
	for _, s := range r.stacks {
		if s.container != n && markup.Contains(n, s.container) {
			out = append(out, s)
		}
	}
	return out
}

// enclosing returns the stack of the nearest container at or above n
func (r *Registry) enclosing(n *html.Node) *Stack {
	for ; n != nil; n = n.Parent {
		if s, ok := r.byNode[n]; ok {
			return s
		}
	}
	return nil
}

func (r *Registry) fire(e Event) {
	for _, fn := range r.observe {
		fn(e)
	}
}

func (r *Registry) pageChanged(p *Page) {
	for _, fn := range r.watchers {
		fn(p)
	}
}

func (r *Registry) loaderChanged(s *Stack, on bool) {
	for _, fn := range r.loaders {
		fn(s, on)
	}
}
