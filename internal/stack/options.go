package stack

import (
	"context"
	"fmt"

	"github.com/GriffinCanCode/pagestack/internal/markup"
	"github.com/GriffinCanCode/pagestack/internal/motion"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// LoadingPolicy decides what happens to the current page while content loads
type LoadingPolicy int

const (
	// LoadingInherit uses the stack option; at stack level it means LoadingNone
	LoadingInherit LoadingPolicy = iota
	// LoadingNone leaves the current page open and only shows the loader
	LoadingNone
	// LoadingPlaceholder opens a temporary placeholder page replaced in place
	LoadingPlaceholder
	// LoadingClose closes the current page without a replacement
	LoadingClose
)

// String returns the string representation of the policy
func (p LoadingPolicy) String() string {
	switch p {
	case LoadingInherit:
		return "inherit"
	case LoadingNone:
		return "none"
	case LoadingPlaceholder:
		return "placeholder"
	case LoadingClose:
		return "close"
	default:
		return "unknown"
	}
}

// ParseLoadingPolicy reads a policy name as printed by String
func ParseLoadingPolicy(name string) (LoadingPolicy, error) {
	switch name {
	case "", "inherit":
		return LoadingInherit, nil
	case "none":
		return LoadingNone, nil
	case "placeholder":
		return LoadingPlaceholder, nil
	case "close":
		return LoadingClose, nil
	default:
		return LoadingInherit, configError("unknown loading policy %q", name)
	}
}

// Roles holds selectors of links with a special meaning
type Roles struct {
	Close    string
	Replace  string
	Reverse  string
	Next     string
	Prev     string
	External string
}

// DefaultRoles returns the ps-* role classes
func DefaultRoles() Roles {
	return Roles{
		Close:    ".ps-close",
		Replace:  ".ps-replace",
		Reverse:  ".ps-reverse",
		Next:     ".ps-next",
		Prev:     ".ps-prev",
		External: ".ps-external",
	}
}

// Request is passed to a ContentProvider
type Request struct {
	URL      string
	Path     string
	Fragment string
	Stack    *Stack
	Options  OpenOptions
}

// ContentProvider decides how the content of a url is obtained
type ContentProvider func(ctx context.Context, req Request) Resolution

// LoadErrorHandler is told about failed loads
type LoadErrorHandler func(s *Stack, url string, err error)

// Options configures a stack. They are fixed once New returns.
type Options struct {
	// ID of the stack. Defaults to the container's id attribute, then a
	// registry counter.
	ID string

	// Container selects the container element. Defaults to "body".
	Container string
	// ContainerNode takes precedence over Container
	ContainerNode *html.Node
	// PagesContainer selects the page parent inside the container; the
	// container itself is used when nothing matches
	PagesContainer string
	// LinksContainer selects where links are followed; empty means the container
	LinksContainer string
	// NavContainer selects where navigation links live; empty means the container
	NavContainer string
	NavDisabled  bool

	PageSelector      string
	PageClass         string
	LinkSelector      string
	NavSelector       string
	NavParentSelector string
	LinkActiveClass   string
	Roles             Roles
	// WrapNav makes next/prev navigation wrap around
	WrapNav bool

	// InitialURL is opened on initialization. Root stacks default to the
	// current address.
	InitialURL string
	History    bool
	// PagesLimit bounds retained inactive pages. -1 keeps all, 0 keeps none.
	PagesLimit int

	ContentProvider  ContentProvider
	Animation        motion.Set
	DisableAnimation bool
	ShowLoadingPage  LoadingPolicy
	// URLFilter rejects urls that must not be followed
	URLFilter    func(url string) bool
	PageTemplate string
	OnLoadError  LoadErrorHandler
}

// DefaultOptions returns options for a stack on <body>
func DefaultOptions() Options {
	return Options{}.WithDefaults()
}

// WithDefaults fills unset options
func (o Options) WithDefaults() Options {
	if o.Container == "" && o.ContainerNode == nil {
		o.Container = "body"
	}
	if o.PagesContainer == "" {
		o.PagesContainer = ".ps-pages"
	}
	if o.PageClass == "" {
		o.PageClass = "ps-page"
	}
	if o.PageSelector == "" {
		o.PageSelector = "." + o.PageClass
	}
	if o.LinkSelector == "" {
		o.LinkSelector = "a"
	}
	if o.NavSelector == "" {
		o.NavSelector = o.LinkSelector
	}
	if o.LinkActiveClass == "" {
		o.LinkActiveClass = "active"
	}
	if o.Roles == (Roles{}) {
		o.Roles = DefaultRoles()
	}
	if o.Animation.All == (motion.Config{}) && o.Animation.PerTransition == nil {
		o.Animation = motion.DefaultSet()
	}
	if o.PageTemplate == "" {
		o.PageTemplate = "<div></div>"
	}
	return o
}

// Validate checks the options after defaults are applied
func (o Options) Validate() error {
	if o.PagesLimit < -1 {
		return configError("pages limit %d below -1", o.PagesLimit)
	}
	if o.ShowLoadingPage < LoadingInherit || o.ShowLoadingPage > LoadingClose {
		return configError("unknown loading policy %d", o.ShowLoadingPage)
	}

	selectors := map[string]string{
		"container":           o.Container,
		"pages container":     o.PagesContainer,
		"links container":     o.LinksContainer,
		"nav container":       o.NavContainer,
		"page selector":       o.PageSelector,
		"link selector":       o.LinkSelector,
		"nav selector":        o.NavSelector,
		"nav parent selector": o.NavParentSelector,
		"close role":          o.Roles.Close,
		"replace role":        o.Roles.Replace,
		"reverse role":        o.Roles.Reverse,
		"next role":           o.Roles.Next,
		"prev role":           o.Roles.Prev,
		"external role":       o.Roles.External,
	}
	for name, sel := range selectors {
		if sel == "" {
			continue
		}
		if _, err := cascadia.Compile(sel); err != nil {
			return configError("%s %q: %v", name, sel, err)
		}
	}

	if err := o.Animation.Validate(); err != nil {
		return configError("animation: %v", err)
	}
	if _, err := markup.ParseElement(o.PageTemplate); err != nil {
		return configError("page template: %v", err)
	}
	return nil
}

// OpenOptions tune a single navigation
type OpenOptions struct {
	// Replace marks the current page temporary so it is destroyed on close
	Replace bool
	// Reverse hints a backward animation
	Reverse bool
	// Reload fetches content even if a matching page exists
	Reload bool
	// NoHistory suppresses the address update
	NoHistory bool
	// Temporary marks the opened page temporary
	Temporary   bool
	NoAnimation bool
	// ShowLoadingPage overrides the stack policy for this navigation
	ShowLoadingPage LoadingPolicy
	// Animation overrides the stack animation for every transition
	Animation *motion.Config
	// OnSuccess is called with the pages created by a completed load
	OnSuccess func(pages []*Page)

	url       string
	first     bool
	retried   bool
	preferred *Page
	loaded    func(pages []*Page)
}

// URL returns the url this navigation was started for
func (o OpenOptions) URL() string {
	return o.url
}

func (o OpenOptions) String() string {
	return fmt.Sprintf("url=%q replace=%t reverse=%t reload=%t", o.url, o.Replace, o.Reverse, o.Reload)
}
