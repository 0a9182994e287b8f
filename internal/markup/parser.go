package markup

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/antchfx/htmlquery"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

// ErrNoElement is returned when markup holds no element to work with
var ErrNoElement = errors.New("markup contains no element")

// documentPattern detects full documents, which get a body lookup
var documentPattern = regexp.MustCompile(`(?i)<(!doctype|html|body)[\s>]`)

// Scope describes the container requesting candidates
type Scope struct {
	// ContainerID is the id attribute of the requesting container
	ContainerID string
	// PageSelector recognizes page-like elements
	PageSelector string
}

// Parser extracts page candidates from content
type Parser struct {
	policy *bluemonday.Policy
}

// Option configures a Parser
type Option func(*Parser)

// WithSanitizer sanitizes markup text before parsing
func WithSanitizer(policy *bluemonday.Policy) Option {
	return func(p *Parser) {
		p.policy = policy
	}
}

// NewParser creates a parser
func NewParser(opts ...Option) *Parser {
	p := &Parser{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PagePolicy is the UGC policy extended with the attributes pages rely on
func PagePolicy() *bluemonday.Policy {
	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("class", "id", "style").Globally()
	policy.AllowDataAttributes()
	return policy
}

// Candidates returns page candidates for content in priority order. Each
// candidate is the node list making up one page. Markup candidates are
// detached from the parsed tree; node content is returned as given.
func (p *Parser) Candidates(c Content, scope Scope) ([][]*html.Node, error) {
	if c.Empty() {
		return nil, nil
	}

	if !c.IsMarkup() {
		out := make([][]*html.Node, 0, len(c.NodeList()))
		for _, n := range c.NodeList() {
			if n != nil {
				out = append(out, []*html.Node{n})
			}
		}
		return out, nil
	}

	text := c.Text()
	if p.policy != nil {
		text = p.policy.Sanitize(text)
	}

	root, document, err := parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse content: %w", err)
	}

	candidates := p.search(root, document, scope)
	for _, candidate := range candidates {
		for _, n := range candidate {
			Detach(n)
		}
	}
	return candidates, nil
}

func (p *Parser) search(root *html.Node, document bool, scope Scope) [][]*html.Node {
	if scope.PageSelector != "" {
		// (a) pages scoped to the requesting container
		if scope.ContainerID != "" {
			if container := ByID(root, scope.ContainerID); container != nil {
				if pages := pageGroup(container, scope.PageSelector); len(pages) > 0 {
					return pages
				}
			}
		}

		// (b) first page-like node and its siblings
		if pages := pageGroup(root, scope.PageSelector); len(pages) > 0 {
			return pages
		}
	}

	// (c) body level
	if document {
		if body := htmlquery.FindOne(root, "//body"); body != nil {
			if nodes := meaningful(Children(body)); len(nodes) > 0 {
				return [][]*html.Node{nodes}
			}
			return nil
		}
	}

	// (d) everything
	if nodes := meaningful(Children(root)); len(nodes) > 0 {
		return [][]*html.Node{nodes}
	}
	return nil
}

// pageGroup finds the first page under root and returns it with every
// sibling that also matches, one candidate each, in document order
func pageGroup(root *html.Node, selector string) [][]*html.Node {
	first := FindFirst(root, selector)
	if first == nil {
		return nil
	}
	var out [][]*html.Node
	for n := first.Parent.FirstChild; n != nil; n = n.NextSibling {
		if n == first || Is(n, selector) {
			out = append(out, []*html.Node{n})
		}
	}
	return out
}

// parse returns a root holding the parsed nodes. Full documents are parsed
// as such; anything else is parsed as the inner HTML of a detached div.
func parse(text string) (*html.Node, bool, error) {
	if documentPattern.MatchString(text) {
		doc, err := htmlquery.Parse(strings.NewReader(text))
		if err != nil {
			return nil, false, err
		}
		return doc, true, nil
	}

	nodes, err := ParseFragment(text)
	if err != nil {
		return nil, false, err
	}
	root := Element("div")
	for _, n := range nodes {
		root.AppendChild(n)
	}
	return root, false, nil
}

// meaningful drops comments and whitespace-only text; nil if nothing remains
func meaningful(nodes []*html.Node) []*html.Node {
	var out []*html.Node
	for _, n := range nodes {
		switch n.Type {
		case html.CommentNode:
			continue
		case html.TextNode:
			if strings.TrimSpace(n.Data) == "" {
				continue
			}
		}
		out = append(out, n)
	}
	return out
}
