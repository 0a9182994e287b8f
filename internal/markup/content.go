package markup

import (
	"strings"

	"golang.org/x/net/html"
)

// Content is raw page content: markup text or materialized nodes
type Content struct {
	text  string
	nodes []*html.Node
	nodal bool
}

// Markup wraps markup text
func Markup(s string) Content {
	return Content{text: s}
}

// Nodes wraps existing nodes. Each node becomes its own candidate.
func Nodes(nodes ...*html.Node) Content {
	return Content{nodes: nodes, nodal: true}
}

// IsMarkup reports whether the content still needs parsing
func (c Content) IsMarkup() bool {
	return !c.nodal
}

// Text returns the markup text, empty for node content
func (c Content) Text() string {
	return c.text
}

// NodeList returns the wrapped nodes, nil for markup content
func (c Content) NodeList() []*html.Node {
	return c.nodes
}

// Empty reports whether there is nothing to parse
func (c Content) Empty() bool {
	if c.nodal {
		return len(c.nodes) == 0
	}
	return strings.TrimSpace(c.text) == ""
}
