// Package markup turns fetched content into candidate page subtrees.
//
// Content is either markup text or nodes that already exist. Text is parsed
// off-document and searched for the best page candidates in priority order:
//   - pages inside the element carrying the requesting container's id
//   - the first top-level page-like element and its page-like siblings
//   - the children of <body> when the text is a full document
//   - every top-level node
//
// The first non-empty match wins. Candidates are detached from the parsed
// tree so they can be adopted into the live document.
//
// Built on:
//   - goquery: CSS selectors over x/net/html nodes
//   - htmlquery: XPath lookup of the document body
//   - bluemonday: optional sanitization of fetched markup
//
// Example Usage:
//
//	p := markup.NewParser(markup.WithSanitizer(markup.PagePolicy()))
//	candidates, err := p.Candidates(markup.Markup(body), markup.Scope{
//		ContainerID:  "main",
//		PageSelector: ".ps-page",
//	})
package markup
