package stack

import "strings"

// URL is a navigation url split into its parts
type URL struct {
	Path     string
	Query    string
	Fragment string
}

// ParseURL splits raw at the first '#' and the first '?' before it
func ParseURL(raw string) URL {
	var u URL
	rest, frag, _ := strings.Cut(raw, "#")
	u.Fragment = frag
	u.Path, u.Query, _ = strings.Cut(rest, "?")
	return u
}

// Base returns path and query, the canonical url of a page
func (u URL) Base() string {
	if u.Query == "" {
		return u.Path
	}
	return u.Path + "?" + u.Query
}

// String reassembles the url
func (u URL) String() string {
	if u.Fragment == "" {
		return u.Base()
	}
	return u.Base() + "#" + u.Fragment
}

// special fragments resolved against the navigation links or page order
const (
	specialFirst     = "first"
	specialLast      = "last"
	specialNext      = "next"
	specialPrev      = "prev"
	specialFirstPage = "first-page"
	specialLastPage  = "last-page"
	specialNextPage  = "next-page"
	specialPrevPage  = "prev-page"
)

func isNavSpecial(frag string) bool {
	switch frag {
	case specialFirst, specialLast, specialNext, specialPrev:
		return true
	}
	return false
}

func isPageSpecial(frag string) bool {
	switch frag {
	case specialFirstPage, specialLastPage, specialNextPage, specialPrevPage:
		return true
	}
	return false
}
