package markup

import (
	"strings"

	"golang.org/x/net/html"
)

// Style returns the inline style value of prop
func Style(n *html.Node, prop string) string {
	for _, decl := range declarations(n) {
		if decl[0] == prop {
			return decl[1]
		}
	}
	return ""
}

// SetStyle sets the inline style prop; an empty value removes it
func SetStyle(n *html.Node, prop, val string) {
	var parts []string
	found := false
	for _, decl := range declarations(n) {
		if decl[0] == prop {
			found = true
			if val == "" {
				continue
			}
			decl[1] = val
		}
		parts = append(parts, decl[0]+": "+decl[1])
	}
	if !found && val != "" {
		parts = append(parts, prop+": "+val)
	}
	if len(parts) == 0 {
		RemoveAttr(n, "style")
		return
	}
	SetAttr(n, "style", strings.Join(parts, "; "))
}

func declarations(n *html.Node) [][2]string {
	raw, _ := Attr(n, "style")
	var out [][2]string
	for _, decl := range strings.Split(raw, ";") {
		prop, val, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		prop = strings.ToLower(strings.TrimSpace(prop))
		if prop == "" {
			continue
		}
		out = append(out, [2]string{prop, strings.TrimSpace(val)})
	}
	return out
}
