package stack

// PageInfo describes a page for status output
type PageInfo struct {
	URL       string   `json:"url"`
	ID        string   `json:"id,omitempty"`
	Href      string   `json:"href"`
	Flags     []string `json:"flags"`
	Phase     string   `json:"phase"`
	Order     int      `json:"order"`
	Animating bool     `json:"animating"`
}

// StackInfo describes a stack for status output
type StackInfo struct {
	ID       string     `json:"id"`
	Parent   string     `json:"parent,omitempty"`
	BaseURL  string     `json:"base_url"`
	Loading  bool       `json:"loading"`
	Active   string     `json:"active,omitempty"`
	Ready    bool       `json:"ready"`
	Pages    []PageInfo `json:"pages"`
	NavLinks []string   `json:"nav_links,omitempty"`
}

// Info snapshots the stack state
func (s *Stack) Info() StackInfo {
	info := StackInfo{
		ID:      s.id,
		BaseURL: s.baseURL,
		Loading: s.IsLoading(),
		Ready:   s.initialized,
		Pages:   make([]PageInfo, 0, len(s.pages)),
	}
	if s.parent != nil {
		info.Parent = s.parent.id
	}
	if active := s.ActivePage(); active != nil {
		info.Active = s.PageURL(active, true)
	}
	for _, p := range s.pages {
		flags := p.flags.Names()
		if flags == nil {
			flags = []string{}
		}
		info.Pages = append(info.Pages, PageInfo{
			URL:       p.url,
			ID:        p.ID(),
			Href:      s.PageURL(p, true),
			Flags:     flags,
			Phase:     p.phase.String(),
			Order:     p.order,
			Animating: p.Animating(),
		})
	}
	for _, link := range s.plainNavLinks() {
		if href, ok := hrefOf(link); ok {
			info.NavLinks = append(info.NavLinks, href)
		}
	}
	return info
}

// Snapshot describes every registered stack
func (r *Registry) Snapshot() []StackInfo {
	out := make([]StackInfo, 0, len(r.stacks))
	for _, s := range r.stacks {
		out = append(out, s.Info())
	}
	return out
}
