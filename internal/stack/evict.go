package stack

// cleanupOldPages removes the oldest retained pages beyond the limit.
// Active, permanent, destroying and animating pages are never counted.
func (s *Stack) cleanupOldPages() {
	limit := s.opts.PagesLimit
	if limit < 0 {
		return
	}

	var eligible []*Page
	for _, p := range s.pages {
		if p.Active() || p.Permanent() || p.Destroying() || p.Animating() {
			continue
		}
		eligible = append(eligible, p)
	}
	if len(eligible) <= limit {
		return
	}

	for _, p := range eligible[:len(eligible)-limit] {
		s.fire(p, EventDestroy, OpenOptions{})
		s.removePage(p, DestroyEvicted)
	}
}
