// Package stack manages stacks of pages inside the containers of one
// document and keeps a shared address in sync with the active pages.
//
// A Stack owns the pages of one container. Opening a url goes through:
//   - the resolver: existing page, reserved fragment, or ContentProvider
//   - a load operation: one in flight per stack, superseded loads ignored
//   - the content parser: markup turned into one or more pages
//   - the lifecycle: close the active page, open the target, animate
//   - eviction: retained inactive pages bounded by PagesLimit
//
// Stacks nested in a page of another stack wait for their parent to be
// initialized and remember the page hosting them. The Registry maps opened
// urls to their stack and handles external address changes by opening the
// host pages from the root down before the target page.
//
// Everything runs on a single loop.Scheduler. Events are typed callbacks
// registered on a Page, a Stack or the Registry; ClassRenderer reflects
// page state as classes for whoever renders the document.
//
// Example Usage:
//
//	reg := stack.NewRegistry(stack.NewMemoryAddress("/docs"))
//	stack.NewClassRenderer(reg, stack.DefaultClasses())
//	s, err := stack.New(stack.Deps{
//		Document:  doc,
//		Registry:  reg,
//		Scheduler: l,
//		Fetcher:   client,
//	}, stack.Options{Container: "#main", History: true, PagesLimit: 3})
//	if err != nil {
//		return err
//	}
//	s.On(stack.EventOpened, func(e stack.Event) {
//		logger.Info("Opened", zap.String("url", e.Page.Href()))
//	})
//	s.OpenURL("/docs/intro", stack.OpenOptions{})
package stack
