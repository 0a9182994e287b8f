package stack

import (
	"errors"
	"time"

	"github.com/GriffinCanCode/pagestack/internal/infrastructure/logging"
	"github.com/GriffinCanCode/pagestack/internal/loop"
	"github.com/GriffinCanCode/pagestack/internal/markup"
	"github.com/GriffinCanCode/pagestack/internal/shared/id"
	"go.uber.org/zap"
)

// loadOperation is the token of one in-flight load. Completions compare
// it against the stack's current token.
type loadOperation struct {
	id      id.LoadID
	url     string
	future  *loop.Future[markup.Content]
	page    *Page
	opts    OpenOptions
	started time.Time
}

// IsLoading reports whether a load is in flight
func (s *Stack) IsLoading() bool {
	return s.loading != nil
}

// CancelLoad aborts the in-flight load. Unless cancelOnly is set, the most
// recent page is reopened afterwards.
func (s *Stack) CancelLoad(cancelOnly bool) {
	if op := s.loading; op != nil {
		s.loading = nil
		op.future.Abort()
		s.showLoader(false)
		s.metrics.LoadFinished(s.id, LoadCancelled, time.Since(op.started))
		s.logger.Debug("Load cancelled",
			zap.String("load", op.id.String()),
			logging.URL(op.url))
	}
	if cancelOnly {
		return
	}

	if active := s.ActivePage(); active != nil && active.Loading() {
		s.ClosePage()
		return
	}
	if last := s.LastPage(nil); last != nil {
		s.OpenPage(last, OpenOptions{})
	}
}

// createPageFromFuture applies settled content immediately. Pending content
// becomes the stack's current load, with the loading policy applied first.
// reuse, when set, receives the content in place of a new page.
func (s *Stack) createPageFromFuture(future *loop.Future[markup.Content], reuse *Page, opts OpenOptions) *Page {
	policy := opts.ShowLoadingPage
	if policy == LoadingInherit {
		policy = s.opts.ShowLoadingPage
	}
	if reuse != nil {
		policy = LoadingNone
	}

	if s.loading != nil {
		s.CancelLoad(true)
	}

	page := reuse
	var placeholder *Page
	if future.Pending() {
		s.showLoader(true)
		switch policy {
		case LoadingPlaceholder:
			placeholder = s.createPage(nil, nil, opts)
			placeholder.set(FlagLoading|FlagTemporary, true)
			page = placeholder
			s.OpenPage(placeholder, opts)
		case LoadingClose:
			s.OpenPage(nil, opts)
		}
	}

	op := &loadOperation{
		id:      s.ids.NewLoadID(),
		url:     opts.url,
		future:  future,
		page:    page,
		opts:    opts,
		started: time.Now(),
	}
	s.loading = op

	if !future.Pending() {
		content, err := future.Result()
		pages := s.finishLoad(op, content, err)
		if len(pages) > 0 {
			return pages[0]
		}
		return nil
	}

	s.logger.Debug("Load started",
		zap.String("load", op.id.String()),
		logging.URL(op.url),
		zap.Stringer("policy", policy))

	future.Then(s.sched,
		func(c markup.Content) { s.finishLoad(op, c, nil) },
		func(err error) { s.finishLoad(op, markup.Content{}, err) })
	return placeholder
}

// finishLoad applies a completed load if it is still the current one
func (s *Stack) finishLoad(op *loadOperation, content markup.Content, err error) []*Page {
	elapsed := time.Since(op.started)
	if s.loading != op {
		if !errors.Is(err, loop.ErrAborted) {
			s.metrics.LoadFinished(s.id, LoadStale, elapsed)
		}
		s.logger.Debug("Stale load discarded",
			zap.String("load", op.id.String()),
			logging.URL(op.url))
		return nil
	}

	s.loading = nil
	s.showLoader(false)

	if err != nil {
		s.loadFailed(op, err, elapsed)
		return nil
	}

	reuse := op.page
	if reuse != nil && reuse.Removed() {
		reuse = nil
	}
	if reuse != nil && op.opts.Reload {
		for c := reuse.node.FirstChild; c != nil; c = reuse.node.FirstChild {
			reuse.node.RemoveChild(c)
		}
	}

	pages := s.parsePages(content, reuse, op.opts)
	s.metrics.LoadFinished(s.id, LoadSuccess, elapsed)
	s.logger.Debug("Load finished",
		zap.String("load", op.id.String()),
		logging.URL(op.url),
		zap.Int("pages", len(pages)),
		zap.Duration("elapsed", elapsed))

	if op.opts.OnSuccess != nil {
		op.opts.OnSuccess(pages)
	}
	if op.opts.loaded != nil {
		op.opts.loaded(pages)
	}
	return pages
}

// loadFailed reports the error and falls back to the previous page: a
// loading placeholder is closed, an empty stack reopens its last page
func (s *Stack) loadFailed(op *loadOperation, err error, elapsed time.Duration) {
	s.metrics.LoadFinished(s.id, LoadError, elapsed)
	s.logger.Warn("Page load failed",
		zap.String("load", op.id.String()),
		logging.URL(op.url),
		zap.Error(err))
	if s.opts.OnLoadError != nil {
		s.opts.OnLoadError(s, op.url, err)
	}

	active := s.ActivePage()
	switch {
	case active != nil && active.Loading():
		s.ClosePage()
	case active == nil:
		if last := s.LastPage(nil); last != nil {
			s.OpenPage(last, OpenOptions{Reverse: true})
		}
	}
}
