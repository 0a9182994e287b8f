package session

import (
	"context"
	"time"

	"github.com/GriffinCanCode/pagestack/internal/infrastructure/logging"
	"github.com/GriffinCanCode/pagestack/internal/markup"
	"github.com/GriffinCanCode/pagestack/internal/stack"
	"go.uber.org/zap"
)

// OpenRequest are the per-navigation options accepted from callers
type OpenRequest struct {
	URL       string `json:"url"`
	Replace   bool   `json:"replace,omitempty"`
	Reverse   bool   `json:"reverse,omitempty"`
	Reload    bool   `json:"reload,omitempty"`
	NoHistory bool   `json:"no_history,omitempty"`
	Temporary bool   `json:"temporary,omitempty"`
	// Loading overrides the stack loading policy by name
	Loading string `json:"loading,omitempty"`
}

func (r OpenRequest) options() (stack.OpenOptions, error) {
	policy, err := stack.ParseLoadingPolicy(r.Loading)
	if err != nil {
		return stack.OpenOptions{}, err
	}
	return stack.OpenOptions{
		Replace:         r.Replace,
		Reverse:         r.Reverse,
		Reload:          r.Reload,
		NoHistory:       r.NoHistory,
		Temporary:       r.Temporary,
		ShowLoadingPage: policy,
	}, nil
}

// ClickResult reports whether a stack took over a link
type ClickResult struct {
	Handled bool   `json:"handled"`
	Href    string `json:"href,omitempty"`
	Address string `json:"address"`
}

// HistoryState is the address history of the session
type HistoryState struct {
	Entries []string `json:"entries"`
	Index   int      `json:"index"`
	Current string   `json:"current"`
}

// Stats summarizes the session
type Stats struct {
	ID          string    `json:"id"`
	StartedAt   time.Time `json:"started_at"`
	Address     string    `json:"address"`
	Stacks      int       `json:"stacks"`
	Operations  uint64    `json:"operations"`
	Subscribers int       `json:"subscribers"`
}

// Navigate changes the address as a user would, letting the registry
// activate the matching page
func (s *Session) Navigate(ctx context.Context, url string) (HistoryState, error) {
	var state HistoryState
	err := s.call(ctx, func() {
		s.logger.Debug("Navigate", logging.URL(url))
		s.address.Go(url)
		state = s.history()
	})
	return state, err
}

// Back moves one address entry back. moved is false at the first entry.
func (s *Session) Back(ctx context.Context) (HistoryState, bool, error) {
	var state HistoryState
	var moved bool
	err := s.call(ctx, func() {
		moved = s.address.Back()
		state = s.history()
	})
	return state, moved, err
}

// Forward moves one address entry forward
func (s *Session) Forward(ctx context.Context) (HistoryState, bool, error) {
	var state HistoryState
	var moved bool
	err := s.call(ctx, func() {
		moved = s.address.Forward()
		state = s.history()
	})
	return state, moved, err
}

// History returns the address history
func (s *Session) History(ctx context.Context) (HistoryState, error) {
	var state HistoryState
	err := s.call(ctx, func() { state = s.history() })
	return state, err
}

func (s *Session) history() HistoryState {
	entries, index := s.address.Entries()
	return HistoryState{Entries: entries, Index: index, Current: entries[index]}
}

// Click activates the first element matching selector, or its closest
// enclosing link, the way a pointer click would
func (s *Session) Click(ctx context.Context, selector string) (ClickResult, error) {
	var result ClickResult
	var opErr error
	err := s.call(ctx, func() {
		target := markup.FindFirst(s.document, selector)
		if target == nil {
			opErr = ErrNoElement
			return
		}
		link := markup.Closest(target, "a")
		if link == nil {
			opErr = ErrNoElement
			return
		}
		result.Href = markup.AttrOr(link, "href", "")
		result.Handled = s.registry.FollowLink(link)
		result.Address = s.address.Current()
		s.logger.Debug("Click",
			zap.String("selector", selector),
			zap.String("href", result.Href),
			zap.Bool("handled", result.Handled))
	})
	if err != nil {
		return result, err
	}
	return result, opErr
}

// Open resolves req.URL in the stack and opens the page
func (s *Session) Open(ctx context.Context, stackID string, req OpenRequest) (stack.StackInfo, error) {
	opts, err := req.options()
	if err != nil {
		return stack.StackInfo{}, err
	}
	return s.onStack(ctx, stackID, func(st *stack.Stack) error {
		_, err := st.OpenURL(req.URL, opts)
		return err
	})
}

// ClosePage closes the active page of the stack
func (s *Session) ClosePage(ctx context.Context, stackID string) (stack.StackInfo, error) {
	return s.onStack(ctx, stackID, func(st *stack.Stack) error {
		st.ClosePage()
		return nil
	})
}

// Reload loads the active page of the stack again
func (s *Session) Reload(ctx context.Context, stackID string) (stack.StackInfo, error) {
	return s.onStack(ctx, stackID, func(st *stack.Stack) error {
		_, err := st.ReloadPage(nil)
		return err
	})
}

// CancelLoad aborts the stack's in-flight load. Unless cancelOnly is set
// the most recent page is reopened.
func (s *Session) CancelLoad(ctx context.Context, stackID string, cancelOnly bool) (stack.StackInfo, error) {
	return s.onStack(ctx, stackID, func(st *stack.Stack) error {
		st.CancelLoad(cancelOnly)
		return nil
	})
}

func (s *Session) onStack(ctx context.Context, stackID string, fn func(*stack.Stack) error) (stack.StackInfo, error) {
	var info stack.StackInfo
	var opErr error
	err := s.call(ctx, func() {
		st, err := s.stack(stackID)
		if err != nil {
			opErr = err
			return
		}
		opErr = fn(st)
		info = st.Info()
	})
	if err != nil {
		return info, err
	}
	return info, opErr
}

// Snapshot describes every stack
func (s *Session) Snapshot(ctx context.Context) ([]stack.StackInfo, error) {
	var out []stack.StackInfo
	err := s.call(ctx, func() { out = s.registry.Snapshot() })
	return out, err
}

// Stack describes one stack
func (s *Session) Stack(ctx context.Context, stackID string) (stack.StackInfo, error) {
	return s.onStack(ctx, stackID, func(*stack.Stack) error { return nil })
}

// Document renders the live document
func (s *Session) Document(ctx context.Context) (string, error) {
	var out string
	err := s.call(ctx, func() { out = markup.Render(s.document) })
	return out, err
}

// Stats summarizes the session
func (s *Session) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	err := s.call(ctx, func() {
		stats.Address = s.address.Current()
		stats.Stacks = len(s.registry.Stacks())
	})
	if err != nil {
		return stats, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	stats.ID = s.id.String()
	stats.StartedAt = s.startedAt
	stats.Operations = s.operations
	stats.Subscribers = len(s.subscribers)
	return stats, nil
}
