package session

import (
	"time"

	"github.com/GriffinCanCode/pagestack/internal/stack"
)

// EventLoader is published when a stack shows or hides its loader
const EventLoader = "loader"

// Event is a page transition or loader change seen by subscribers
type Event struct {
	Type    string    `json:"type"`
	Stack   string    `json:"stack"`
	PageID  string    `json:"page_id,omitempty"`
	URL     string    `json:"url,omitempty"`
	Flags   []string  `json:"flags,omitempty"`
	Loading bool      `json:"loading,omitempty"`
	Address string    `json:"address"`
	At      time.Time `json:"at"`
}

// Subscribe registers fn for every event until the returned func is
// called. fn runs on the session loop and must not block.
func (s *Session) Subscribe(fn func(Event)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := s.nextSub
	s.nextSub++
	s.subscribers[key] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subscribers, key)
	}
}

func (s *Session) pageEvent(e stack.Event) {
	s.publish(Event{
		Type:   string(e.Type),
		Stack:  e.Stack.ID(),
		PageID: e.Page.ID(),
		URL:    e.Stack.PageURL(e.Page, true),
		Flags:  e.Page.Flags().Names(),
	})
}

func (s *Session) loaderEvent(st *stack.Stack, visible bool) {
	s.publish(Event{
		Type:    EventLoader,
		Stack:   st.ID(),
		Loading: visible,
	})
}

func (s *Session) publish(e Event) {
	e.Address = s.address.Current()
	e.At = time.Now()

	s.mu.Lock()
	fns := make([]func(Event), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(e)
	}
}
