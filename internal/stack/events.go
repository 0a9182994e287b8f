package stack

// EventType names a page transition event
type EventType string

const (
	EventReady   EventType = "ready"
	EventOpen    EventType = "open"
	EventOpened  EventType = "opened"
	EventClose   EventType = "close"
	EventClosed  EventType = "closed"
	EventDestroy EventType = "destroy"
)

// Event is delivered synchronously to page, stack and registry handlers
type Event struct {
	Type    EventType
	Page    *Page
	Stack   *Stack
	Options OpenOptions
}

// Handler receives events
type Handler func(Event)

type handlers map[EventType][]Handler

func (h handlers) add(t EventType, fn Handler) {
	if fn != nil {
		h[t] = append(h[t], fn)
	}
}

func (h handlers) fire(e Event) {
	for _, fn := range h[e.Type] {
		fn(e)
	}
}
