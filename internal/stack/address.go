package stack

import "sync"

// Address is the shared address bar. Push records a new entry without
// notifying; external changes are reported to the single listener.
type Address interface {
	Current() string
	Push(url string)
	Listen(fn func(url string)) (cancel func())
}

// MemoryAddress is an in-memory Address with back/forward history
type MemoryAddress struct {
	mu       sync.Mutex
	entries  []string
	index    int
	listener func(string)
}

// NewMemoryAddress creates an address positioned at initial
func NewMemoryAddress(initial string) *MemoryAddress {
	return &MemoryAddress{entries: []string{initial}}
}

// Current returns the url of the current entry
func (a *MemoryAddress) Current() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.entries[a.index]
}

// Push drops forward entries and appends url
func (a *MemoryAddress) Push(url string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries[:a.index+1], url)
	a.index++
}

// Listen replaces the listener
func (a *MemoryAddress) Listen(fn func(url string)) func() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listener = fn
	return func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		a.listener = nil
	}
}

// Back moves one entry back and notifies the listener
func (a *MemoryAddress) Back() bool {
	return a.move(-1)
}

// Forward moves one entry forward and notifies the listener
func (a *MemoryAddress) Forward() bool {
	return a.move(1)
}

// Go pushes url as an external change and notifies the listener
func (a *MemoryAddress) Go(url string) {
	a.Push(url)
	a.notify(url)
}

// Entries returns the history and the current index
func (a *MemoryAddress) Entries() ([]string, int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.entries...), a.index
}

func (a *MemoryAddress) move(step int) bool {
	a.mu.Lock()
	next := a.index + step
	if next < 0 || next >= len(a.entries) {
		a.mu.Unlock()
		return false
	}
	a.index = next
	url := a.entries[next]
	a.mu.Unlock()

	a.notify(url)
	return true
}

func (a *MemoryAddress) notify(url string) {
	a.mu.Lock()
	fn := a.listener
	a.mu.Unlock()
	if fn != nil {
		fn(url)
	}
}
