package loop

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// maxSteps bounds Drain so a self-reposting task fails loudly in tests
const maxSteps = 100000

// Manual is a deterministic Scheduler driven explicitly by the caller.
// Time only moves through Advance and Settle.
type Manual struct {
	mu     sync.Mutex
	now    time.Duration
	seq    int
	queue  []func()
	timers []*manualTimer
}

type manualTimer struct {
	due  time.Duration
	seq  int
	fn   func()
	done bool
}

// NewManual creates a manual scheduler at virtual time zero
func NewManual() *Manual {
	return &Manual{}
}

// Post queues fn until the next Drain
func (m *Manual) Post(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, fn)
}

// After registers fn to fire when virtual time reaches now+d
func (m *Manual) After(d time.Duration, fn func()) func() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	t := &manualTimer{due: m.now + d, seq: m.seq, fn: fn}
	m.timers = append(m.timers, t)

	return func() bool {
		m.mu.Lock()
		defer m.mu.Unlock()
		if t.done {
			return false
		}
		t.done = true
		return true
	}
}

// Now returns the virtual time elapsed since creation
func (m *Manual) Now() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Drain runs queued tasks, including ones they post, until the queue is empty
func (m *Manual) Drain() int {
	ran := 0
	for {
		m.mu.Lock()
		if len(m.queue) == 0 {
			m.mu.Unlock()
			return ran
		}
		fn := m.queue[0]
		m.queue = m.queue[1:]
		m.mu.Unlock()

		fn()
		ran++
		if ran > maxSteps {
			panic(fmt.Sprintf("loop: drain exceeded %d steps", maxSteps))
		}
	}
}

// Advance moves virtual time forward by d, firing due timers in order
func (m *Manual) Advance(d time.Duration) {
	m.Drain()

	m.mu.Lock()
	target := m.now + d
	m.mu.Unlock()

	for {
		t := m.nextTimer(target)
		if t == nil {
			break
		}
		t.fn()
		m.Drain()
	}

	m.mu.Lock()
	m.now = target
	m.mu.Unlock()
	m.Drain()
}

// Settle drains the queue and fires every pending timer
func (m *Manual) Settle() {
	for i := 0; ; i++ {
		m.Drain()
		m.mu.Lock()
		pending := m.pendingTimersLocked()
		m.mu.Unlock()
		if len(pending) == 0 {
			return
		}
		if i > maxSteps {
			panic(fmt.Sprintf("loop: settle exceeded %d steps", maxSteps))
		}
		m.Advance(pending[0].due - m.Now())
	}
}

// Pending reports the number of queued tasks and live timers
func (m *Manual) Pending() (tasks, timers int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue), len(m.pendingTimersLocked())
}

// nextTimer pops the earliest live timer due at or before target
func (m *Manual) nextTimer(target time.Duration) *manualTimer {
	m.mu.Lock()
	defer m.mu.Unlock()

	pending := m.pendingTimersLocked()
	if len(pending) == 0 || pending[0].due > target {
		return nil
	}
	t := pending[0]
	t.done = true
	if t.due > m.now {
		m.now = t.due
	}
	return t
}

func (m *Manual) pendingTimersLocked() []*manualTimer {
	live := m.timers[:0]
	for _, t := range m.timers {
		if !t.done {
			live = append(live, t)
		}
	}
	m.timers = live

	out := append([]*manualTimer(nil), live...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].due == out[j].due {
			return out[i].seq < out[j].seq
		}
		return out[i].due < out[j].due
	})
	return out
}
