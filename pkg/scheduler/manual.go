package scheduler

import (
	"sort"
	"sync"
	"time"
)

// Manual is a virtual-time scheduler. Nothing fires until Advance is called;
// due callbacks then run synchronously on the caller's goroutine in due-time
// order, including callbacks scheduled by other callbacks.
type Manual struct {
	mu      sync.Mutex
	now     time.Time
	seq     uint64
	pending []*manualTimer
}

type manualTimer struct {
	owner *Manual
	seq   uint64
	due   time.Time
	fn    func()
	done  bool
}

// NewManual returns a Manual scheduler whose clock starts at start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

// Now returns the virtual time.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// AfterFunc registers fn to run once the virtual clock reaches now+d.
func (m *Manual) AfterFunc(d time.Duration, fn func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	t := &manualTimer{owner: m, seq: m.seq, due: m.now.Add(d), fn: fn}
	m.pending = append(m.pending, t)
	return t
}

// Advance moves the clock forward by d, running every callback that becomes
// due along the way.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	m.mu.Unlock()

	for {
		next := m.popDue(target)
		if next == nil {
			break
		}
		next.fn()
	}

	m.mu.Lock()
	if m.now.Before(target) {
		m.now = target
	}
	m.mu.Unlock()
}

// Pending returns the number of callbacks that have not fired or been stopped.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

func (m *Manual) popDue(target time.Time) *manualTimer {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.pending) == 0 {
		return nil
	}

	sort.SliceStable(m.pending, func(i, j int) bool {
		if m.pending[i].due.Equal(m.pending[j].due) {
			return m.pending[i].seq < m.pending[j].seq
		}
		return m.pending[i].due.Before(m.pending[j].due)
	})

	head := m.pending[0]
	if head.due.After(target) {
		return nil
	}

	m.pending = m.pending[1:]
	head.done = true
	if head.due.After(m.now) {
		m.now = head.due
	}
	return head
}

func (t *manualTimer) Stop() bool {
	m := t.owner
	m.mu.Lock()
	defer m.mu.Unlock()

	if t.done {
		return false
	}
	t.done = true
	for i, p := range m.pending {
		if p == t {
			m.pending = append(m.pending[:i], m.pending[i+1:]...)
			break
		}
	}
	return true
}
