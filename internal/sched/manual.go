package sched

import (
	"sort"
	"time"
)

// Manual is a test double whose clock only moves when told to.
type Manual struct {
	now     time.Duration
	seq     int
	pending []pendingTask
}

type pendingTask struct {
	due  time.Duration
	seq  int
	task func()
}

// NewManual creates a Manual scheduler at time zero.
func NewManual() *Manual {
	return &Manual{}
}

// ScheduleAfter records task to run once Advance reaches now+delay.
func (m *Manual) ScheduleAfter(delay time.Duration, task func()) {
	m.pending = append(m.pending, pendingTask{due: m.now + delay, seq: m.seq, task: task})
	m.seq++
}

// Now returns the elapsed manual time.
func (m *Manual) Now() time.Duration { return m.now }

// Pending returns the number of tasks not yet run.
func (m *Manual) Pending() int { return len(m.pending) }

// NextDelay returns how far the next task is from now, and false if nothing
// is pending.
func (m *Manual) NextDelay() (time.Duration, bool) {
	if len(m.pending) == 0 {
		return 0, false
	}
	m.sortPending()
	return m.pending[0].due - m.now, true
}

// Advance moves the clock forward by d and runs every task that came due,
// in due order. Tasks scheduled by a running task are honoured if they also
// fall within the window. Returns the number of tasks run.
func (m *Manual) Advance(d time.Duration) int {
	target := m.now + d
	ran := 0
	for {
		m.sortPending()
		if len(m.pending) == 0 || m.pending[0].due > target {
			break
		}
		next := m.pending[0]
		m.pending = m.pending[1:]
		m.now = next.due
		next.task()
		ran++
	}
	m.now = target
	return ran
}

// RunPending advances to the last pending task and runs everything.
func (m *Manual) RunPending() int {
	ran := 0
	for len(m.pending) > 0 {
		delay, _ := m.NextDelay()
		ran += m.Advance(delay)
	}
	return ran
}

func (m *Manual) sortPending() {
	sort.SliceStable(m.pending, func(i, j int) bool {
		if m.pending[i].due != m.pending[j].due {
			return m.pending[i].due < m.pending[j].due
		}
		return m.pending[i].seq < m.pending[j].seq
	})
}
