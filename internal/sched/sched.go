// Package sched provides one-shot deferred tasks for a single-threaded run
// loop. Tasks never run concurrently with the loop that consumes them.
package sched

import (
	"sync"
	"time"
)

// Scheduler runs a task once after a delay. There is no cancellation.
type Scheduler interface {
	ScheduleAfter(delay time.Duration, task func())
}

// Queue delivers due tasks on a channel. The owner of the run loop receives
// from C and invokes each task itself, so tasks run on the loop's goroutine.
type Queue struct {
	c    chan func()
	done chan struct{}
	once sync.Once
}

// NewQueue creates a Queue. The buffer lets timers fire while the loop is
// busy without blocking timer goroutines.
func NewQueue(buffer int) *Queue {
	return &Queue{
		c:    make(chan func(), buffer),
		done: make(chan struct{}),
	}
}

// C returns the channel of due tasks.
func (q *Queue) C() <-chan func() { return q.c }

// ScheduleAfter arranges for task to be sent on C after delay.
// Tasks that come due after Close are dropped.
func (q *Queue) ScheduleAfter(delay time.Duration, task func()) {
	time.AfterFunc(delay, func() {
		select {
		case <-q.done:
			return
		default:
		}
		select {
		case q.c <- task:
		case <-q.done:
		}
	})
}

// Close stops delivery of pending tasks.
func (q *Queue) Close() {
	q.once.Do(func() { close(q.done) })
}
