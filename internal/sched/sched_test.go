package sched

import (
	"testing"
	"time"
)

func TestQueueDeliversTask(t *testing.T) {
	q := NewQueue(1)
	defer q.Close()

	ran := false
	q.ScheduleAfter(time.Millisecond, func() { ran = true })

	select {
	case task := <-q.C():
		task()
	case <-time.After(2 * time.Second):
		t.Fatal("task was not delivered")
	}
	if !ran {
		t.Error("task did not run")
	}
}

func TestQueueDeliversInDueOrder(t *testing.T) {
	q := NewQueue(4)
	defer q.Close()

	var order []int
	q.ScheduleAfter(60*time.Millisecond, func() { order = append(order, 2) })
	q.ScheduleAfter(time.Millisecond, func() { order = append(order, 1) })

	for i := 0; i < 2; i++ {
		select {
		case task := <-q.C():
			task()
		case <-time.After(2 * time.Second):
			t.Fatalf("task %d was not delivered", i)
		}
	}
	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Errorf("order: got %v, want [1 2]", order)
	}
}

func TestQueueCloseDropsPending(t *testing.T) {
	q := NewQueue(0)
	q.ScheduleAfter(20*time.Millisecond, func() {})
	q.Close()
	q.Close() // idempotent

	select {
	case <-q.C():
		t.Error("no task should be delivered after Close")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestManualAdvance(t *testing.T) {
	m := NewManual()
	var order []string
	m.ScheduleAfter(750*time.Millisecond, func() { order = append(order, "b") })
	m.ScheduleAfter(100*time.Millisecond, func() { order = append(order, "a") })

	if m.Pending() != 2 {
		t.Fatalf("Pending: got %d, want 2", m.Pending())
	}
	if d, ok := m.NextDelay(); !ok || d != 100*time.Millisecond {
		t.Errorf("NextDelay: got (%v, %v), want (100ms, true)", d, ok)
	}

	if n := m.Advance(99 * time.Millisecond); n != 0 {
		t.Errorf("Advance(99ms): ran %d, want 0", n)
	}
	if n := m.Advance(time.Millisecond); n != 1 {
		t.Errorf("Advance(1ms): ran %d, want 1", n)
	}
	if n := m.Advance(time.Second); n != 1 {
		t.Errorf("Advance(1s): ran %d, want 1", n)
	}
	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Errorf("order: got %v, want [a b]", order)
	}
	if m.Now() != 1100*time.Millisecond {
		t.Errorf("Now: got %v, want 1.1s", m.Now())
	}
	if _, ok := m.NextDelay(); ok {
		t.Error("NextDelay should report nothing pending")
	}
}

func TestManualSameDueKeepsScheduleOrder(t *testing.T) {
	m := NewManual()
	var order []int
	for i := 0; i < 5; i++ {
		i := i
		m.ScheduleAfter(time.Second, func() { order = append(order, i) })
	}
	m.Advance(time.Second)
	for i, v := range order {
		if v != i {
			t.Fatalf("order: got %v, want [0 1 2 3 4]", order)
		}
	}
}

func TestManualTaskSchedulesTask(t *testing.T) {
	m := NewManual()
	count := 0
	var tick func()
	tick = func() {
		count++
		if count < 3 {
			m.ScheduleAfter(time.Second, tick)
		}
	}
	m.ScheduleAfter(time.Second, tick)

	if n := m.Advance(10 * time.Second); n != 3 {
		t.Errorf("Advance: ran %d, want 3", n)
	}
	if count != 3 {
		t.Errorf("count: got %d, want 3", count)
	}
}

func TestManualRunPending(t *testing.T) {
	m := NewManual()
	m.ScheduleAfter(time.Hour, func() {})
	m.ScheduleAfter(time.Minute, func() {})

	if n := m.RunPending(); n != 2 {
		t.Errorf("RunPending: ran %d, want 2", n)
	}
	if m.Now() != time.Hour {
		t.Errorf("Now: got %v, want 1h", m.Now())
	}
}

func TestImplementsScheduler(t *testing.T) {
	var _ Scheduler = (*Queue)(nil)
	var _ Scheduler = (*Manual)(nil)
}
