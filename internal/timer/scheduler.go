// Package timer provides cancellable scheduled tasks driven by a game loop.
//
// A Scheduler is not safe for concurrent use. It is owned by one goroutine (the
// frame loop of a client), which calls Run once per frame; every task callback
// therefore runs to completion on that goroutine without preemption.
package timer

import (
	"container/heap"
	"time"
)

// Task is a scheduled callback. The *Task returned by After or Every is the
// cancellation token for that callback.
type Task struct {
	sched  *Scheduler
	fn     func()
	due    time.Time
	period time.Duration // 0 for one-shot tasks
	seq    uint64        // registration order, breaks ties between equal due times
	index  int           // position in the heap, -1 once removed
}

// Cancel stops the task. Safe to call more than once, on a nil task, and from
// inside any callback, including the task's own.
func (t *Task) Cancel() {
	if t == nil || t.index < 0 {
		return
	}
	heap.Remove(&t.sched.tasks, t.index)
}

// Active reports whether the task is still scheduled.
func (t *Task) Active() bool {
	return t != nil && t.index >= 0
}

// Scheduler runs tasks whose due time has passed on the caller's goroutine.
type Scheduler struct {
	clock   Clock
	tasks   taskHeap
	nextSeq uint64
}

// NewScheduler creates a scheduler reading time from clock.
func NewScheduler(clock Clock) *Scheduler {
	if clock == nil {
		clock = RealClock{}
	}
	return &Scheduler{clock: clock}
}

// Now returns the scheduler's current time.
func (s *Scheduler) Now() time.Time {
	return s.clock.Now()
}

// After schedules fn to run once, d from now.
func (s *Scheduler) After(d time.Duration, fn func()) *Task {
	return s.schedule(d, 0, fn)
}

// Every schedules fn to run every period, first firing one period from now.
// A non-positive period is treated as one nanosecond so Run always terminates.
func (s *Scheduler) Every(period time.Duration, fn func()) *Task {
	if period <= 0 {
		period = time.Nanosecond
	}
	return s.schedule(period, period, fn)
}

func (s *Scheduler) schedule(d, period time.Duration, fn func()) *Task {
	t := &Task{
		sched:  s,
		fn:     fn,
		due:    s.clock.Now().Add(d),
		period: period,
		seq:    s.nextSeq,
	}
	s.nextSeq++
	heap.Push(&s.tasks, t)
	return t
}

// Run fires every task due at or before the current time, earliest first.
// Periodic tasks are re-armed at due+period, so a loop that fell behind fires
// the missed periods in order. Returns the number of callbacks run.
func (s *Scheduler) Run() int {
	now := s.clock.Now()
	fired := 0
	for len(s.tasks) > 0 {
		t := s.tasks[0]
		if t.due.After(now) {
			break
		}
		if t.period > 0 {
			t.due = t.due.Add(t.period)
			t.seq = s.nextSeq
			s.nextSeq++
			heap.Fix(&s.tasks, 0)
		} else {
			heap.Pop(&s.tasks)
		}
		t.fn()
		fired++
	}
	return fired
}

// Len returns the number of scheduled tasks.
func (s *Scheduler) Len() int {
	return len(s.tasks)
}

// Clear cancels every task.
func (s *Scheduler) Clear() {
	for _, t := range s.tasks {
		t.index = -1
	}
	s.tasks = s.tasks[:0]
}

// taskHeap orders tasks by due time, then registration sequence.
type taskHeap []*Task

func (h taskHeap) Len() int { return len(h) }

func (h taskHeap) Less(i, j int) bool {
	if h[i].due.Equal(h[j].due) {
		return h[i].seq < h[j].seq
	}
	return h[i].due.Before(h[j].due)
}

func (h taskHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *taskHeap) Push(x any) {
	t := x.(*Task)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}
