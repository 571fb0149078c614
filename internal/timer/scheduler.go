// Package timer keeps the deadline-ordered queue of pending timer firings for
// the event loop.
package timer

import (
	"container/heap"
	"time"

	"github.com/1broseidon/winloop/internal/handle"
)

// ID identifies an armed timer. IDs are never reused.
type ID = handle.ID

// Owner is the window a timer belongs to. Zero means a global timer.
type Owner = handle.ID

// Func is invoked when a timer fires.
type Func func(ID)

type timer struct {
	id        ID
	deadline  time.Time
	interval  time.Duration
	owner     Owner
	fn        Func
	cancelled bool
}

// entry is one queued firing. Ties on deadline are broken by id, which is
// the timer's creation order.
type entry struct {
	deadline time.Time
	id       ID
}

type queue []entry

func (q queue) Len() int { return len(q) }
func (q queue) Less(i, j int) bool {
	if q[i].deadline.Equal(q[j].deadline) {
		return q[i].id < q[j].id
	}
	return q[i].deadline.Before(q[j].deadline)
}
func (q queue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *queue) Push(x any) { *q = append(*q, x.(entry)) }

func (q *queue) Pop() any {
	old := *q
	n := len(old)
	x := old[n-1]
	*q = old[:n-1]
	return x
}

// Scheduler is a min-queue of timers keyed by deadline.
//
// Cancelled timers stay in the queue until popped; FireDue filters them
// immediately before invocation, so a timer cancelled by another timer's
// callback in the same pass never runs.
//
// Scheduler is not safe for concurrent use.
type Scheduler struct {
	timers *handle.Table[*timer]
	queue  queue
}

// NewScheduler returns an empty scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{timers: handle.New[*timer]()}
}

// Schedule arms a timer for deadline. A positive interval makes it repeat.
func (s *Scheduler) Schedule(deadline time.Time, interval time.Duration, owner Owner, fn Func) ID {
	if interval < 0 {
		interval = 0
	}
	t := &timer{deadline: deadline, interval: interval, owner: owner, fn: fn}
	t.id = s.timers.Allocate(t)
	heap.Push(&s.queue, entry{deadline: deadline, id: t.id})
	return t.id
}

// Cancel disarms id. It reports whether the timer was still armed.
func (s *Scheduler) Cancel(id ID) bool {
	t, ok := s.timers.Get(id)
	if !ok {
		return false
	}
	t.cancelled = true
	s.timers.Remove(id)
	return true
}

// CancelOwner disarms every timer belonging to owner and returns how many
// were cancelled.
func (s *Scheduler) CancelOwner(owner Owner) int {
	if owner == 0 {
		return 0
	}
	n := 0
	s.timers.Each(func(id ID, t *timer) {
		if t.owner == owner {
			s.Cancel(id)
			n++
		}
	})
	return n
}

// CancelAll disarms every timer.
func (s *Scheduler) CancelAll() int {
	n := 0
	s.timers.Each(func(id ID, _ *timer) {
		s.Cancel(id)
		n++
	})
	s.queue = s.queue[:0]
	return n
}

// Pending reports whether id is still armed.
func (s *Scheduler) Pending(id ID) bool {
	return s.timers.Contains(id)
}

// Len returns the number of armed timers.
func (s *Scheduler) Len() int {
	return s.timers.Len()
}

// Deadline returns the next deadline of an armed timer.
func (s *Scheduler) Deadline(id ID) (time.Time, bool) {
	t, ok := s.timers.Get(id)
	if !ok {
		return time.Time{}, false
	}
	return t.deadline, true
}

// NextWake returns the earliest deadline among armed timers.
func (s *Scheduler) NextWake() (time.Time, bool) {
	s.dropCancelledHead()
	if len(s.queue) == 0 {
		return time.Time{}, false
	}
	return s.queue[0].deadline, true
}

func (s *Scheduler) dropCancelledHead() {
	for len(s.queue) > 0 && !s.timers.Contains(s.queue[0].id) {
		heap.Pop(&s.queue)
	}
}

// FireDue invokes every timer whose deadline is at or before now, in
// deadline order with ties broken by creation order, and returns how many
// callbacks ran.
//
// The set of due timers is fixed when FireDue starts: timers scheduled by a
// callback run on a later call even if already due. Repeating timers are
// re-armed from their previous deadline, not from now; missed intervals are
// skipped so the timer keeps its phase without bursting.
func (s *Scheduler) FireDue(now time.Time) int {
	var due []entry
	for len(s.queue) > 0 && !s.queue[0].deadline.After(now) {
		e := heap.Pop(&s.queue).(entry)
		if s.timers.Contains(e.id) {
			due = append(due, e)
		}
	}

	fired := 0
	for _, e := range due {
		t, ok := s.timers.Get(e.id)
		if !ok || t.cancelled {
			continue
		}
		if t.interval == 0 {
			s.timers.Remove(t.id)
		}
		fired++
		if t.fn != nil {
			t.fn(t.id)
		}
		if t.interval == 0 || t.cancelled {
			continue
		}
		t.deadline = nextDeadline(e.deadline, t.interval, now)
		heap.Push(&s.queue, entry{deadline: t.deadline, id: t.id})
	}
	return fired
}

func nextDeadline(prev time.Time, interval time.Duration, now time.Time) time.Time {
	next := prev.Add(interval)
	if next.After(now) {
		return next
	}
	missed := now.Sub(prev) / interval
	return prev.Add((missed + 1) * interval)
}
