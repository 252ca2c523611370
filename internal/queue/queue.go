// Package queue implements the world's priority dispatch queue: operations
// are ordered for delivery by (scheduled time, insertion sequence), so two
// ops scheduled for the same instant are delivered in the order they were
// enqueued.
//
// Not persisted: on restart the queue starts empty — only entity/property
// state survives a restart.
package queue

import (
	"container/heap"
	"time"

	"github.com/worldforge-go/simcore/internal/op"
)

// entry is one scheduled delivery: op o is due at time at, tie-broken by
// the monotonically increasing seq assigned at Push time.
type entry struct {
	o     op.Op
	at    time.Time
	seq   uint64
	index int
}

// innerHeap implements container/heap.Interface, adapted from the
// Brightgate pnodeQueue pattern (index-tracking Swap, time-ordered Less).
type innerHeap []*entry

func (h innerHeap) Len() int { return len(h) }

func (h innerHeap) Less(i, j int) bool {
	if h[i].at.Equal(h[j].at) {
		return h[i].seq < h[j].seq
	}
	return h[i].at.Before(h[j].at)
}

func (h innerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *innerHeap) Push(x any) {
	e := x.(*entry)
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *innerHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

// Queue is the world's single dispatch queue. Not safe for concurrent use
// without external synchronization — the world tick owns it exclusively.
type Queue struct {
	h       innerHeap
	nextSeq uint64
}

func New() *Queue {
	q := &Queue{}
	heap.Init(&q.h)
	return q
}

// Push schedules o for delivery at `now + FutureMilliseconds`;
// FutureMilliseconds of 0 means "as soon as possible", i.e. due at now.
func (q *Queue) Push(o op.Op, now time.Time) {
	due := now
	if o.FutureMilliseconds > 0 {
		due = now.Add(time.Duration(o.FutureMilliseconds) * time.Millisecond)
	}
	e := &entry{o: o, at: due, seq: q.nextSeq}
	q.nextSeq++
	heap.Push(&q.h, e)
}

// Len reports the number of pending operations.
func (q *Queue) Len() int { return q.h.Len() }

// PeekDue reports whether the earliest-due operation is due at or before
// now, without removing it.
func (q *Queue) PeekDue(now time.Time) bool {
	if q.h.Len() == 0 {
		return false
	}
	return !q.h[0].at.After(now)
}

// Pop removes and returns the earliest-due operation, if any is due at or
// before now. ok is false if the queue is empty or nothing is due yet.
func (q *Queue) Pop(now time.Time) (o op.Op, ok bool) {
	if !q.PeekDue(now) {
		return op.Op{}, false
	}
	e := heap.Pop(&q.h).(*entry)
	return e.o, true
}

// DrainDue pops every operation due at or before now, in delivery order,
// up to budget operations (0 means unlimited) — used by the world tick to
// cap per-tick op processing ("opsPerTick" budget).
func (q *Queue) DrainDue(now time.Time, budget int) []op.Op {
	var out []op.Op
	for q.PeekDue(now) {
		if budget > 0 && len(out) >= budget {
			break
		}
		o, _ := q.Pop(now)
		out = append(out, o)
	}
	return out
}
