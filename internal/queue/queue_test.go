package queue

import (
	"testing"
	"time"

	"github.com/worldforge-go/simcore/internal/eid"
	"github.com/worldforge-go/simcore/internal/op"
)

func TestQueueOrdersBySequenceWhenTimesTie(t *testing.T) {
	q := New()
	now := time.Unix(1000, 0)

	first := op.New(op.ClassMove, eid.New(1, 0), eid.New(2, 0))
	second := op.New(op.ClassMove, eid.New(3, 0), eid.New(4, 0))
	q.Push(first, now)
	q.Push(second, now)

	got1, ok := q.Pop(now)
	if !ok || got1.From != first.From {
		t.Fatalf("expected first op popped first, got %+v ok=%v", got1, ok)
	}
	got2, ok := q.Pop(now)
	if !ok || got2.From != second.From {
		t.Fatalf("expected second op popped second, got %+v ok=%v", got2, ok)
	}
}

func TestQueueHonorsFutureMilliseconds(t *testing.T) {
	q := New()
	now := time.Unix(1000, 0)

	future := op.New(op.ClassTick, eid.Zero, eid.Zero)
	future.FutureMilliseconds = 5000
	q.Push(future, now)

	if q.PeekDue(now) {
		t.Fatalf("op scheduled 5s out should not be due yet")
	}
	if !q.PeekDue(now.Add(6 * time.Second)) {
		t.Fatalf("op scheduled 5s out should be due after 6s elapsed")
	}
}

func TestQueueDrainDueRespectsBudget(t *testing.T) {
	q := New()
	now := time.Unix(1000, 0)
	for i := 0; i < 5; i++ {
		q.Push(op.New(op.ClassMove, eid.New(uint32(i), 0), eid.Zero), now)
	}
	drained := q.DrainDue(now, 3)
	if len(drained) != 3 {
		t.Fatalf("expected 3 ops drained under budget, got %d", len(drained))
	}
	if q.Len() != 2 {
		t.Fatalf("expected 2 ops remaining, got %d", q.Len())
	}
}
