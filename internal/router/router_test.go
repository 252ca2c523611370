package router

import (
	"testing"

	"github.com/worldforge-go/simcore/internal/core/event"
	"github.com/worldforge-go/simcore/internal/eid"
	"github.com/worldforge-go/simcore/internal/entity"
	"github.com/worldforge-go/simcore/internal/op"
	"github.com/worldforge-go/simcore/internal/property"
)

func newTestGraph(t *testing.T) (*entity.Graph, *entity.Builder) {
	t.Helper()
	pool := eid.NewPool()
	reg := property.NewRegistry()
	worldType := entity.NewTypeInfo("world", nil)
	b := entity.NewBuilder(pool, reg)
	root := b.New(worldType, nil)
	bus := event.NewBus()
	return entity.NewGraph(bus, root), b
}

func TestDispatchPrefersFromHandlerOverDefault(t *testing.T) {
	graph, b := newTestGraph(t)
	charType := entity.NewTypeInfo("character", nil)
	actor := b.New(charType, nil)
	_ = graph.AddEntity(actor, graph.Root(), entity.Location{})

	r := New(nil)
	called := ""
	r.RegisterFrom("character", op.ClassTalk, func(o op.Op) (op.Vector, Result) {
		called = "from"
		return nil, Handled
	})
	r.RegisterFrom("", op.ClassTalk, func(o op.Op) (op.Vector, Result) {
		called = "default"
		return nil, Handled
	})

	o := op.New(op.ClassTalk, actor.ID(), graph.Root().ID())
	_, res := r.Dispatch(graph, o)
	if res != Handled || called != "from" {
		t.Fatalf("expected from-handler to win, got called=%q res=%v", called, res)
	}
}

func TestDispatchRecoversHandlerPanic(t *testing.T) {
	graph, b := newTestGraph(t)
	charType := entity.NewTypeInfo("character", nil)
	actor := b.New(charType, nil)
	_ = graph.AddEntity(actor, graph.Root(), entity.Location{})

	r := New(nil)
	r.RegisterFrom("character", op.ClassMove, func(o op.Op) (op.Vector, Result) {
		panic("boom")
	})

	o := op.New(op.ClassMove, actor.ID(), graph.Root().ID())
	ops, res := r.Dispatch(graph, o)
	if res != Ignored || ops != nil {
		t.Fatalf("expected panic recovered to Ignored/nil, got res=%v ops=%v", res, ops)
	}
}
