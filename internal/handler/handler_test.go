package handler

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/worldforge-go/simcore/internal/domain"
	"github.com/worldforge-go/simcore/internal/entity"
	"github.com/worldforge-go/simcore/internal/op"
	"github.com/worldforge-go/simcore/internal/router"
	"github.com/worldforge-go/simcore/internal/world"
)

func newTestWorld(t *testing.T) (*world.World, *entity.TypeInfo) {
	t.Helper()
	w := world.New(zap.NewNop(), 64, time.Unix(0, 0))
	charType := entity.NewTypeInfo("character", nil)
	lookup := func(name string) *entity.TypeInfo {
		if name == "character" {
			return charType
		}
		return nil
	}
	Register(w, w.Reg, TypeLookup(lookup))
	w.Graph.Root().SetDomain(domain.NewPhysical(w.Graph.Root(), w.Bus, w))
	return w, charType
}

func newActor(t *testing.T, w *world.World, typ *entity.TypeInfo) *entity.Entity {
	t.Helper()
	a := w.Builder.New(typ, nil)
	if err := w.Insert(a, w.Graph.Root(), entity.Location{}); err != nil {
		t.Fatalf("insert actor: %v", err)
	}
	return a
}

func TestHandleMoveRelocatesEntity(t *testing.T) {
	w, charType := newTestWorld(t)
	actor := newActor(t, w, charType)
	dest := newActor(t, w, charType)

	o := op.New(op.ClassMove, actor.ID(), dest.ID()).Arg(map[string]any{"id": actor.ID()})
	if _, res := w.Router.Dispatch(w.Graph, o); res != router.Handled {
		t.Fatalf("expected Move to be handled, got %v", res)
	}
	if actor.Parent() != dest {
		t.Fatalf("expected actor reparented under dest, got parent=%v", actor.Parent())
	}
}

func TestHandleSetAppliesAttribute(t *testing.T) {
	w, charType := newTestWorld(t)
	actor := newActor(t, w, charType)

	o := op.New(op.ClassSet, actor.ID(), actor.ID()).Arg(map[string]any{"mass": 42.0})
	if _, res := w.Router.Dispatch(w.Graph, o); res != router.Handled {
		t.Fatalf("expected Set to be handled")
	}

	v, err := actor.GetProperty("mass")
	if err != nil {
		t.Fatalf("get mass: %v", err)
	}
	if v != 42.0 {
		t.Fatalf("expected mass 42.0, got %v", v)
	}
}

func TestHandleCreateInsertsChildOfNamedType(t *testing.T) {
	w, charType := newTestWorld(t)
	parent := newActor(t, w, charType)

	o := op.New(op.ClassCreate, parent.ID(), parent.ID()).
		Arg(map[string]any{"type": "character", "mass": 12.0})
	ops, res := w.Router.Dispatch(w.Graph, o)
	if res != router.Handled {
		t.Fatalf("expected Create to be handled, got %v", res)
	}
	if len(ops) == 0 {
		t.Fatalf("expected a Create reply")
	}

	found := false
	for _, child := range parent.Children() {
		if child.TypeInfo() == charType {
			found = true
			if v, _ := child.GetProperty("mass"); v != 12.0 {
				t.Fatalf("expected created child's mass 12.0, got %v", v)
			}
		}
	}
	if !found {
		t.Fatalf("expected a new character child under parent")
	}
}

func TestHandleDeleteRemovesEntity(t *testing.T) {
	w, charType := newTestWorld(t)
	actor := newActor(t, w, charType)
	id := actor.ID()

	o := op.New(op.ClassDelete, actor.ID(), actor.ID())
	if _, res := w.Router.Dispatch(w.Graph, o); res != router.Handled {
		t.Fatalf("expected Delete to be handled")
	}
	if !actor.Destroyed() {
		t.Fatalf("expected actor to be flagged destroyed")
	}
	if _, ok := w.Graph.GetEntity(id); !ok {
		t.Fatalf("destroyed entity should still resolve until reaped")
	}
}

func TestHandleLookRepliesWithSight(t *testing.T) {
	w, charType := newTestWorld(t)
	looker := newActor(t, w, charType)
	target := newActor(t, w, charType)

	o := op.New(op.ClassLook, looker.ID(), target.ID())
	ops, res := w.Router.Dispatch(w.Graph, o)
	if res != router.Handled {
		t.Fatalf("expected Look to be handled")
	}
	if len(ops) != 1 || ops[0].Class != op.ClassSight {
		t.Fatalf("expected a single Sight reply, got %+v", ops)
	}
	if ops[0].To != looker.ID() {
		t.Fatalf("expected Sight addressed back to looker, got %v", ops[0].To)
	}
}

func TestHandleUseUnwrapsInnerOp(t *testing.T) {
	w, charType := newTestWorld(t)
	actor := newActor(t, w, charType)
	tool := newActor(t, w, charType)

	inner := op.New(op.ClassTouch, actor.ID(), tool.ID())
	o := op.New(op.ClassUse, actor.ID(), tool.ID()).Arg(&inner)

	ops, res := w.Router.Dispatch(w.Graph, o)
	if res != router.Handled {
		t.Fatalf("expected Use to be handled")
	}
	if len(ops) != 1 || ops[0].Class != op.ClassTouch {
		t.Fatalf("expected the inner Touch op to be redispatched, got %+v", ops)
	}
}

func TestHandleBroadcastReachesVisibleSibling(t *testing.T) {
	w, charType := newTestWorld(t)
	actor := newActor(t, w, charType)
	observer := newActor(t, w, charType)

	o := op.New(op.ClassTalk, actor.ID(), actor.ID()).Arg("hello")
	ops, res := w.Router.Dispatch(w.Graph, o)
	if res != router.Handled {
		t.Fatalf("expected Talk to be handled")
	}

	delivered := false
	for _, out := range ops {
		if out.Class == op.ClassSight && out.To == observer.ID() {
			delivered = true
		}
	}
	if !delivered {
		t.Fatalf("expected a Sight-of-Talk addressed to the visible sibling, got %+v", ops)
	}
}
