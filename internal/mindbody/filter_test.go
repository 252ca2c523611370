package mindbody

import (
	"testing"

	"github.com/worldforge-go/simcore/internal/core/event"
	"github.com/worldforge-go/simcore/internal/domain"
	"github.com/worldforge-go/simcore/internal/eid"
	"github.com/worldforge-go/simcore/internal/entity"
	"github.com/worldforge-go/simcore/internal/geom"
	"github.com/worldforge-go/simcore/internal/op"
	"github.com/worldforge-go/simcore/internal/property"
)

func newFixture(t *testing.T) (*entity.Graph, *entity.Builder, *Filter) {
	t.Helper()
	pool := eid.NewPool()
	reg := property.NewRegistry()
	worldType := entity.NewTypeInfo("world", nil)
	b := entity.NewBuilder(pool, reg)
	root := b.New(worldType, nil)
	bus := event.NewBus()
	graph := entity.NewGraph(bus, root)
	root.SetDomain(domain.NewPhysical(root, bus, nil))
	return graph, b, New(graph, nil)
}

func TestFilterMoveSelfRetargetsToParent(t *testing.T) {
	graph, b, f := newFixture(t)
	charType := entity.NewTypeInfo("character", nil)
	actor := b.New(charType, nil)
	_ = graph.AddEntity(actor, graph.Root(), entity.Location{})

	inner := op.New(op.ClassMove, actor.ID(), actor.ID())
	thought := op.New(op.ClassThought, eid.New(99, 0), actor.ID()).Arg(inner)

	out := f.FilterThought(eid.New(99, 0), actor.ID(), thought)
	if len(out) != 1 {
		t.Fatalf("expected 1 op, got %d", len(out))
	}
	if out[0].To != graph.Root().ID() {
		t.Fatalf("expected Move(self) rewritten to=parent(self), got to=%v", out[0].To)
	}
}

func TestFilterSetNormalizesOverUnitPropel(t *testing.T) {
	graph, b, f := newFixture(t)
	charType := entity.NewTypeInfo("character", nil)
	actor := b.New(charType, nil)
	_ = graph.AddEntity(actor, graph.Root(), entity.Location{})

	inner := op.New(op.ClassSet, actor.ID(), actor.ID()).Arg(map[string]any{
		"_propel": geom.Vector3{X: 2, Y: 0, Z: 0},
	})
	thought := op.New(op.ClassThought, eid.New(1, 0), actor.ID()).Arg(inner)

	out := f.FilterThought(eid.New(1, 0), actor.ID(), thought)
	if len(out) != 1 {
		t.Fatalf("expected 1 Set op, got %d", len(out))
	}
	args, ok := out[0].Args[0].(map[string]any)
	if !ok {
		t.Fatalf("expected map args, got %T", out[0].Args[0])
	}
	propel, ok := args["_propel"].(geom.Vector3)
	if !ok {
		t.Fatalf("expected geom.Vector3 propel, got %T", args["_propel"])
	}
	if mag := propel.Mag(); mag < 0.999999 || mag > 1.000001 {
		t.Fatalf("expected unit magnitude propel, got %v", mag)
	}
}

func TestFilterSetDropsNonWhitelistedAttrs(t *testing.T) {
	graph, b, f := newFixture(t)
	charType := entity.NewTypeInfo("character", nil)
	actor := b.New(charType, nil)
	_ = graph.AddEntity(actor, graph.Root(), entity.Location{})

	inner := op.New(op.ClassSet, actor.ID(), actor.ID()).Arg(map[string]any{
		"mass": 999.0,
	})
	thought := op.New(op.ClassThought, eid.New(1, 0), actor.ID()).Arg(inner)

	out := f.FilterThought(eid.New(1, 0), actor.ID(), thought)
	if out != nil {
		t.Fatalf("expected non-whitelisted Set to be dropped entirely, got %+v", out)
	}
}

func TestFilterTouchReachFailureProducesClientError(t *testing.T) {
	graph, b, f := newFixture(t)
	charType := entity.NewTypeInfo("character", nil)
	actor := b.New(charType, nil)
	_ = graph.AddEntity(actor, graph.Root(), entity.Location{Position: geom.Vector3{}})
	_ = actor.SetProperty(property.NewRegistry(), "reach", 1.0, property.KindNumber)

	target := b.New(charType, nil)
	_ = graph.AddEntity(target, graph.Root(), entity.Location{Position: geom.Vector3{X: 10}})

	inner := op.New(op.ClassTouch, actor.ID(), target.ID()).Arg(map[string]any{"id": target.ID()})
	thought := op.New(op.ClassThought, eid.New(1, 0), actor.ID()).Arg(inner)

	out := f.FilterThought(eid.New(1, 0), actor.ID(), thought)
	if len(out) != 1 || out[0].Class != op.ClassError {
		t.Fatalf("expected single ClientError, got %+v", out)
	}
}
