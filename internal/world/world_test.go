package world

import (
	"testing"
	"time"

	"github.com/worldforge-go/simcore/internal/core/event"
	"github.com/worldforge-go/simcore/internal/domain"
	"github.com/worldforge-go/simcore/internal/eid"
	"github.com/worldforge-go/simcore/internal/entity"
	"github.com/worldforge-go/simcore/internal/geom"
	"github.com/worldforge-go/simcore/internal/op"
	"github.com/worldforge-go/simcore/internal/router"
)

// TestPhysicalAppearanceOnInsert checks that inserting an observer and
// then an object within visibility range yields exactly one Appearance
// signal.
func TestPhysicalAppearanceOnInsert(t *testing.T) {
	w := New(nil, 64, time.Unix(0, 0))
	w.Graph.Root().SetDomain(domain.NewPhysical(w.Graph.Root(), w.Bus, w))

	var appearances []event.Appearance
	event.Subscribe(w.Bus, func(a event.Appearance) { appearances = append(appearances, a) })

	charType := entity.NewTypeInfo("character", nil)
	observer := w.Builder.New(charType, nil)
	if err := w.Insert(observer, w.Graph.Root(), entity.Location{Position: geom.Vector3{}}); err != nil {
		t.Fatalf("insert observer: %v", err)
	}

	objType := entity.NewTypeInfo("object", nil)
	obj := w.Builder.New(objType, nil)
	if err := w.Insert(obj, w.Graph.Root(), entity.Location{Position: geom.Vector3{X: 10, Z: 10}}); err != nil {
		t.Fatalf("insert object: %v", err)
	}

	found := 0
	for _, a := range appearances {
		if a.Observer == observer.ID() && a.Target == obj.ID() {
			found++
		}
	}
	if found != 1 {
		t.Fatalf("expected exactly 1 Appearance(obj->observer), got %d (all=%v)", found, appearances)
	}
}

// TestMoveOutOfRangeProducesDisappearance checks that moving an object out
// of an observer's visibility range produces a Disappearance during the
// move itself; no tick is run, and Physical.Tick does no visibility work.
func TestMoveOutOfRangeProducesDisappearance(t *testing.T) {
	w := New(nil, 64, time.Unix(0, 0))
	w.Graph.Root().SetDomain(domain.NewPhysical(w.Graph.Root(), w.Bus, w))

	var disappearances []event.Disappearance
	event.Subscribe(w.Bus, func(d event.Disappearance) { disappearances = append(disappearances, d) })

	charType := entity.NewTypeInfo("character", nil)
	observer := w.Builder.New(charType, nil)
	_ = w.Insert(observer, w.Graph.Root(), entity.Location{Position: geom.Vector3{}})

	objType := entity.NewTypeInfo("object", nil)
	obj := w.Builder.New(objType, nil)
	_ = w.Insert(obj, w.Graph.Root(), entity.Location{Position: geom.Vector3{X: 10, Z: 10}})

	if err := w.Graph.SetLocation(obj, w.Graph.Root(), geom.Vector3{X: 500, Z: 500}, geom.IdentityQuat); err != nil {
		t.Fatalf("move: %v", err)
	}

	found := false
	for _, d := range disappearances {
		if d.Observer == observer.ID() && d.Target == obj.ID() {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a Disappearance(obj->observer) after moving out of range, got %v", disappearances)
	}
}

func TestTickDropsOpsAddressedToDestroyedEntities(t *testing.T) {
	w := New(nil, 64, time.Unix(0, 0))
	charType := entity.NewTypeInfo("character", nil)
	target := w.Builder.New(charType, nil)
	_ = w.Insert(target, w.Graph.Root(), entity.Location{})

	called := false
	w.Router.RegisterTo("character", op.ClassTouch, func(o op.Op) (op.Vector, router.Result) {
		called = true
		return nil, router.Handled
	})

	_ = w.Graph.RemoveEntity(target.ID())
	w.Enqueue(op.New(op.ClassTouch, eid.Zero, target.ID()))
	w.Tick(10 * time.Millisecond)

	if called {
		t.Fatalf("handler should not run for an op addressed to a destroyed entity")
	}
}
