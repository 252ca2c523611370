package domain

import (
	"testing"

	"github.com/worldforge-go/simcore/internal/core/event"
	"github.com/worldforge-go/simcore/internal/eid"
	"github.com/worldforge-go/simcore/internal/entity"
	"github.com/worldforge-go/simcore/internal/property"
)

func newTestEntity(bus *event.Bus, reg *property.Registry, pool *eid.Pool) *entity.Entity {
	t := entity.NewTypeInfo("thing", nil)
	return entity.NewBuilder(pool, reg).New(t, nil)
}

func grantAccess(t *testing.T, owner *entity.Entity, ids []eid.ID) {
	t.Helper()
	prop, ok := owner.Property(PropContainerAccess)
	if !ok {
		t.Fatalf("container access property missing on %v", owner.ID())
	}
	if err := prop.Set(owner, PropContainerAccess, ids); err != nil {
		t.Fatalf("grant access: %v", err)
	}
}

// TestContainerAccessCascadesToContainersActive checks that granting and
// revoking ContainerAccess on a container keeps the observer's
// ContainersActive back-reference in sync, in both directions.
func TestContainerAccessCascadesToContainersActive(t *testing.T) {
	bus := event.NewBus()
	reg := property.NewRegistry()
	pool := eid.NewPool()

	root := newTestEntity(bus, reg, pool)
	graph := entity.NewGraph(bus, root)

	chest := newTestEntity(bus, reg, pool)
	if err := graph.AddEntity(chest, root, entity.Location{}); err != nil {
		t.Fatalf("add chest: %v", err)
	}
	chestDomain := NewContainer(chest, bus, nil)
	chest.SetDomain(chestDomain)

	observer := newTestEntity(bus, reg, pool)
	if err := graph.AddEntity(observer, root, entity.Location{}); err != nil {
		t.Fatalf("add observer: %v", err)
	}

	grantAccess(t, chest, []eid.ID{observer.ID()})

	active, ok := observer.Property(PropContainersActive)
	if !ok {
		t.Fatal("expected ContainersActive installed on observer after grant")
	}
	activeProp := active.(*property.ContainersActiveProperty)
	if len(activeProp.Value) != 1 || activeProp.Value[0] != chest.ID() {
		t.Fatalf("want observer's containers_active = [chest], got %v", activeProp.Value)
	}

	grantAccess(t, chest, nil)
	if len(activeProp.Value) != 0 {
		t.Fatalf("want containers_active emptied after revoke, got %v", activeProp.Value)
	}
}

// TestNestedContainerAccessIsIndependent checks that a container nested
// inside another tracks its own access list: losing access to the outer
// container does not implicitly grant or revoke access to contents the
// observer was separately granted access to in an inner container, and
// vice versa.
func TestNestedContainerAccessIsIndependent(t *testing.T) {
	bus := event.NewBus()
	reg := property.NewRegistry()
	pool := eid.NewPool()

	root := newTestEntity(bus, reg, pool)
	graph := entity.NewGraph(bus, root)

	outer := newTestEntity(bus, reg, pool)
	if err := graph.AddEntity(outer, root, entity.Location{}); err != nil {
		t.Fatalf("add outer: %v", err)
	}
	outerDomain := NewContainer(outer, bus, nil)
	outer.SetDomain(outerDomain)

	inner := newTestEntity(bus, reg, pool)
	if err := graph.AddEntity(inner, outer, entity.Location{}); err != nil {
		t.Fatalf("add inner: %v", err)
	}
	outerDomain.AddEntity(inner)
	innerDomain := NewContainer(inner, bus, nil)
	inner.SetDomain(innerDomain)

	content := newTestEntity(bus, reg, pool)
	if err := graph.AddEntity(content, inner, entity.Location{}); err != nil {
		t.Fatalf("add content: %v", err)
	}
	innerDomain.AddEntity(content)

	observer := newTestEntity(bus, reg, pool)
	if err := graph.AddEntity(observer, root, entity.Location{}); err != nil {
		t.Fatalf("add observer: %v", err)
	}

	grantAccess(t, outer, []eid.ID{observer.ID()})
	grantAccess(t, inner, []eid.ID{observer.ID()})

	if !innerDomain.IsVisibleFor(observer, content) {
		t.Fatal("observer should see inner's content once granted access to inner")
	}

	// Revoking the outer container's access must not sever the
	// independently-granted inner access.
	grantAccess(t, outer, nil)

	if !innerDomain.IsVisibleFor(observer, content) {
		t.Fatal("revoking outer access must not implicitly revoke separately granted inner access")
	}
	if innerDomain.CanReach(observer, entity.Location{}, 0) != true {
		t.Fatal("observer should still be able to reach into inner container's contents")
	}

	// Now revoke the inner grant directly: that severs inner access, and
	// outer access was already gone, so the observer has neither.
	grantAccess(t, inner, nil)
	if innerDomain.IsVisibleFor(observer, content) {
		t.Fatal("revoking inner access must remove visibility into inner's contents")
	}
	if outerDomain.IsVisibleFor(observer, inner) {
		t.Fatal("observer should no longer see the outer container's own contents either")
	}
}
