package domain

import (
	"time"

	"github.com/worldforge-go/simcore/internal/core/event"
	"github.com/worldforge-go/simcore/internal/eid"
	"github.com/worldforge-go/simcore/internal/entity"
	"github.com/worldforge-go/simcore/internal/geom"
	"github.com/worldforge-go/simcore/internal/op"
	"github.com/worldforge-go/simcore/internal/property"
)

// Container is the Domain used by entities that hold contents reachable
// only by an explicit access list: visibility and reach are gated by
// ContainerAccessProperty rather than distance. Granting access cascades:
// the observer's ContainersActiveProperty gets the container's id
// appended so the inverse can be queried cheaply.
type Container struct {
	owner *entity.Entity
	bus   *event.Bus
	emit  Emitter

	// visible[observer] is the set of contents currently exposed to that
	// observer — every content whenever the observer holds access, empty
	// otherwise.
	visible map[eid.ID]map[eid.ID]struct{}
}

func NewContainer(owner *entity.Entity, bus *event.Bus, emit Emitter) *Container {
	c := &Container{owner: owner, bus: bus, emit: emit, visible: make(map[eid.ID]map[eid.ID]struct{})}
	c.wireAccessHook()
	return c
}

// wireAccessHook installs the ContainerAccessProperty.OnChange callback
// that cascades into every observer's ContainersActiveProperty and
// re-evaluates visibility for all current contents.
func (c *Container) wireAccessHook() {
	accessProp, ok := c.owner.Property(PropContainerAccess)
	if !ok {
		accessProp = property.NewContainerAccess()
		c.owner.InstallProperty(PropContainerAccess, accessProp)
	}
	ca, ok := accessProp.(*property.ContainerAccessProperty)
	if !ok {
		return
	}
	ca.OnChange = func(_ property.Owner, old, newList []eid.ID) {
		removed := diffIDs(old, newList)
		added := diffIDs(newList, old)
		for _, obsID := range removed {
			c.setCascade(obsID, false)
			c.revalidateObserverByID(obsID)
		}
		for _, obsID := range added {
			c.setCascade(obsID, true)
			c.revalidateObserverByID(obsID)
		}
	}
}

func diffIDs(from, minus []eid.ID) []eid.ID {
	present := make(map[eid.ID]struct{}, len(minus))
	for _, id := range minus {
		present[id] = struct{}{}
	}
	var out []eid.ID
	for _, id := range from {
		if _, ok := present[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}

func (c *Container) setCascade(observerID eid.ID, active bool) {
	if c.owner.Graph() == nil {
		return
	}
	obs, ok := c.owner.Graph().GetEntity(observerID)
	if !ok {
		return
	}
	ap, ok := obs.Property(PropContainersActive)
	if !ok {
		ap = property.NewContainersActive()
		obs.InstallProperty(PropContainersActive, ap)
	}
	activeProp, ok := ap.(*property.ContainersActiveProperty)
	if !ok {
		return
	}
	if active {
		activeProp.Add(c.owner.ID())
	} else {
		activeProp.Remove2(c.owner.ID())
	}
}

func (c *Container) hasAccess(observerID eid.ID) bool {
	accessProp, ok := c.owner.Property(PropContainerAccess)
	if !ok {
		return false
	}
	ca, ok := accessProp.(*property.ContainerAccessProperty)
	if !ok {
		return false
	}
	for _, id := range ca.Value {
		if id == observerID {
			return true
		}
	}
	return false
}

func (c *Container) revalidateObserverByID(observerID eid.ID) {
	if c.owner.Graph() == nil {
		return
	}
	obs, ok := c.owner.Graph().GetEntity(observerID)
	if !ok {
		return
	}
	c.revalidateObserver(obs)
}

func (c *Container) revalidateObserver(observer *entity.Entity) {
	granted := c.hasAccess(observer.ID())
	for _, content := range c.owner.Children() {
		if granted {
			c.emitAppearance(observer.ID(), content.ID())
		} else {
			c.emitDisappearance(observer.ID(), content.ID())
		}
	}
}

func (c *Container) emitAppearance(observer, target eid.ID) {
	set, ok := c.visible[observer]
	if !ok {
		set = make(map[eid.ID]struct{})
		c.visible[observer] = set
	}
	if _, already := set[target]; already {
		return
	}
	set[target] = struct{}{}
	event.Emit(c.bus, event.Appearance{Observer: observer, Target: target})
	if c.emit != nil {
		c.emit.Enqueue(op.New(op.ClassAppearance, target, observer))
	}
}

func (c *Container) emitDisappearance(observer, target eid.ID) {
	set, ok := c.visible[observer]
	if !ok {
		return
	}
	if _, was := set[target]; !was {
		return
	}
	delete(set, target)
	event.Emit(c.bus, event.Disappearance{Observer: observer, Target: target})
	if c.emit != nil {
		c.emit.Enqueue(op.New(op.ClassDisappearance, target, observer))
	}
}

// IsVisibleFor implements entity.Domain: content is visible only to
// observers present in the container's access list.
func (c *Container) IsVisibleFor(observer, target *entity.Entity) bool {
	if observer == nil || target == nil {
		return false
	}
	return c.hasAccess(observer.ID())
}

// CanReach implements entity.Domain: reach tracks visibility exactly for a
// Container — if you can see into it, you can manipulate its contents.
func (c *Container) CanReach(observer *entity.Entity, _ entity.Location, _ float64) bool {
	if observer == nil {
		return false
	}
	return c.hasAccess(observer.ID())
}

// AddEntity implements entity.Domain: the new content is exposed to every
// observer that already holds access.
func (c *Container) AddEntity(child *entity.Entity) {
	child.SetDomain(c)
	accessProp, ok := c.owner.Property(PropContainerAccess)
	if !ok {
		return
	}
	ca, ok := accessProp.(*property.ContainerAccessProperty)
	if !ok {
		return
	}
	for _, obsID := range ca.Value {
		c.emitAppearance(obsID, child.ID())
	}
}

// RemoveEntity implements entity.Domain: every observer currently seeing
// the content gets a Disappearance before it leaves the container.
func (c *Container) RemoveEntity(child *entity.Entity) {
	for observer, targets := range c.visible {
		if _, ok := targets[child.ID()]; ok {
			c.emitDisappearance(observer, child.ID())
		}
	}
	delete(c.visible, child.ID())
}

// ProcessVisibilityForMovedEntity implements entity.Domain; position is
// irrelevant inside a Container, so moves never change visibility.
func (c *Container) ProcessVisibilityForMovedEntity(*entity.Entity, geom.Vector3) {}

// Tick implements entity.Domain; Container carries no periodic work.
func (c *Container) Tick(time.Time) {}

// GetVisibleEntitiesFor implements entity.Domain.
func (c *Container) GetVisibleEntitiesFor(observer *entity.Entity, out *[]*entity.Entity) {
	if !c.hasAccess(observer.ID()) {
		return
	}
	*out = append(*out, c.owner.Children()...)
}
