package domain

import (
	"time"

	"github.com/worldforge-go/simcore/internal/core/event"
	"github.com/worldforge-go/simcore/internal/eid"
	"github.com/worldforge-go/simcore/internal/entity"
	"github.com/worldforge-go/simcore/internal/geom"
	"github.com/worldforge-go/simcore/internal/op"
)

// Physical is the default Domain: children are placed in 3D space under a
// shared coordinate frame, visibility is an AABB-radius test evaluated
// against every sibling (a cell-based grid index is kept up to date but is
// not queried for candidates), and reach is a radius test from the
// observer's own position.
type Physical struct {
	owner *entity.Entity
	bus   *event.Bus
	emit  Emitter
	grid  *grid

	// visible[observer][target] records the last-evaluated visibility
	// verdict so moves/adds/removes can diff and emit only deltas.
	visible map[eid.ID]map[eid.ID]struct{}
}

// NewPhysical constructs a Physical domain for owner. bus is used for the
// intra-process Appearance/Disappearance signals; emit pushes the
// matching wire operations (nil emit is valid for tests — wire ops are
// simply dropped).
func NewPhysical(owner *entity.Entity, bus *event.Bus, emit Emitter) *Physical {
	return &Physical{
		owner:   owner,
		bus:     bus,
		emit:    emit,
		grid:    newGrid(32.0),
		visible: make(map[eid.ID]map[eid.ID]struct{}),
	}
}

func (p *Physical) visibilityDistance(e *entity.Entity) float64 {
	return floatProp(e, PropVisibilityDistance, DefaultVisibilityDistance)
}

// IsVisibleFor reports target as visible to observer if the distance
// between their world-space bbox centers is within the smaller of
// observer's and target's visibility distance, plus both bbox radii.
func (p *Physical) IsVisibleFor(observer, target *entity.Entity) bool {
	if observer == nil || target == nil || observer == target {
		return false
	}
	obox := observer.Location().WorldBBox()
	tbox := target.Location().WorldBBox()
	dist := geom.Vector3{
		X: obox.Center().X - tbox.Center().X,
		Y: obox.Center().Y - tbox.Center().Y,
		Z: obox.Center().Z - tbox.Center().Z,
	}.Mag()

	limit := p.visibilityDistance(observer)
	if tl := p.visibilityDistance(target); tl < limit {
		limit = tl
	}
	limit += obox.Radius() + tbox.Radius()
	return dist <= limit
}

// CanReach reports a candidate location as reachable from observer if
// within observer's reach plus extraRadius.
func (p *Physical) CanReach(observer *entity.Entity, targetLoc entity.Location, extraRadius float64) bool {
	if observer == nil {
		return false
	}
	obox := observer.Location().WorldBBox()
	tbox := targetLoc.WorldBBox()
	dist := geom.Vector3{
		X: obox.Center().X - tbox.Center().X,
		Y: obox.Center().Y - tbox.Center().Y,
		Z: obox.Center().Z - tbox.Center().Z,
	}.Mag()
	reach := floatProp(observer, PropReach, 1.0)
	return dist <= reach+extraRadius+obox.Radius()
}

func (p *Physical) markVisible(observer, target eid.ID) bool {
	set, ok := p.visible[observer]
	if !ok {
		set = make(map[eid.ID]struct{})
		p.visible[observer] = set
	}
	_, already := set[target]
	set[target] = struct{}{}
	return !already
}

func (p *Physical) unmarkVisible(observer, target eid.ID) bool {
	set, ok := p.visible[observer]
	if !ok {
		return false
	}
	_, was := set[target]
	delete(set, target)
	return was
}

func (p *Physical) emitAppearance(observer, target eid.ID) {
	if p.markVisible(observer, target) {
		event.Emit(p.bus, event.Appearance{Observer: observer, Target: target})
		if p.emit != nil {
			p.emit.Enqueue(op.New(op.ClassAppearance, target, observer))
		}
	}
}

func (p *Physical) emitDisappearance(observer, target eid.ID) {
	if p.unmarkVisible(observer, target) {
		event.Emit(p.bus, event.Disappearance{Observer: observer, Target: target})
		if p.emit != nil {
			p.emit.Enqueue(op.New(op.ClassDisappearance, target, observer))
		}
	}
}

// revalidatePair re-evaluates visibility of b to a and of a to b, emitting
// Appearance/Disappearance for whichever direction changed.
func (p *Physical) revalidatePair(a, b *entity.Entity) {
	if p.IsVisibleFor(a, b) {
		p.emitAppearance(a.ID(), b.ID())
	} else {
		p.emitDisappearance(a.ID(), b.ID())
	}
	if p.IsVisibleFor(b, a) {
		p.emitAppearance(b.ID(), a.ID())
	} else {
		p.emitDisappearance(b.ID(), a.ID())
	}
}

// AddEntity implements entity.Domain: child has just been linked under the
// owning entity. It is added to the spatial grid and visibility is
// evaluated against every existing sibling ("child just
// entered").
func (p *Physical) AddEntity(child *entity.Entity) {
	child.SetDomain(p)
	p.grid.Add(child.ID(), child.Location().Position)
	for _, sib := range p.owner.Children() {
		if sib == child || sib.Destroyed() {
			continue
		}
		p.revalidatePair(child, sib)
	}
}

// RemoveEntity implements entity.Domain: child is about to be unlinked.
// Every observer that currently sees it gets an explicit Disappearance
// before the entity leaves the grid ("child just left").
func (p *Physical) RemoveEntity(child *entity.Entity) {
	for observer, targets := range p.visible {
		if _, ok := targets[child.ID()]; ok {
			p.emitDisappearance(observer, child.ID())
		}
	}
	for _, sib := range p.owner.Children() {
		if sib == child {
			continue
		}
		p.emitDisappearance(sib.ID(), child.ID())
	}
	delete(p.visible, child.ID())
	p.grid.Remove(child.ID(), child.Location().Position)
}

// ProcessVisibilityForMovedEntity implements entity.Domain: e moved within
// this domain from oldPos; the grid index is updated and visibility is
// re-diffed against every other child of the domain's owner ("process
// visibility for a moved entity").
func (p *Physical) ProcessVisibilityForMovedEntity(e *entity.Entity, oldPos geom.Vector3) {
	p.grid.Move(e.ID(), oldPos, e.Location().Position)
	for _, sib := range p.owner.Children() {
		if sib == e || sib.Destroyed() {
			continue
		}
		p.revalidatePair(e, sib)
	}
}

// Tick implements entity.Domain; Physical carries no periodic work of its
// own — visibility is maintained incrementally by AddEntity/RemoveEntity/
// ProcessVisibilityForMovedEntity.
func (p *Physical) Tick(now time.Time) {}

// GetVisibleEntitiesFor implements entity.Domain: the set of children
// currently visible to observer, per the last-evaluated diff state.
func (p *Physical) GetVisibleEntitiesFor(observer *entity.Entity, out *[]*entity.Entity) {
	set := p.visible[observer.ID()]
	for _, sib := range p.owner.Children() {
		if _, ok := set[sib.ID()]; ok {
			*out = append(*out, sib)
		}
	}
}
