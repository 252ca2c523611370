package domain

import (
	"time"

	"github.com/worldforge-go/simcore/internal/core/event"
	"github.com/worldforge-go/simcore/internal/eid"
	"github.com/worldforge-go/simcore/internal/entity"
	"github.com/worldforge-go/simcore/internal/geom"
	"github.com/worldforge-go/simcore/internal/op"
)

// Inventory is the Domain used by a character's own carried/worn contents
// ("Inventory": "visible to anyone who can see the owning
// character; reachable only by the owning character itself"). Unlike
// Container, there is no access list to manage — visibility of an item
// piggybacks on whoever can currently see the owner, evaluated through the
// owner's own (typically Physical) domain.
type Inventory struct {
	owner  *entity.Entity
	bus    *event.Bus
	emit   Emitter
	parentDomain entity.Domain // the domain that governs visibility of owner itself

	visible map[eid.ID]map[eid.ID]struct{}
}

func NewInventory(owner *entity.Entity, bus *event.Bus, emit Emitter) *Inventory {
	return &Inventory{owner: owner, bus: bus, emit: emit, visible: make(map[eid.ID]map[eid.ID]struct{})}
}

// observers returns the set of entities that can currently see the
// inventory's owner — those are exactly the entities who should also see
// the owner's carried contents.
func (inv *Inventory) observers() []*entity.Entity {
	var out []*entity.Entity
	if inv.owner.Parent() == nil {
		return out
	}
	parentDomain := inv.owner.Parent().Domain()
	if parentDomain == nil {
		return out
	}
	parentDomain.GetVisibleEntitiesFor(inv.owner, &out)
	return out
}

func (inv *Inventory) emitAppearance(observer, target eid.ID) {
	set, ok := inv.visible[observer]
	if !ok {
		set = make(map[eid.ID]struct{})
		inv.visible[observer] = set
	}
	if _, already := set[target]; already {
		return
	}
	set[target] = struct{}{}
	event.Emit(inv.bus, event.Appearance{Observer: observer, Target: target})
	if inv.emit != nil {
		inv.emit.Enqueue(op.New(op.ClassAppearance, target, observer))
	}
}

func (inv *Inventory) emitDisappearance(observer, target eid.ID) {
	set, ok := inv.visible[observer]
	if !ok {
		return
	}
	if _, was := set[target]; !was {
		return
	}
	delete(set, target)
	event.Emit(inv.bus, event.Disappearance{Observer: observer, Target: target})
	if inv.emit != nil {
		inv.emit.Enqueue(op.New(op.ClassDisappearance, target, observer))
	}
}

// IsVisibleFor implements entity.Domain: an item is visible to observer
// only if observer is the owner itself, or observer can see the owner.
func (inv *Inventory) IsVisibleFor(observer, target *entity.Entity) bool {
	if observer == nil || target == nil {
		return false
	}
	if observer == inv.owner {
		return true
	}
	for _, o := range inv.observers() {
		if o.ID() == observer.ID() {
			return true
		}
	}
	return false
}

// CanReach implements entity.Domain: only the owning character can
// manipulate its own carried contents directly.
func (inv *Inventory) CanReach(observer *entity.Entity, _ entity.Location, _ float64) bool {
	return observer != nil && observer.ID() == inv.owner.ID()
}

// AddEntity implements entity.Domain: the new item is exposed to the owner
// and to everyone currently able to see the owner.
func (inv *Inventory) AddEntity(child *entity.Entity) {
	child.SetDomain(inv)
	inv.emitAppearance(inv.owner.ID(), child.ID())
	for _, o := range inv.observers() {
		inv.emitAppearance(o.ID(), child.ID())
	}
}

// RemoveEntity implements entity.Domain: every current observer of the
// item gets a Disappearance before it is unlinked.
func (inv *Inventory) RemoveEntity(child *entity.Entity) {
	for observer, targets := range inv.visible {
		if _, ok := targets[child.ID()]; ok {
			inv.emitDisappearance(observer, child.ID())
		}
	}
	delete(inv.visible, child.ID())
}

// ProcessVisibilityForMovedEntity implements entity.Domain; an item's
// position is irrelevant while carried, so moves are a no-op here — the
// owner's own domain re-diffs visibility when the owner itself moves, and
// RevalidateObservers should be called by the world tick to keep carried
// items in sync with the owner's moving audience.
func (inv *Inventory) ProcessVisibilityForMovedEntity(*entity.Entity, geom.Vector3) {}

// RevalidateObservers re-diffs every carried item against the owner's
// current observer set. The world tick calls this after the owner's own
// Physical.Tick/ProcessVisibilityForMovedEntity has settled, so carried
// items track the owner's audience one tick later rather than drifting.
func (inv *Inventory) RevalidateObservers() {
	current := inv.observers()
	seen := make(map[eid.ID]struct{}, len(current)+1)
	seen[inv.owner.ID()] = struct{}{}
	for _, o := range current {
		seen[o.ID()] = struct{}{}
	}
	for _, item := range inv.owner.Children() {
		for observerID := range seen {
			inv.emitAppearance(observerID, item.ID())
		}
		for observerID, targets := range inv.visible {
			if _, stillWatching := seen[observerID]; stillWatching {
				continue
			}
			if _, was := targets[item.ID()]; was {
				inv.emitDisappearance(observerID, item.ID())
			}
		}
	}
}

// Tick implements entity.Domain.
func (inv *Inventory) Tick(time.Time) { inv.RevalidateObservers() }

// GetVisibleEntitiesFor implements entity.Domain.
func (inv *Inventory) GetVisibleEntitiesFor(observer *entity.Entity, out *[]*entity.Entity) {
	if observer == nil {
		return
	}
	if !inv.IsVisibleFor(observer, inv.owner) && observer.ID() != inv.owner.ID() {
		return
	}
	*out = append(*out, inv.owner.Children()...)
}
