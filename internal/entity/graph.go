package entity

import (
	"fmt"

	"github.com/worldforge-go/simcore/internal/core/event"
	"github.com/worldforge-go/simcore/internal/eid"
	"github.com/worldforge-go/simcore/internal/geom"
)

// Graph owns the id->Entity registry and the forest of entities rooted at
// World.
//
// Appearance/Disappearance emission is the Domain's responsibility, not
// the Graph's: AddEntity/RemoveEntity/ProcessVisibilityForMovedEntity on a
// Domain are expected to compute and emit their own visibility deltas as
// entities enter or leave it. The Graph only drives graph topology and the
// Inserted/Moved/BeingDeleted/Containered signals.
type Graph struct {
	bus      *event.Bus
	entities map[eid.ID]*Entity
	root     *Entity
}

func NewGraph(bus *event.Bus, root *Entity) *Graph {
	g := &Graph{bus: bus, entities: make(map[eid.ID]*Entity)}
	root.graph = g
	g.entities[root.ID()] = root
	g.root = root
	return g
}

func (g *Graph) Root() *Entity { return g.root }

func (g *Graph) GetEntity(id eid.ID) (*Entity, bool) {
	e, ok := g.entities[id]
	return e, ok
}

func (g *Graph) notifyChanged(e *Entity, propName string) {
	event.Emit(g.bus, event.Changed{Entity: e.ID(), Property: propName})
	event.Emit(g.bus, event.Updated{Entity: e.ID()})
}

// AddEntity connects a freshly-built, detached entity under parent; a
// re-parent of an already-linked entity goes through SetLocation instead.
// It registers the entity, links parent/child, and hands it to the
// parent's Domain (if any), which emits its own Appearance deltas.
func (g *Graph) AddEntity(child *Entity, parent *Entity, loc Location) error {
	if child.parent != nil {
		return fmt.Errorf("entity graph: %s already has a parent, use SetLocation", child.ID())
	}
	child.graph = g
	child.parent = parent
	child.loc = loc
	parent.children = append(parent.children, child)
	g.entities[child.ID()] = child

	if parent.domain != nil {
		child.SetDomain(nil)
		parent.domain.AddEntity(child)
	}

	event.Emit(g.bus, event.Inserted{Entity: child.ID()})
	return nil
}

// RemoveEntity recursively removes any non-destroyed children first, then
// unlinks the entity from its parent and flags it destroyed — it stays
// resolvable by id so a handler that only just dispatched an op to it
// still observes a terminal, never a dangling, reference. Call Reap once
// the entity no longer needs to resolve (persistence's `destroyed` queue
// does this after the row drop is durable).
func (g *Graph) RemoveEntity(id eid.ID) error {
	e, ok := g.entities[id]
	if !ok {
		return nil
	}
	if e.Destroyed() {
		return nil
	}

	// Recursively remove children first.
	for _, child := range append([]*Entity(nil), e.children...) {
		_ = g.RemoveEntity(child.ID())
	}

	event.Emit(g.bus, event.BeingDeleted{Entity: e.ID()})

	if e.parent != nil && e.parent.domain != nil {
		e.parent.domain.RemoveEntity(e)
	}
	if e.parent != nil {
		e.parent.children = removeChild(e.parent.children, e)
	}
	e.flags |= FlagDestroyed
	return nil
}

// Reap permanently removes a destroyed entity from the id registry. It is
// a no-op on a non-destroyed entity.
func (g *Graph) Reap(id eid.ID) {
	if e, ok := g.entities[id]; ok && e.Destroyed() {
		delete(g.entities, id)
	}
}

// AttachRestored links a bare entity (built via Builder.NewBare) under
// parent during persistence restore's tree-building pass, registering it
// in the id map but skipping domain registration and signal emission —
// both are deferred to the later properties pass, once the entity's
// parent Domain (if any) is available to register it with.
func (g *Graph) AttachRestored(child *Entity, parent *Entity, loc Location) {
	child.graph = g
	child.parent = parent
	child.loc = loc
	parent.children = append(parent.children, child)
	g.entities[child.ID()] = child
}

func removeChild(children []*Entity, target *Entity) []*Entity {
	out := children[:0]
	for _, c := range children {
		if c != target {
			out = append(out, c)
		}
	}
	return out
}

// SetLocation re-parents (or repositions within the same parent) an
// existing entity. Re-parenting across Domains triggers a
// Disappearance from the old domain and an Appearance in the new one
// (both emitted by the respective Domain); staying under the same parent
// just re-evaluates visibility for the move.
func (g *Graph) SetLocation(child *Entity, newParent *Entity, pos geom.Point3, orient geom.Quaternion) error {
	if child.Destroyed() {
		return fmt.Errorf("entity graph: cannot move destroyed entity %s", child.ID())
	}
	oldParent := child.parent
	oldPos := child.loc.Position

	if oldParent == newParent {
		child.loc.Position = pos
		child.loc.Orientation = orient
		event.Emit(g.bus, event.Moved{Entity: child.ID(), OldPos: oldPos, NewPos: pos})
		if newParent != nil && newParent.domain != nil {
			newParent.domain.ProcessVisibilityForMovedEntity(child, oldPos)
		}
		return nil
	}

	// Cross-parent move: leave the old domain (it emits Disappearance),
	// then join the new one (it emits Appearance).
	if oldParent != nil && oldParent.domain != nil {
		oldParent.domain.RemoveEntity(child)
	}
	if oldParent != nil {
		oldParent.children = removeChild(oldParent.children, child)
	}

	child.parent = newParent
	child.loc.Position = pos
	child.loc.Orientation = orient
	if newParent != nil {
		newParent.children = append(newParent.children, child)
	}

	if newParent != nil && newParent.domain != nil {
		newParent.domain.AddEntity(child)
	}
	event.Emit(g.bus, event.Containered{Entity: child.ID(), NewParent: idOf(newParent)})
	event.Emit(g.bus, event.Moved{Entity: child.ID(), OldPos: oldPos, NewPos: pos})
	return nil
}

func idOf(e *Entity) eid.ID {
	if e == nil {
		return eid.Zero
	}
	return e.ID()
}

// PathToRoot returns the chain of parent pointers from e up to the graph
// root, confirming a path actually exists rather than assuming one.
func (g *Graph) PathToRoot(e *Entity) ([]*Entity, bool) {
	path := []*Entity{e}
	cur := e
	for cur != g.root {
		if cur.parent == nil {
			return nil, false
		}
		cur = cur.parent
		path = append(path, cur)
	}
	return path, true
}
