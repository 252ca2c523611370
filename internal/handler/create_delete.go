package handler

import (
	"github.com/worldforge-go/simcore/internal/entity"
	"github.com/worldforge-go/simcore/internal/op"
	"github.com/worldforge-go/simcore/internal/property"
	"github.com/worldforge-go/simcore/internal/router"
	"github.com/worldforge-go/simcore/internal/world"
)

// TypeLookup resolves a type name to its TypeInfo, the same contract
// persist.Restore uses — handleCreate needs it to build a new entity of
// the requested type.
type TypeLookup func(typeName string) *entity.TypeInfo

// handleCreate implements the Create row: the new entity is constructed via
// EntityBuilder and inserted into parent via World, which sets the parent
// pointer, applies type defaults, emits Appearance to observers, and fires
// persistence insertion. `to` is the new entity's parent; the first arg
// names the type and any initial attribute values.
func handleCreate(w *world.World, reg *property.Registry, typeLookup TypeLookup) router.HandlerFunc {
	return func(o op.Op) (op.Vector, router.Result) {
		parent, ok := w.Graph.GetEntity(o.To)
		if !ok {
			return op.Vector{op.Unseen(o, o.From, o.To)}, router.Blocked
		}

		spec, ok := firstMapArg(o)
		if !ok {
			return op.Vector{op.ClientError(o, o.From, "Create requires a type and attributes")}, router.Blocked
		}
		typeName, _ := spec["type"].(string)
		if typeName == "" {
			return op.Vector{op.ClientError(o, o.From, "Create requires a type")}, router.Blocked
		}
		t := typeLookup(typeName)
		if t == nil {
			// The named type may simply not be loaded yet (e.g. a ruleset
			// reload still in flight) — park this op rather than failing it
			// outright, and let ResolveType redeliver it once the type
			// registers.
			parked := o
			parked.UnresolvedType = typeName
			return op.Vector{parked}, router.WillRedispatch
		}

		child := w.Builder.New(t, nil)
		for name, v := range spec {
			switch name {
			case "id", "type", "parent":
				continue
			}
			if err := child.SetProperty(reg, name, v, guessKind(v)); err != nil {
				return op.Vector{op.ClientError(o, o.From, err.Error())}, router.Blocked
			}
		}

		if err := w.Insert(child, parent, entity.Location{}); err != nil {
			return op.Vector{op.ClientError(o, o.From, err.Error())}, router.Blocked
		}

		reply := op.New(op.ClassCreate, child.ID(), o.From).Arg(map[string]any{"id": child.ID()})
		reply.RefNo = o.SerialNo
		return append(broadcastOp(w, parent, child.ID(), o), reply), router.Handled
	}
}

// handleDelete implements the Delete row: the entity is unlinked from its
// parent, its children are recursively destroyed, Disappearance is emitted
// to observers, and the entity is flagged destroyed. `to` names the entity
// to remove; RemoveEntity recursively destroys its children.
func handleDelete(w *world.World) router.HandlerFunc {
	return func(o op.Op) (op.Vector, router.Result) {
		target, ok := w.Graph.GetEntity(o.To)
		if !ok {
			return op.Vector{op.Unseen(o, o.From, o.To)}, router.Blocked
		}
		parent := target.Parent()
		if err := w.Graph.RemoveEntity(target.ID()); err != nil {
			return op.Vector{op.ClientError(o, o.From, err.Error())}, router.Blocked
		}
		return broadcastOp(w, parent, target.ID(), o), router.Handled
	}
}
