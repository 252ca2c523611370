package handler

import (
	"github.com/worldforge-go/simcore/internal/entity"
	"github.com/worldforge-go/simcore/internal/op"
	"github.com/worldforge-go/simcore/internal/router"
	"github.com/worldforge-go/simcore/internal/world"
)

// handleLook implements the Look row: reply with a Sight of the looked-at
// entity, addressed back to the looker. The mind↔body filter has already
// resolved `to` down to the parent or the first arg's id.
func handleLook(w *world.World) router.HandlerFunc {
	return func(o op.Op) (op.Vector, router.Result) {
		target, ok := w.Graph.GetEntity(o.To)
		if !ok {
			return op.Vector{op.Unseen(o, o.From, o.To)}, router.Blocked
		}
		if target.Parent() != nil && target.Parent().Domain() != nil {
			looker, ok := w.Graph.GetEntity(o.From)
			if ok && !target.Parent().Domain().IsVisibleFor(looker, target) {
				return op.Vector{op.Unseen(o, o.To, target.ID())}, router.Blocked
			}
		}
		reply := op.New(op.ClassSight, o.To, o.From).Arg(snapshotRef(target))
		reply.RefNo = o.SerialNo
		return op.Vector{reply}, router.Handled
	}
}

// snapshotRef renders target as the wire entity-reference form: an object
// with id and a subset of pos, orientation, velocity, bbox, scale, name,
// and parent.
func snapshotRef(target *entity.Entity) map[string]any {
	loc := target.Location()
	ref := map[string]any{
		"id":          target.ID(),
		"pos":         loc.Position,
		"orientation": loc.Orientation,
		"velocity":    loc.Velocity,
		"bbox":        loc.BBox,
		"scale":       loc.Scale,
	}
	if target.TypeInfo() != nil {
		ref["name"] = target.TypeInfo().Name
	}
	if target.Parent() != nil {
		ref["parent"] = target.Parent().ID()
	}
	return ref
}
