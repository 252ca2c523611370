package handler

import (
	"github.com/worldforge-go/simcore/internal/geom"
	"github.com/worldforge-go/simcore/internal/op"
	"github.com/worldforge-go/simcore/internal/router"
	"github.com/worldforge-go/simcore/internal/world"
)

// handleMove implements the Move row: `to` names the entity's new parent,
// the first arg names the moved entity, and optional pos/orientation args
// reposition it within that parent.
func handleMove(w *world.World) router.HandlerFunc {
	return func(o op.Op) (op.Vector, router.Result) {
		target, _, ok, result, reply := resolveTarget(w.Graph, o)
		if !ok {
			return reply, result
		}
		newParent, ok := w.Graph.GetEntity(o.To)
		if !ok {
			return op.Vector{op.Unseen(o, o.From, o.To)}, router.Blocked
		}

		pos := target.Location().Position
		orient := target.Location().Orientation
		for _, a := range o.Args {
			m, ok := a.(map[string]any)
			if !ok {
				continue
			}
			if v, ok := m["pos"].(geom.Vector3); ok {
				pos = v
			}
			if v, ok := m["orientation"].(geom.Quaternion); ok {
				orient = v
			}
		}

		if err := w.Graph.SetLocation(target, newParent, pos, orient); err != nil {
			return op.Vector{op.ClientError(o, o.From, err.Error())}, router.Blocked
		}
		return nil, router.Handled
	}
}
