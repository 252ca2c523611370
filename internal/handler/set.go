package handler

import (
	"github.com/worldforge-go/simcore/internal/eid"
	"github.com/worldforge-go/simcore/internal/geom"
	"github.com/worldforge-go/simcore/internal/op"
	"github.com/worldforge-go/simcore/internal/property"
	"github.com/worldforge-go/simcore/internal/router"
	"github.com/worldforge-go/simcore/internal/world"
)

// handleSet implements the Set row: `to` is the entity whose attributes
// change; each arg map is a name/value pair applied via SetProperty, which
// clears persistence_clean and bumps seq as a side effect.
func handleSet(w *world.World, reg *property.Registry) router.HandlerFunc {
	return func(o op.Op) (op.Vector, router.Result) {
		target, ok := w.Graph.GetEntity(o.To)
		if !ok {
			return op.Vector{op.Unseen(o, o.From, o.To)}, router.Blocked
		}
		for _, a := range o.Args {
			m, ok := a.(map[string]any)
			if !ok {
				continue
			}
			for name, v := range m {
				if name == "id" {
					continue
				}
				if err := target.SetProperty(reg, name, v, guessKind(v)); err != nil {
					return op.Vector{op.ClientError(o, o.From, err.Error())}, router.Blocked
				}
			}
		}
		return nil, router.Handled
	}
}

func guessKind(v any) property.Kind {
	switch v.(type) {
	case string:
		return property.KindString
	case []any:
		return property.KindList
	case map[string]any:
		return property.KindMap
	case geom.Vector3:
		return property.KindVector3
	case geom.Quaternion:
		return property.KindQuaternion
	case geom.AxisBox3:
		return property.KindBBox
	case eid.ID:
		return property.KindEntityRef
	default:
		return property.KindNumber
	}
}
