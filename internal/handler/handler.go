// Package handler installs the class-wide default operation handlers
// against a World's Router — the fallback consulted when neither an op's
// from- nor to-entity type has its own registered handler. Every handler
// here performs the actual entity-graph/property mutation an operation
// names; the mind↔body filter (package mindbody) has already validated and
// sanitized the operation by the time it reaches one of these.
package handler

import (
	"github.com/worldforge-go/simcore/internal/eid"
	"github.com/worldforge-go/simcore/internal/entity"
	"github.com/worldforge-go/simcore/internal/op"
	"github.com/worldforge-go/simcore/internal/property"
	"github.com/worldforge-go/simcore/internal/router"
	"github.com/worldforge-go/simcore/internal/world"
)

// Register installs every default handler this package provides onto w's
// router. Call once at world construction time, before the first Tick.
// typeLookup resolves the type names Create operations name, per the
// ruleset loaded for this world.
func Register(w *world.World, reg *property.Registry, typeLookup TypeLookup) {
	w.Router.RegisterTo("", op.ClassMove, handleMove(w))
	w.Router.RegisterTo("", op.ClassSet, handleSet(w, reg))
	w.Router.RegisterTo("", op.ClassCreate, handleCreate(w, reg, typeLookup))
	w.Router.RegisterTo("", op.ClassDelete, handleDelete(w))
	w.Router.RegisterTo("", op.ClassTouch, handleSwallowed())
	w.Router.RegisterTo("", op.ClassUse, handleUse())
	w.Router.RegisterTo("", op.ClassLook, handleLook(w))
	w.Router.RegisterTo("", op.ClassSight, handleSight(w))

	broadcast := handleBroadcast(w)
	for _, class := range []op.Class{
		op.ClassWield, op.ClassTalk, op.ClassImaginary,
		op.ClassThought, op.ClassThink, op.ClassGoalInfo,
	} {
		w.Router.RegisterTo("", class, broadcast)
	}
}

// argEntity extracts {"id": eid.ID} from the first map argument that
// carries one — the convention every sanitized mind op uses for its
// primary target (mindbody.sanitizedMoveArgs and friends).
func argEntity(o op.Op) (entityRef map[string]any, ok bool) {
	for _, a := range o.Args {
		if m, ok := a.(map[string]any); ok {
			if _, hasID := m["id"]; hasID {
				return m, true
			}
		}
	}
	return nil, false
}

// firstMapArg returns the first plain map argument an op carries,
// regardless of whether it names an "id" — the convention Create's type
// spec (type + initial attributes) uses, as opposed to argEntity's
// id-bearing target reference.
func firstMapArg(o op.Op) (map[string]any, bool) {
	for _, a := range o.Args {
		if m, ok := a.(map[string]any); ok {
			return m, true
		}
	}
	return nil, false
}

// resolveTarget pulls the {"id": ...} target reference out of o's args and
// resolves it against graph. The returned Result/Vector are only
// meaningful when target is nil (ok == false): either a malformed op
// (Blocked, ClientError reply) or an unresolvable id (Blocked, Unseen
// reply) — callers propagate them straight back to the router.
func resolveTarget(graph *entity.Graph, o op.Op) (target *entity.Entity, ref map[string]any, ok bool, result router.Result, reply op.Vector) {
	ref, hasRef := argEntity(o)
	if !hasRef {
		return nil, nil, false, router.Blocked, op.Vector{op.ClientError(o, o.From, "operation requires a target id")}
	}
	id, isID := ref["id"].(eid.ID)
	if !isID {
		return nil, nil, false, router.Blocked, op.Vector{op.ClientError(o, o.From, "malformed target id")}
	}
	target, found := graph.GetEntity(id)
	if !found {
		return nil, nil, false, router.Blocked, op.Vector{op.Unseen(o, o.From, id)}
	}
	return target, ref, true, router.Handled, nil
}
