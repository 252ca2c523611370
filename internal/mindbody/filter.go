// Package mindbody implements the mind↔body filter: it takes
// Thought operations sent by a mind (an external client or AI controller)
// and rewrites their inner operation into a sanitized world operation
// addressed as if it came from the body itself, or rejects it with a
// ClientError/Unseen reply.
package mindbody

import (
	"go.uber.org/zap"

	"github.com/worldforge-go/simcore/internal/domain"
	"github.com/worldforge-go/simcore/internal/eid"
	"github.com/worldforge-go/simcore/internal/entity"
	"github.com/worldforge-go/simcore/internal/geom"
	"github.com/worldforge-go/simcore/internal/op"
	"github.com/worldforge-go/simcore/internal/property"
)

// Filter validates and rewrites mind-origin operations for one world.
type Filter struct {
	graph *entity.Graph
	log   *zap.Logger
}

func New(graph *entity.Graph, log *zap.Logger) *Filter {
	return &Filter{graph: graph, log: log}
}

// FilterThought is the entry point: thought was sent by mindID, controlling
// bodyID, and carries the mind's intended action as its first argument op
// ("Every mind can send a Thought containing an inner
// operation"). It returns the world operations to enqueue in place of the
// raw mind intent — typically one rewritten op, or a single ClientError/
// Unseen reply.
func (f *Filter) FilterThought(mindID, bodyID eid.ID, thought op.Op) op.Vector {
	inner, ok := thought.FirstArgOp()
	if !ok {
		return op.Vector{op.ClientError(thought, bodyID, "Thought carried no inner operation")}
	}

	body, ok := f.graph.GetEntity(bodyID)
	if !ok {
		return op.Vector{op.Unseen(thought, eid.Zero, bodyID)}
	}
	if minds, ok := body.Property("minds"); ok {
		if mp, ok := minds.(*property.MindsProperty); ok && !mp.IsControlledBy(mindID) {
			return op.Vector{op.ClientError(thought, bodyID, "mind is not attached to this body")}
		}
	}

	switch inner.Class {
	case op.ClassMove:
		return f.filterMove(body, mindID, inner)
	case op.ClassSet:
		return f.filterSet(body, inner)
	case op.ClassUse:
		return f.filterUse(body, inner)
	case op.ClassTouch:
		return f.filterTouch(body, inner)
	case op.ClassLook:
		return f.filterLook(body, inner)
	case op.ClassWield, op.ClassCreate, op.ClassDelete, op.ClassTalk,
		op.ClassImaginary, op.ClassThought, op.ClassThink, op.ClassGoalInfo:
		return f.retargetToSelf(body, inner)
	case op.ClassRelay:
		return f.filterRelay(body, inner)
	default:
		return f.retargetToSelf(body, inner)
	}
}

func argEntityID(o op.Op) (eid.ID, bool) {
	for _, a := range o.Args {
		switch v := a.(type) {
		case eid.ID:
			return v, true
		case map[string]any:
			if raw, ok := v["id"]; ok {
				if id, ok := raw.(eid.ID); ok {
					return id, true
				}
			}
		}
	}
	return eid.Zero, false
}

// filterMove dispatches to the self-move or other-move handling depending
// on whether the op's target is the body itself.
func (f *Filter) filterMove(body *entity.Entity, mindID eid.ID, inner op.Op) op.Vector {
	targetID, hasTarget := argEntityID(inner)
	if !hasTarget || targetID == body.ID() {
		return f.filterMoveSelf(body, inner)
	}
	return f.filterMoveOther(body, inner, targetID)
}

// filterMoveSelf rewrites a move of the body itself (filterMove has already
// sent moves naming another entity to filterMoveOther) so that `to` is the
// body's own parent.
func (f *Filter) filterMoveSelf(body *entity.Entity, inner op.Op) op.Vector {
	if body.Parent() == nil {
		return op.Vector{op.ClientError(inner, body.ID(), "body has no parent to move within")}
	}
	out := op.New(op.ClassMove, body.ID(), body.Parent().ID())
	out.Args = sanitizedMoveArgs(inner, body.ID())
	return op.Vector{out}
}

// filterMoveOther runs the full reach/constraint pipeline for moving
// another entity.
func (f *Filter) filterMoveOther(body *entity.Entity, inner op.Op, targetID eid.ID) op.Vector {
	target, ok := f.graph.GetEntity(targetID)
	if !ok {
		return op.Vector{op.Unseen(inner, body.ID(), targetID)}
	}

	qctx := f.queryContext(body.ID(), targetID, eid.Zero)

	if fp, ok := filterPropOf(body, "mover_constraint"); ok {
		if passed, reason := fp.Evaluate(qctx); !passed {
			return op.Vector{op.ClientError(inner, body.ID(), reason)}
		}
	}
	if fp, ok := filterPropOf(target, "move_constraint"); ok {
		if passed, reason := fp.Evaluate(qctx); !passed {
			return op.Vector{op.ClientError(inner, body.ID(), reason)}
		}
	}
	if target.Parent() != nil {
		if fp, ok := filterPropOf(target.Parent(), "contain_constraint"); ok {
			if passed, reason := fp.Evaluate(qctx); !passed {
				return op.Vector{op.ClientError(inner, body.ID(), reason)}
			}
		}
	}

	if !f.canReach(body, target) {
		return op.Vector{op.ClientError(inner, body.ID(), "Entity is too far away.")}
	}

	if _, changesLoc := extractLoc(inner); changesLoc {
		if fp, ok := filterPropOf(target, "destination_constraint"); ok {
			if passed, reason := fp.Evaluate(qctx); !passed {
				return op.Vector{op.ClientError(inner, body.ID(), reason)}
			}
		}
	}

	parent := target.Parent()
	if parent == nil {
		return op.Vector{op.ClientError(inner, body.ID(), "target has no parent to move within")}
	}
	out := op.New(op.ClassMove, body.ID(), parent.ID())
	out.Args = sanitizedMoveArgs(inner, targetID)
	return op.Vector{out}
}

// canReach checks body's reach against target's Domain (held by target's
// parent), using target's world bbox radius as the extra radius (spec
// §4.F "reach check with target bbox sphere radius").
func (f *Filter) canReach(body, target *entity.Entity) bool {
	if target.Parent() == nil || target.Parent().Domain() == nil {
		return false
	}
	radius := target.Location().WorldBBox().Radius()
	return target.Parent().Domain().CanReach(body, target.Location(), radius)
}

func filterPropOf(e *entity.Entity, name string) (*property.FilterProperty, bool) {
	p, ok := e.Property(name)
	if !ok {
		return nil, false
	}
	fp, ok := p.(*property.FilterProperty)
	return fp, ok
}

func (f *Filter) queryContext(actor, target, tool eid.ID) property.QueryContext {
	return property.QueryContext{
		Target: target,
		Actor:  actor,
		Tool:   tool,
		TypeName: func(id eid.ID) string {
			if e, ok := f.graph.GetEntity(id); ok && e.TypeInfo() != nil {
				return e.TypeInfo().Name
			}
			return ""
		},
		GetProp: func(id eid.ID, name string) (any, bool) {
			e, ok := f.graph.GetEntity(id)
			if !ok {
				return nil, false
			}
			v, err := e.GetProperty(name)
			return v, err == nil
		},
	}
}

// sanitizedMoveArgs keeps only {id, loc, pos, orientation, amount} from the
// mind's requested args ("rewrite op with sanitized args").
func sanitizedMoveArgs(inner op.Op, targetID eid.ID) []any {
	allowed := map[string]bool{"loc": true, "pos": true, "orientation": true, "amount": true}
	out := []any{map[string]any{"id": targetID}}
	for _, a := range inner.Args {
		m, ok := a.(map[string]any)
		if !ok {
			continue
		}
		filtered := make(map[string]any)
		for k, v := range m {
			if allowed[k] {
				filtered[k] = v
			}
		}
		if len(filtered) > 0 {
			out = append(out, filtered)
		}
	}
	return out
}

func extractLoc(inner op.Op) (map[string]any, bool) {
	for _, a := range inner.Args {
		if m, ok := a.(map[string]any); ok {
			if _, hasPos := m["pos"]; hasPos {
				return m, true
			}
			if _, hasLoc := m["loc"]; hasLoc {
				return m, true
			}
		}
	}
	return nil, false
}

// setWhitelist is the set of attributes a mind's Set(self) op may touch.
var setWhitelist = map[string]bool{"_propel": true, "_direction": true, "_destination": true}

// filterSet implements "Only whitelisted attrs accepted ... All others
// dropped with warning" and the `_propel` magnitude clamp.
func (f *Filter) filterSet(body *entity.Entity, inner op.Op) op.Vector {
	out := op.New(op.ClassSet, body.ID(), body.ID())
	kept := map[string]any{}
	for _, a := range inner.Args {
		m, ok := a.(map[string]any)
		if !ok {
			continue
		}
		for k, v := range m {
			if !setWhitelist[k] {
				if f.log != nil {
					f.log.Warn("dropped non-whitelisted Set attribute from mind", zap.String("attr", k))
				}
				continue
			}
			if k == "_propel" {
				v = normalizePropel(v)
			}
			kept[k] = v
		}
	}
	if len(kept) == 0 {
		return nil
	}
	out.Args = []any{kept}
	return op.Vector{out}
}

// normalizePropel clamps a _propel vector's magnitude to <= 1.
func normalizePropel(v any) any {
	vec, ok := v.(geom.Vector3)
	if !ok {
		return v
	}
	if vec.Mag() > 1 {
		return vec.Normalize()
	}
	return vec
}

// filterUse implements "Must have inner op/task; rewritten with `to` =
// tool id or self (if task), wrapping inner op".
func (f *Filter) filterUse(body *entity.Entity, inner op.Op) op.Vector {
	innerOp, hasOp := inner.FirstArgOp()
	if !hasOp {
		return op.Vector{op.ClientError(inner, body.ID(), "Use requires an inner operation or task")}
	}
	toolID, hasTool := argEntityID(inner)
	to := body.ID()
	if hasTool {
		to = toolID
	}
	out := op.New(op.ClassUse, body.ID(), to)
	out.Args = []any{innerOp}
	return op.Vector{out}
}

// filterTouch implements "Resolve target, reach-check including optional
// point offset; also emit Sight-of-Touch".
func (f *Filter) filterTouch(body *entity.Entity, inner op.Op) op.Vector {
	targetID, ok := argEntityID(inner)
	if !ok {
		return op.Vector{op.ClientError(inner, body.ID(), "Touch requires a target")}
	}
	target, ok := f.graph.GetEntity(targetID)
	if !ok {
		return op.Vector{op.Unseen(inner, body.ID(), targetID)}
	}
	if !f.canReach(body, target) {
		return op.Vector{op.ClientError(inner, body.ID(), "Entity is too far away.")}
	}
	touch := op.New(op.ClassTouch, body.ID(), targetID)
	sight := op.New(op.ClassSight, body.ID(), eid.Zero).Arg(touch)
	return op.Vector{touch, sight}
}

// filterLook looks at the first arg's id if given, otherwise at the
// body's parent; with no args and no parent, it returns nothing rather
// than erroring.
func (f *Filter) filterLook(body *entity.Entity, inner op.Op) op.Vector {
	if targetID, ok := argEntityID(inner); ok {
		return op.Vector{op.New(op.ClassLook, body.ID(), targetID)}
	}
	if body.Parent() == nil {
		return nil
	}
	return op.Vector{op.New(op.ClassLook, body.ID(), body.Parent().ID())}
}

// retargetToSelf implements the catch-all row: "Retarget `to=self` and
// forward".
func (f *Filter) retargetToSelf(body *entity.Entity, inner op.Op) op.Vector {
	out := inner
	out.From = body.ID()
	out.To = body.ID()
	return op.Vector{out}
}

// relayArgs is the decoded shape of a Relay op's argument map.
type relayArgs struct {
	From eid.ID
	To   eid.ID
	ID   uint64
}

func decodeRelayArgs(inner op.Op) (relayArgs, bool) {
	for _, a := range inner.Args {
		m, ok := a.(map[string]any)
		if !ok {
			continue
		}
		from, fOK := m["from"].(eid.ID)
		to, tOK := m["to"].(eid.ID)
		id, idOK := m["id"].(uint64)
		if fOK && tOK && idOK {
			return relayArgs{From: from, To: to, ID: id}, true
		}
	}
	return relayArgs{}, false
}

// filterRelay checks that a Relay carries from/to/id and an inner op, and
// readdresses the inner op from `from` to `to` with RefNo set to id. It
// only performs this outbound step: no code in this package wraps the
// addressed mind's reply as a Thought back to self (ForwardToMind drops
// Relay ops).
func (f *Filter) filterRelay(body *entity.Entity, inner op.Op) op.Vector {
	args, ok := decodeRelayArgs(inner)
	if !ok {
		return op.Vector{op.ClientError(inner, body.ID(), "Relay requires from, to, and id")}
	}
	innerOp, hasOp := inner.FirstArgOp()
	if !hasOp {
		return op.Vector{op.ClientError(inner, body.ID(), "Relay requires an inner operation")}
	}
	relayed := innerOp
	relayed.From = args.From
	relayed.To = args.To
	relayed.RefNo = args.ID
	return op.Vector{relayed}
}

// ForwardToMind forwards ops delivered to a minded entity on to its minds,
// except Relay and Get: each mind gets a Thought from the body carrying the
// delivered op. Responses from the minds are not handled here; nothing
// re-wraps them as Thought ops addressed to self. Call this for every op
// routed `to` a body with an attached MindsProperty.
func (f *Filter) ForwardToMind(body *entity.Entity, delivered op.Op) op.Vector {
	if delivered.Class == op.ClassRelay || delivered.Class == op.ClassGet {
		return nil
	}
	mindsProp, ok := body.Property("minds")
	if !ok {
		return nil
	}
	mp, ok := mindsProp.(*property.MindsProperty)
	if !ok {
		return nil
	}
	var out op.Vector
	for _, mindID := range mp.Value {
		thought := op.New(op.ClassThought, body.ID(), mindID).Arg(delivered)
		out = append(out, thought)
	}
	return out
}

// InstallMindsHook wires MindsProperty.OnEmpty so that when the last mind
// detaches from body, a `Set(_propel := 0)` is enqueued to stop any
// in-flight movement ("When the last mind detaches ...").
func (f *Filter) InstallMindsHook(body *entity.Entity, emit domain.Emitter) {
	p, ok := body.Property("minds")
	if !ok {
		return
	}
	mp, ok := p.(*property.MindsProperty)
	if !ok {
		return
	}
	mp.OnEmpty = func(property.Owner) {
		if emit == nil {
			return
		}
		stop := op.New(op.ClassSet, body.ID(), body.ID()).Arg(map[string]any{"_propel": geom.Vector3{}})
		emit.Enqueue(stop)
	}
}
