package handler

import (
	"github.com/worldforge-go/simcore/internal/eid"
	"github.com/worldforge-go/simcore/internal/entity"
	"github.com/worldforge-go/simcore/internal/op"
	"github.com/worldforge-go/simcore/internal/router"
	"github.com/worldforge-go/simcore/internal/world"
)

// broadcastOp wraps action as a Sight op addressed to every sibling of
// actorID under parent that parent's Domain currently considers able to
// see the actor — the same fan-out the mind↔body filter uses to pair a
// Touch with its own Sight op, generalized here to any action worth
// reporting.
func broadcastOp(w *world.World, parent *entity.Entity, actorID eid.ID, action op.Op) op.Vector {
	if parent == nil || parent.Domain() == nil {
		return nil
	}
	actor, ok := w.Graph.GetEntity(actorID)
	if !ok {
		return nil
	}
	domain := parent.Domain()

	var out op.Vector
	for _, sibling := range parent.Children() {
		if sibling.ID() == actorID {
			continue
		}
		if domain.IsVisibleFor(sibling, actor) {
			out = append(out, op.New(op.ClassSight, actorID, sibling.ID()).Arg(&action))
		}
	}
	return out
}

// handleBroadcast is the generic default for classes whose only behavior
// is "tell everyone who can currently see the sender" (Wield, Talk,
// Imaginary, Thought, Think, GoalInfo after retargetToSelf rewrote them to
// `from == to == self`).
func handleBroadcast(w *world.World) router.HandlerFunc {
	return func(o op.Op) (op.Vector, router.Result) {
		actor, ok := w.Graph.GetEntity(o.From)
		if !ok {
			return nil, router.Ignored
		}
		return broadcastOp(w, actor.Parent(), o.From, o), router.Handled
	}
}

// handleSight implements the fan-out half of the Touch row's paired Sight
// op: a Sight addressed to eid.Zero is mindbody's broadcast sentinel
// (filterTouch "emit Sight-of-Touch" with To left unset); anything already
// addressed to a specific entity is left for that entity's mind-delivery
// to pick up, so the default handler ignores it.
func handleSight(w *world.World) router.HandlerFunc {
	return func(o op.Op) (op.Vector, router.Result) {
		if !o.To.IsZero() {
			return nil, router.Ignored
		}
		actor, ok := w.Graph.GetEntity(o.From)
		if !ok {
			return nil, router.Handled
		}
		return broadcastOp(w, actor.Parent(), o.From, o), router.Handled
	}
}

// handleSwallowed acknowledges an op without further action — used for
// Touch, whose visible effect was already queued as a separate Sight op
// by the mind↔body filter.
func handleSwallowed() router.HandlerFunc {
	return func(op.Op) (op.Vector, router.Result) {
		return nil, router.Handled
	}
}
