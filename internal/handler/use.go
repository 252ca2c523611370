package handler

import (
	"github.com/worldforge-go/simcore/internal/op"
	"github.com/worldforge-go/simcore/internal/router"
)

// handleUse implements the Use row's default: unwrap the inner operation
// the mind↔body filter already addressed to the tool (or self) and let it
// dispatch on its own terms.
func handleUse() router.HandlerFunc {
	return func(o op.Op) (op.Vector, router.Result) {
		inner, ok := o.FirstArgOp()
		if !ok {
			return op.Vector{op.ClientError(o, o.From, "Use carried no inner operation")}, router.Blocked
		}
		return op.Vector{inner}, router.Handled
	}
}
