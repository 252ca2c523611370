// Package router implements the operation dispatch contract: an operation
// is offered first to handlers registered against its sender entity's
// type, then to handlers registered against its receiver entity's type,
// then to the class-wide default. Any stage can swallow the op, produce
// follow-up operations, or ask for a later redispatch.
package router

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/worldforge-go/simcore/internal/entity"
	"github.com/worldforge-go/simcore/internal/op"
)

// Result is a handler's verdict on an operation.
type Result int

const (
	// Ignored means the handler had nothing to do with this op; routing
	// continues to the next stage.
	Ignored Result = iota
	// Handled means the op was fully processed; routing stops here.
	Handled
	// WillRedispatch means the handler could not act yet (e.g. the type it
	// names is not loaded); the op is parked in the continuation registry
	// until ResolveType releases it, rather than dropped.
	WillRedispatch
	// Blocked means the op is invalid or disallowed and must not be
	// processed further or broadcast.
	Blocked
)

func (r Result) String() string {
	switch r {
	case Ignored:
		return "ignored"
	case Handled:
		return "handled"
	case WillRedispatch:
		return "will_redispatch"
	case Blocked:
		return "blocked"
	default:
		return fmt.Sprintf("result(%d)", int(r))
	}
}

// HandlerFunc processes one operation and returns any follow-up operations
// together with its verdict.
type HandlerFunc func(o op.Op) (op.Vector, Result)

// key identifies a (entity type name, op class) registration. A blank type
// name is the class-wide default, consulted when no from/to handler claims
// the operation.
type key struct {
	typeName string
	class    op.Class
}

// Router holds the from/to/default handler maps and dispatches operations
// to them in order, with panic recovery around every handler call.
type Router struct {
	fromHandlers map[key]HandlerFunc
	toHandlers   map[key]HandlerFunc
	log          *zap.Logger

	// pending is the continuation registry: ops a handler parked via
	// WillRedispatch, keyed by the type name they're waiting on. ResolveType
	// drains the list for a type once it becomes known.
	pending map[string][]op.Op
}

func New(log *zap.Logger) *Router {
	return &Router{
		fromHandlers: make(map[key]HandlerFunc),
		toHandlers:   make(map[key]HandlerFunc),
		log:          log,
		pending:      make(map[string][]op.Op),
	}
}

// RegisterFrom registers fn for operations of the given class whose sender
// entity is of typeName (or "" for the class-wide default fallback).
func (r *Router) RegisterFrom(typeName string, class op.Class, fn HandlerFunc) {
	r.fromHandlers[key{typeName, class}] = fn
}

// RegisterTo registers fn for operations of the given class whose receiver
// entity is of typeName (or "" for the class-wide default fallback).
func (r *Router) RegisterTo(typeName string, class op.Class, fn HandlerFunc) {
	r.toHandlers[key{typeName, class}] = fn
}

func typeChain(t *entity.TypeInfo) []string {
	var out []string
	for cur := t; cur != nil; cur = cur.Parent {
		out = append(out, cur.Name)
	}
	out = append(out, "")
	return out
}

func lookup(m map[key]HandlerFunc, chain []string, class op.Class) (HandlerFunc, bool) {
	for _, name := range chain {
		if fn, ok := m[key{name, class}]; ok {
			return fn, true
		}
	}
	return nil, false
}

// Dispatch routes o through the from-stage, then the to-stage. It stops at
// the first stage that returns Handled, WillRedispatch, or Blocked, and
// recovers any handler panic into a logged no-op so a single bad operation
// never crashes the simulation.
//
// When a handler returns WillRedispatch, Dispatch parks the op in the
// continuation registry keyed by its own UnresolvedType (the handler sets
// this field before returning the op as its sole follow-up) and reports no
// follow-up operations to the caller — the op is held, not requeued, until
// ResolveType drains it back out.
func (r *Router) Dispatch(graph *entity.Graph, o op.Op) (op.Vector, Result) {
	var fromChain, toChain []string
	if from, ok := graph.GetEntity(o.From); ok {
		fromChain = typeChain(from.TypeInfo())
	} else {
		fromChain = []string{""}
	}
	if to, ok := graph.GetEntity(o.To); ok {
		toChain = typeChain(to.TypeInfo())
	} else {
		toChain = []string{""}
	}

	if fn, ok := lookup(r.fromHandlers, fromChain, o.Class); ok {
		if ops, res := r.safeCall(fn, o); res != Ignored {
			return r.handleResult(ops, res)
		}
	}
	if fn, ok := lookup(r.toHandlers, toChain, o.Class); ok {
		if ops, res := r.safeCall(fn, o); res != Ignored {
			return r.handleResult(ops, res)
		}
	}
	return nil, Ignored
}

func (r *Router) handleResult(ops op.Vector, res Result) (op.Vector, Result) {
	if res != WillRedispatch {
		return ops, res
	}
	for _, parked := range ops {
		if parked.UnresolvedType == "" {
			continue
		}
		r.pending[parked.UnresolvedType] = append(r.pending[parked.UnresolvedType], parked)
	}
	return nil, WillRedispatch
}

// ResolveType drains every op parked on typeName and returns them for
// redelivery onto the dispatch queue — the continuation registry's other
// half: once a type becomes known, whatever was waiting on it runs again.
func (r *Router) ResolveType(typeName string) op.Vector {
	parked := r.pending[typeName]
	if len(parked) == 0 {
		return nil
	}
	delete(r.pending, typeName)
	return op.Vector(parked)
}

func (r *Router) safeCall(fn HandlerFunc, o op.Op) (ops op.Vector, res Result) {
	defer func() {
		if rec := recover(); rec != nil {
			if r.log != nil {
				r.log.Error("operation handler panic recovered",
					zap.String("class", string(o.Class)),
					zap.Any("panic", rec),
				)
			}
			ops, res = nil, Ignored
		}
	}()
	return fn(o)
}
