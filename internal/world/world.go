// Package world ties the entity graph, dispatch queue, and operation
// router into the single top-level object the process runs a tick loop
// against. A single *World per process is expected; the package keeps a
// process-global accessor (Instance/SetInstance) solely for the transport
// and persistence boundary.
package world

import (
	"time"

	"go.uber.org/zap"

	"github.com/worldforge-go/simcore/internal/core/event"
	"github.com/worldforge-go/simcore/internal/eid"
	"github.com/worldforge-go/simcore/internal/entity"
	"github.com/worldforge-go/simcore/internal/mindbody"
	"github.com/worldforge-go/simcore/internal/op"
	"github.com/worldforge-go/simcore/internal/property"
	"github.com/worldforge-go/simcore/internal/queue"
	"github.com/worldforge-go/simcore/internal/router"
)

// Inserted fires whenever the world links a brand-new entity into the
// graph, for Persistence's `unstored` queue.
type Inserted struct {
	Entity eid.ID
}

// World is the top-level registry the process ticks.
type World struct {
	Bus     *event.Bus
	Graph   *entity.Graph
	Queue   *queue.Queue
	Router  *router.Router
	Pool    *eid.Pool
	Reg     *property.Registry
	Builder *entity.Builder
	Filter  *mindbody.Filter

	// Persist is invoked at the end of every Tick, after domains have run
	// ("invoke Persistence tick()"). Left nil, ticking runs with
	// no persistence manager attached — tests and the mind<->body filter
	// fixtures do this routinely.
	Persist func(now time.Time)

	log *zap.Logger
	now time.Time

	opsPerTick int
}

// New constructs a fresh World rooted at a newly built world-type entity.
func New(log *zap.Logger, opsPerTick int, epoch time.Time) *World {
	bus := event.NewBus()
	pool := eid.NewPool()
	reg := property.NewRegistry()
	worldType := entity.NewTypeInfo("world", nil)
	builder := entity.NewBuilder(pool, reg)
	root := builder.New(worldType, nil)
	graph := entity.NewGraph(bus, root)

	w := &World{
		Bus:        bus,
		Graph:      graph,
		Queue:      queue.New(),
		Router:     router.New(log),
		Pool:       pool,
		Reg:        reg,
		Builder:    builder,
		log:        log,
		now:        epoch,
		opsPerTick: opsPerTick,
	}
	w.Filter = mindbody.New(graph, log)
	return w
}

// Now returns the world's monotonic simulation clock.
func (w *World) Now() time.Time { return w.now }

// Enqueue implements domain.Emitter: Domains push wire operations (e.g.
// Appearance/Disappearance) here to be delivered on a future tick.
func (w *World) Enqueue(o op.Op) {
	w.Queue.Push(o, w.now)
}

// Insert links a freshly-built, detached entity under parent and emits
// Inserted for persistence.
func (w *World) Insert(child *entity.Entity, parent *entity.Entity, loc entity.Location) error {
	if err := w.Graph.AddEntity(child, parent, loc); err != nil {
		return err
	}
	event.Emit(w.Bus, Inserted{Entity: child.ID()})
	return nil
}

// Tick advances the simulation clock by dt, drains due operations up to
// the configured per-tick budget, and runs every domain's periodic tick.
func (w *World) Tick(dt time.Duration) {
	w.now = w.now.Add(dt)

	due := w.Queue.DrainDue(w.now, w.opsPerTick)
	for _, o := range due {
		w.dispatchOne(o)
	}

	w.tickDomains(w.Graph.Root())

	if w.Persist != nil {
		w.Persist(w.now)
	}
}

func (w *World) dispatchOne(o op.Op) {
	if to, ok := w.Graph.GetEntity(o.To); ok && to.Destroyed() {
		return // resolve `to`; if destroyed, drop.
	}
	followups, res := w.Router.Dispatch(w.Graph, o)
	if res == router.WillRedispatch {
		// The router has already parked o in its continuation registry,
		// keyed by whatever type it's waiting on; nothing more to do here
		// until ResolveType drains it back onto the queue.
		return
	}
	if res == router.Blocked {
		return
	}
	for _, f := range followups {
		w.Enqueue(f)
	}
}

// ResolveType notifies the router that typeName is now known, redelivering
// every op that parked waiting on it back onto the dispatch queue.
func (w *World) ResolveType(typeName string) {
	for _, o := range w.Router.ResolveType(typeName) {
		w.Enqueue(o)
	}
}

// tickDomains walks the graph and calls Domain.Tick(now) once per distinct
// Domain instance encountered.
func (w *World) tickDomains(root *entity.Entity) {
	seen := make(map[entity.Domain]bool)
	var walk func(e *entity.Entity)
	walk = func(e *entity.Entity) {
		if d := e.Domain(); d != nil && !seen[d] {
			seen[d] = true
			d.Tick(w.now)
		}
		for _, child := range e.Children() {
			walk(child)
		}
	}
	walk(root)
}

// --- process-global accessor, transport/persistence boundary only -----

var instance *World

// SetInstance installs the process-wide World accessor.
func SetInstance(w *World) { instance = w }

// Instance returns the process-wide World. Only the transport and
// persistence packages should call this; everywhere else, a *World should
// be passed explicitly.
func Instance() *World { return instance }
