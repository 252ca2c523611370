package persist

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/worldforge-go/simcore/internal/core/event"
	"github.com/worldforge-go/simcore/internal/eid"
	"github.com/worldforge-go/simcore/internal/entity"
	"github.com/worldforge-go/simcore/internal/metrics"
	"github.com/worldforge-go/simcore/internal/property"
	"github.com/worldforge-go/simcore/internal/world"
)

// maxConsecutiveFailures bounds retries on a single row before it is
// dropped with a logged warning, so one perpetually failing row can't block
// every write behind it.
const maxConsecutiveFailures = 5

type jobKind int

const (
	jobUnstored jobKind = iota
	jobDirty
	jobDestroyed
	jobAddedCharacter
	jobDeletedCharacter
)

type job struct {
	id        eid.ID
	kind      jobKind
	propNames []string
	exec      func(ctx context.Context) error
}

type result struct {
	id        eid.ID
	kind      jobKind
	propNames []string
	err       error
}

type charLink struct {
	entity    eid.ID
	accountID int64
}

// Manager is the persistence manager: it owns the unstored/
// dirty/destroyed/addedCharacters/deletedCharacters queues, drives writes
// on a background goroutine under a single-producer/single-consumer
// discipline (the main thread enqueues jobs, the background goroutine
// dequeues and executes them, and signals completion back over a result
// channel sampled in Tick), and tracks per-queue flush metrics.
type Manager struct {
	db           *DB
	entities     *EntityRepo
	props        *PropertyRepo
	charAccounts *CharacterAccountRepo
	graph        *entity.Graph
	reg          *property.Registry
	log          *zap.Logger

	batchSize        int
	pendingThreshold int

	jobs    chan job
	results chan result
	pending atomic.Int64
	aborted atomic.Bool

	Inserts *metrics.Counter
	Updates *metrics.Counter

	unstored    []eid.ID
	unstoredSet map[eid.ID]struct{}
	dirty       []eid.ID
	dirtySet    map[eid.ID]struct{}
	destroyed   []eid.ID
	destroyedSet map[eid.ID]struct{}

	addedCharacters   []charLink
	deletedCharacters []eid.ID

	failCounts map[eid.ID]int
}

// NewManager constructs a Manager bound to graph and the three repos. It
// does not start the background write worker; Run does. Call Subscribe to
// wire it to a World's event bus.
func NewManager(db *DB, graph *entity.Graph, reg *property.Registry, log *zap.Logger, batchSize, pendingThreshold int) *Manager {
	m := &Manager{
		db:               db,
		entities:         NewEntityRepo(db),
		props:            NewPropertyRepo(db),
		charAccounts:     NewCharacterAccountRepo(db),
		graph:            graph,
		reg:              reg,
		log:              log,
		batchSize:        batchSize,
		pendingThreshold: pendingThreshold,
		jobs:             make(chan job, 256),
		results:          make(chan result, 256),
		Inserts:          metrics.NewCounter(),
		Updates:          metrics.NewCounter(),
		unstoredSet:      make(map[eid.ID]struct{}),
		dirtySet:         make(map[eid.ID]struct{}),
		destroyedSet:     make(map[eid.ID]struct{}),
		failCounts:       make(map[eid.ID]int),
	}
	return m
}

// Run starts the background write-driver goroutine; cancel ctx to stop it.
func (m *Manager) Run(ctx context.Context) {
	go m.writeLoop(ctx)
}

func (m *Manager) writeLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j, ok := <-m.jobs:
			if !ok {
				return
			}
			err := j.exec(ctx)
			m.pending.Add(-1)
			select {
			case m.results <- result{id: j.id, kind: j.kind, propNames: j.propNames, err: err}:
			case <-ctx.Done():
				return
			}
		}
	}
}

// Subscribe wires the manager to a World's signals: inserted, updated,
// containered, and being-deleted entities all feed the write-back queues.
func (m *Manager) Subscribe(bus *event.Bus) {
	event.Subscribe(bus, func(e world.Inserted) { m.MarkUnstored(e.Entity) })
	event.Subscribe(bus, func(e event.Updated) { m.MarkDirty(e.Entity) })
	event.Subscribe(bus, func(e event.Containered) { m.MarkDirty(e.Entity) })
	event.Subscribe(bus, func(e event.BeingDeleted) { m.MarkDestroyed(e.Entity) })
}

func (m *Manager) MarkUnstored(id eid.ID) {
	if _, ok := m.unstoredSet[id]; ok {
		return
	}
	m.unstoredSet[id] = struct{}{}
	m.unstored = append(m.unstored, id)
}

func (m *Manager) MarkDirty(id eid.ID) {
	if _, ok := m.dirtySet[id]; ok {
		return
	}
	m.dirtySet[id] = struct{}{}
	m.dirty = append(m.dirty, id)
}

func (m *Manager) MarkDestroyed(id eid.ID) {
	delete(m.unstoredSet, id)
	delete(m.dirtySet, id)
	if _, ok := m.destroyedSet[id]; ok {
		return
	}
	m.destroyedSet[id] = struct{}{}
	m.destroyed = append(m.destroyed, id)
}

func (m *Manager) LinkCharacter(id eid.ID, accountID int64) {
	m.addedCharacters = append(m.addedCharacters, charLink{entity: id, accountID: accountID})
}

func (m *Manager) UnlinkCharacter(id eid.ID) {
	m.deletedCharacters = append(m.deletedCharacters, id)
}

// Abort signals Shutdown's drain loop to stop early instead of draining to
// completion.
func (m *Manager) Abort() { m.aborted.Store(true) }

func idOf(e *entity.Entity) eid.ID {
	if e == nil {
		return eid.Zero
	}
	return e.ID()
}

// snapshotEntity builds the entities-table row and the full set of
// persistable property rows for e, for the unstored queue's INSERT.
func (m *Manager) snapshotEntity(e *entity.Entity) (EntityRow, []PropertyRow, []string, error) {
	locBlob, err := EncodeLocation(e.Location())
	if err != nil {
		return EntityRow{}, nil, nil, err
	}
	row := EntityRow{
		ID:       e.ID(),
		ParentID: idOf(e.Parent()),
		Type:     e.TypeInfo().Name,
		StableID: e.StableID(),
		Seq:      e.Seq(),
		Location: locBlob,
	}
	var propRows []PropertyRow
	var names []string
	for name, p := range e.AllProperties() {
		if !IsPersistable(p) {
			continue
		}
		blob, err := EncodeProperty(p)
		if err != nil {
			return EntityRow{}, nil, nil, err
		}
		propRows = append(propRows, PropertyRow{EntityID: e.ID(), Name: name, Value: blob})
		names = append(names, name)
	}
	return row, propRows, names, nil
}

// dirtyPropertyRows builds property rows only for e's currently-dirty
// instance properties, for the dirty queue's UPDATE.
func (m *Manager) dirtyPropertyRows(e *entity.Entity) ([]PropertyRow, []string, error) {
	var propRows []PropertyRow
	var names []string
	for name, p := range e.DirtyProperties() {
		if !IsPersistable(p) {
			continue
		}
		blob, err := EncodeProperty(p)
		if err != nil {
			return nil, nil, err
		}
		propRows = append(propRows, PropertyRow{EntityID: e.ID(), Name: name, Value: blob})
		names = append(names, name)
	}
	return propRows, names, nil
}

func (m *Manager) budgetExceeded() bool {
	return m.pending.Load() >= int64(m.pendingThreshold)
}

func (m *Manager) enqueue(j job) {
	m.pending.Add(1)
	m.jobs <- j
}

// Tick drains background write results, then fills the job queue up to
// the configured per-queue batch size, stopping early once the pending
// query count crosses the configured threshold.
func (m *Manager) Tick(now time.Time) {
	m.drainResults(now)

	m.flushDestroyed()
	m.flushUnstored()
	m.flushDirty()
	m.flushCharacterLinks()
}

func (m *Manager) drainResults(now time.Time) {
	for {
		select {
		case r := <-m.results:
			m.handleResult(r, now)
		default:
			return
		}
	}
}

func (m *Manager) handleResult(r result, now time.Time) {
	if r.err == nil {
		delete(m.failCounts, r.id)
		switch r.kind {
		case jobUnstored:
			m.Inserts.Observe(now, 1)
			m.markPropertiesFlushed(r.id, r.propNames)
			delete(m.unstoredSet, r.id)
		case jobDirty:
			m.Updates.Observe(now, 1)
			m.markPropertiesFlushed(r.id, r.propNames)
			delete(m.dirtySet, r.id)
		case jobDestroyed:
			m.graph.Reap(r.id)
			delete(m.destroyedSet, r.id)
		}
		return
	}

	m.failCounts[r.id]++
	if m.failCounts[r.id] >= maxConsecutiveFailures {
		m.log.Warn("persist: dropping row after repeated failures",
			zap.Uint64("entity", uint64(r.id)), zap.Error(r.err))
		delete(m.failCounts, r.id)
		delete(m.unstoredSet, r.id)
		delete(m.dirtySet, r.id)
		delete(m.destroyedSet, r.id)
		return
	}
	m.log.Warn("persist: write failed, retrying", zap.Uint64("entity", uint64(r.id)), zap.Error(r.err))
	switch r.kind {
	case jobUnstored:
		m.unstored = append(m.unstored, r.id)
	case jobDirty:
		m.dirty = append(m.dirty, r.id)
	case jobDestroyed:
		m.destroyed = append(m.destroyed, r.id)
	}
}

// markPropertiesFlushed sets persistence_clean and persistence_seen only
// on the properties actually included in the flushed snapshot — not on
// every instance property — so a property dirtied again between snapshot
// and write-ack is not incorrectly marked clean.
func (m *Manager) markPropertiesFlushed(id eid.ID, names []string) {
	e, ok := m.graph.GetEntity(id)
	if !ok {
		return
	}
	for _, name := range names {
		if p, ok := e.Property(name); ok {
			p.SetFlag(property.FlagClean)
			p.SetFlag(property.FlagSeen)
		}
	}
}

func (m *Manager) flushUnstored() {
	processed := 0
	for processed < m.batchSize && len(m.unstored) > 0 && !m.budgetExceeded() {
		id := m.unstored[0]
		m.unstored = m.unstored[1:]
		processed++

		e, ok := m.graph.GetEntity(id)
		if !ok || e.Destroyed() {
			delete(m.unstoredSet, id)
			continue
		}
		row, propRows, names, err := m.snapshotEntity(e)
		if err != nil {
			m.log.Warn("persist: failed to snapshot entity for insert", zap.Error(err))
			delete(m.unstoredSet, id)
			continue
		}
		m.enqueue(job{
			id:        id,
			kind:      jobUnstored,
			propNames: names,
			exec: func(ctx context.Context) error {
				if err := m.entities.Insert(ctx, row); err != nil {
					return err
				}
				for _, pr := range propRows {
					if err := m.props.Upsert(ctx, pr); err != nil {
						return err
					}
				}
				return nil
			},
		})
	}
}

func (m *Manager) flushDirty() {
	processed := 0
	for processed < m.batchSize && len(m.dirty) > 0 && !m.budgetExceeded() {
		id := m.dirty[0]
		m.dirty = m.dirty[1:]
		processed++

		e, ok := m.graph.GetEntity(id)
		if !ok {
			delete(m.dirtySet, id)
			continue
		}
		if e.Destroyed() {
			// Superseded by the destroyed queue; drop the stale update.
			delete(m.dirtySet, id)
			continue
		}
		locBlob, err := EncodeLocation(e.Location())
		if err != nil {
			m.log.Warn("persist: failed to encode location for update", zap.Error(err))
			delete(m.dirtySet, id)
			continue
		}
		row := EntityRow{ID: e.ID(), ParentID: idOf(e.Parent()), Seq: e.Seq(), Location: locBlob}
		propRows, names, err := m.dirtyPropertyRows(e)
		if err != nil {
			m.log.Warn("persist: failed to encode dirty properties", zap.Error(err))
			delete(m.dirtySet, id)
			continue
		}
		m.enqueue(job{
			id:        id,
			kind:      jobDirty,
			propNames: names,
			exec: func(ctx context.Context) error {
				if err := m.entities.Update(ctx, row); err != nil {
					return err
				}
				for _, pr := range propRows {
					if err := m.props.Upsert(ctx, pr); err != nil {
						return err
					}
				}
				return nil
			},
		})
	}
}

func (m *Manager) flushDestroyed() {
	processed := 0
	for processed < m.batchSize && len(m.destroyed) > 0 && !m.budgetExceeded() {
		id := m.destroyed[0]
		m.destroyed = m.destroyed[1:]
		processed++

		m.enqueue(job{
			id:   id,
			kind: jobDestroyed,
			exec: func(ctx context.Context) error {
				if err := m.props.DeleteAllForEntity(ctx, id); err != nil {
					return err
				}
				return m.entities.Delete(ctx, id)
			},
		})
	}
}

func (m *Manager) flushCharacterLinks() {
	for len(m.addedCharacters) > 0 && !m.budgetExceeded() {
		link := m.addedCharacters[0]
		m.addedCharacters = m.addedCharacters[1:]
		m.enqueue(job{
			id:   link.entity,
			kind: jobAddedCharacter,
			exec: func(ctx context.Context) error {
				return m.charAccounts.Link(ctx, link.entity, link.accountID)
			},
		})
	}
	for len(m.deletedCharacters) > 0 && !m.budgetExceeded() {
		id := m.deletedCharacters[0]
		m.deletedCharacters = m.deletedCharacters[1:]
		m.enqueue(job{
			id:   id,
			kind: jobDeletedCharacter,
			exec: func(ctx context.Context) error {
				return m.charAccounts.Unlink(ctx, id)
			},
		})
	}
}

// Shutdown drains every queue to completion (or until Abort is called),
// driving Tick repeatedly and waiting for in-flight jobs to settle between
// passes.
func (m *Manager) Shutdown(ctx context.Context) {
	for {
		if m.aborted.Load() {
			return
		}
		if len(m.unstored) == 0 && len(m.dirty) == 0 && len(m.destroyed) == 0 &&
			len(m.addedCharacters) == 0 && len(m.deletedCharacters) == 0 && m.pending.Load() == 0 {
			return
		}
		m.Tick(time.Now())
		select {
		case <-ctx.Done():
			return
		case <-time.After(5 * time.Millisecond):
		}
	}
}
