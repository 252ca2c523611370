package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/worldforge-go/simcore/internal/eid"
	"github.com/worldforge-go/simcore/internal/geom"
	"github.com/worldforge-go/simcore/internal/property"
)

// Flags is the per-entity bitset tracking lifecycle and dirty state.
type Flags uint16

const (
	FlagClean Flags = 1 << iota
	FlagPosClean
	FlagOrientClean
	FlagQueued
	FlagEphemeral
	FlagDestroyed
)

func (f Flags) Has(bit Flags) bool { return f&bit != 0 }

// Location is an entity's placement under its parent ("Location").
type Location struct {
	Position    geom.Point3
	Orientation geom.Quaternion
	Velocity    geom.Vector3
	BBox        geom.AxisBox3
	Scale       geom.Vector3
}

// WorldBBox returns the location's bounding box transformed into world
// space.
func (l Location) WorldBBox() geom.AxisBox3 {
	scale := l.Scale
	if scale == (geom.Vector3{}) {
		scale = geom.Vector3{X: 1, Y: 1, Z: 1}
	}
	return geom.WorldBBox(l.BBox, scale, l.Position)
}

// Domain is implemented by the spatial models in package domain. Defined
// here, not in package domain, so Entity can hold one without an import
// cycle.
type Domain interface {
	AddEntity(child *Entity)
	RemoveEntity(child *Entity)
	IsVisibleFor(observer, target *Entity) bool
	CanReach(observer *Entity, targetLoc Location, extraRadius float64) bool
	ProcessVisibilityForMovedEntity(e *Entity, oldPos geom.Vector3)
	Tick(now time.Time)
	GetVisibleEntitiesFor(observer *Entity, out *[]*Entity)
}

// Entity is a node in the world's hierarchical entity graph.
type Entity struct {
	id       eid.ID
	stableID string // UUID, optional
	seq      uint64
	flags    Flags

	parent   *Entity
	children []*Entity

	typeinfo *TypeInfo
	props    map[string]property.Property

	domain Domain
	loc    Location

	graph *Graph // back-reference for NotifyPropertyChanged / signals
}

func (e *Entity) ID() eid.ID        { return e.id }
func (e *Entity) StableID() string  { return e.stableID }
func (e *Entity) Seq() uint64       { return e.seq }
func (e *Entity) Flags() Flags      { return e.flags }
func (e *Entity) Destroyed() bool   { return e.flags.Has(FlagDestroyed) }
func (e *Entity) Parent() *Entity   { return e.parent }
func (e *Entity) TypeInfo() *TypeInfo { return e.typeinfo }
func (e *Entity) Domain() Domain    { return e.domain }
func (e *Entity) SetDomain(d Domain) { e.domain = d }
func (e *Entity) Location() Location { return e.loc }

// Graph returns the owning entity graph, or nil for a detached entity
// (e.g. freshly built but not yet AddEntity'd).
func (e *Entity) Graph() *Graph { return e.graph }

// Children returns the ordered, live child slice. Callers must not retain
// it across a mutation of the graph.
func (e *Entity) Children() []*Entity { return e.children }

func (e *Entity) bumpSeq() { e.seq++ }

// NotifyPropertyChanged implements property.Owner: it bumps seq, clears
// persistence_clean on the entity-level flag, and emits a Changed signal.
func (e *Entity) NotifyPropertyChanged(name string, p property.Property) {
	e.bumpSeq()
	e.flags &^= FlagClean
	if e.graph != nil {
		e.graph.notifyChanged(e, name)
	}
}

// GetProperty resolves property `name` 's resolution order:
// instance property (with or without modifiers) first, else the first
// default found walking the TypeInfo parent chain, else "no such property".
func (e *Entity) GetProperty(name string) (any, error) {
	if p, ok := e.props[name]; ok {
		return p.Get()
	}
	if e.typeinfo != nil {
		if p, ok := e.typeinfo.LookupDefault(name); ok {
			return p.Get()
		}
	}
	return nil, errNoSuchProperty(name)
}

// Property returns the raw instance Property (not resolved through type
// defaults), for callers that need to manipulate flags/modifiers directly.
func (e *Entity) Property(name string) (property.Property, bool) {
	p, ok := e.props[name]
	return p, ok
}

// SetProperty installs-or-updates an instance property's base value. If no
// instance property exists yet, one is created from the type default (or
// the registry fallback) and flagged FlagInstance ("Property
// ... installed on first access").
func (e *Entity) SetProperty(reg *property.Registry, name string, v any, fallback property.Kind) error {
	if e.Destroyed() {
		return nil // no-op on a destroyed entity
	}
	p, ok := e.props[name]
	if !ok {
		if d, ok := e.typeinfo.LookupDefault(name); ok {
			p = d.Copy()
		} else {
			p = reg.New(name, fallback)
		}
		p.SetFlag(property.FlagInstance)
		p.Install(e, name)
		e.props[name] = p
	}
	return p.Set(e, name, v)
}

// InstallProperty directly installs a fully-constructed property (used by
// persistence restore and domain setup).
func (e *Entity) InstallProperty(name string, p property.Property) {
	p.Install(e, name)
	e.props[name] = p
}

// RemoveProperty uninstalls an instance property (no-op if absent).
func (e *Entity) RemoveProperty(name string) {
	if p, ok := e.props[name]; ok {
		p.Remove(e, name)
		delete(e.props, name)
	}
}

// AllProperties returns every installed instance property keyed by name,
// for persistence's initial-insert snapshot ("unstored" — a
// freshly inserted entity writes every instance property, not only the
// dirty ones).
func (e *Entity) AllProperties() map[string]property.Property { return e.props }

// DirtyProperties returns instance properties whose persistence_clean flag
// is not set and which are not persistence_ephem — the set persistence
// needs to flush.
func (e *Entity) DirtyProperties() map[string]property.Property {
	out := make(map[string]property.Property)
	for name, p := range e.props {
		if p.HasFlag(property.FlagEphemeral) {
			continue
		}
		if !p.HasFlag(property.FlagClean) {
			out[name] = p
		}
	}
	return out
}

func newUUID() string { return uuid.NewString() }
