package entity

import (
	"github.com/worldforge-go/simcore/internal/eid"
	"github.com/worldforge-go/simcore/internal/property"
)

// Builder constructs entities, allocating ids from a shared Pool and
// applying a TypeInfo's defaults.
type Builder struct {
	pool *eid.Pool
	reg  *property.Registry
}

func NewBuilder(pool *eid.Pool, reg *property.Registry) *Builder {
	return &Builder{pool: pool, reg: reg}
}

// New allocates a fresh, detached entity of the given type, applying the
// type's default properties as instance properties are requested (lazily —
// GetProperty already falls through to TypeInfo, so "applying defaults"
// here only means construction is eager for the init overrides).
func (b *Builder) New(t *TypeInfo, init map[string]any) *Entity {
	e := &Entity{
		id:       b.pool.Create(),
		stableID: newUUID(),
		typeinfo: t,
		props:    make(map[string]property.Property),
	}
	for name, v := range init {
		_ = e.SetProperty(b.reg, name, v, property.KindNumber)
	}
	return e
}

// NewBare allocates an entity without applying or copying any type
// defaults — used by the persistence restore pass, which materializes
// entities before their properties are known.
func (b *Builder) NewBare(id eid.ID, stableID string, t *TypeInfo) *Entity {
	if id.IsZero() {
		id = b.pool.Create()
	} else {
		b.pool.Reserve(id.Index(), id.Generation())
	}
	return &Entity{
		id:       id,
		stableID: stableID,
		typeinfo: t,
		props:    make(map[string]property.Property),
	}
}
