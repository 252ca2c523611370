package event

import (
	"github.com/worldforge-go/simcore/internal/eid"
	"github.com/worldforge-go/simcore/internal/geom"
)

// Signal types emitted by the entity graph and domains.

// Moved fires whenever an entity's location changes.
type Moved struct {
	Entity eid.ID
	OldPos geom.Vector3
	NewPos geom.Vector3
}

// BeingDeleted fires once, synchronously, before an entity is unlinked from
// its parent and flagged destroyed.
type BeingDeleted struct {
	Entity eid.ID
}

// Changed fires whenever a named property's base value is written.
type Changed struct {
	Entity   eid.ID
	Property string
}

// Appearance fires when Target becomes visible to Observer.
type Appearance struct {
	Observer eid.ID
	Target   eid.ID
}

// Disappearance fires when Target stops being visible to Observer.
type Disappearance struct {
	Observer eid.ID
	Target   eid.ID
}

// Inserted fires once when an entity is first linked into the graph —
// consumed by the persistence manager's `unstored` queue.
type Inserted struct {
	Entity eid.ID
}

// Updated fires when an entity's properties or location are dirtied —
// consumed by persistence's `dirty` queue.
type Updated struct {
	Entity eid.ID
}

// Containered fires when an entity's parent changes — consumed by
// persistence to re-write the location_blob's parent_id.
type Containered struct {
	Entity    eid.ID
	NewParent eid.ID
}
