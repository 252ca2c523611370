package entity

import (
	"testing"

	"github.com/worldforge-go/simcore/internal/core/event"
	"github.com/worldforge-go/simcore/internal/eid"
	"github.com/worldforge-go/simcore/internal/property"
)

// row mimics the shape persist.EntityRow/PropertyRow round-trip through:
// just enough to rebuild a bare entity and reapply its properties, without
// pulling in the persist package's database dependency.
type row struct {
	id       eid.ID
	stableID string
	typeName string
	parent   eid.ID
	props    map[string]float64
}

// TestRestoreRoundTripPreservesIDsParentsAndProperties builds a small tree,
// snapshots it into rows the way persistence would, then reconstructs a
// second graph from those rows via NewBare/AttachRestored/InstallProperty —
// the same two-pass shape persist.Manager's restore uses — and checks the
// result is indistinguishable from the original: same ids, same parent
// links, same property values.
func TestRestoreRoundTripPreservesIDsParentsAndProperties(t *testing.T) {
	pool := eid.NewPool()
	reg := property.NewRegistry()
	bus := event.NewBus()

	worldType := NewTypeInfo("world", nil)
	builder := NewBuilder(pool, reg)
	root := builder.New(worldType, nil)
	graph := NewGraph(bus, root)

	charType := NewTypeInfo("character", nil)
	char := builder.New(charType, nil)
	if err := graph.AddEntity(char, root, Location{}); err != nil {
		t.Fatalf("add char: %v", err)
	}
	if err := char.SetProperty(reg, "mass", 42.0, property.KindNumber); err != nil {
		t.Fatalf("set mass: %v", err)
	}

	itemType := NewTypeInfo("item", nil)
	item := builder.New(itemType, nil)
	if err := graph.AddEntity(item, char, Location{}); err != nil {
		t.Fatalf("add item: %v", err)
	}
	if err := item.SetProperty(reg, "mass", 3.0, property.KindNumber); err != nil {
		t.Fatalf("set item mass: %v", err)
	}

	// Snapshot into rows, the shape a persistence flush would produce.
	rows := []row{
		{id: root.ID(), stableID: root.StableID(), typeName: "world", parent: eid.Zero, props: nil},
		{id: char.ID(), stableID: char.StableID(), typeName: "character", parent: root.ID(), props: map[string]float64{"mass": 42.0}},
		{id: item.ID(), stableID: item.StableID(), typeName: "item", parent: char.ID(), props: map[string]float64{"mass": 3.0}},
	}

	// Pass 1: rebuild the bare entity tree, root first, children by parent id.
	pool2 := eid.NewPool()
	reg2 := property.NewRegistry()
	bus2 := event.NewBus()
	builder2 := NewBuilder(pool2, reg2)

	byID := make(map[eid.ID]*Entity, len(rows))
	byTypeName := map[string]*TypeInfo{"world": worldType, "character": charType, "item": itemType}

	restoredRoot := builder2.NewBare(rows[0].id, rows[0].stableID, byTypeName[rows[0].typeName])
	graph2 := NewGraph(bus2, restoredRoot)
	byID[rows[0].id] = restoredRoot

	for _, r := range rows[1:] {
		parent, ok := byID[r.parent]
		if !ok {
			t.Fatalf("row %v references unresolved parent %v", r.id, r.parent)
		}
		e := builder2.NewBare(r.id, r.stableID, byTypeName[r.typeName])
		graph2.AttachRestored(e, parent, Location{})
		byID[r.id] = e
	}

	// Pass 2: reapply properties now that every entity is resolvable.
	for _, r := range rows {
		e := byID[r.id]
		for name, v := range r.props {
			if err := e.SetProperty(reg2, name, v, property.KindNumber); err != nil {
				t.Fatalf("reapply %s on %v: %v", name, r.id, err)
			}
		}
	}

	restoredChar, ok := graph2.GetEntity(char.ID())
	if !ok {
		t.Fatal("restored char not resolvable by original id")
	}
	if restoredChar.StableID() != char.StableID() {
		t.Fatalf("stable id mismatch: want %s got %s", char.StableID(), restoredChar.StableID())
	}
	if restoredChar.Parent().ID() != root.ID() {
		t.Fatalf("restored char parent mismatch: want %v got %v", root.ID(), restoredChar.Parent().ID())
	}
	mass, err := restoredChar.GetProperty("mass")
	if err != nil || mass.(float64) != 42.0 {
		t.Fatalf("restored char mass: want 42.0 got %v (err %v)", mass, err)
	}

	restoredItem, ok := graph2.GetEntity(item.ID())
	if !ok {
		t.Fatal("restored item not resolvable by original id")
	}
	if restoredItem.Parent().ID() != char.ID() {
		t.Fatalf("restored item parent mismatch: want %v got %v", char.ID(), restoredItem.Parent().ID())
	}
	itemMass, err := restoredItem.GetProperty("mass")
	if err != nil || itemMass.(float64) != 3.0 {
		t.Fatalf("restored item mass: want 3.0 got %v (err %v)", itemMass, err)
	}

	if len(restoredChar.Children()) != 1 || restoredChar.Children()[0].ID() != item.ID() {
		t.Fatalf("restored char's children mismatch: got %v", restoredChar.Children())
	}
}
