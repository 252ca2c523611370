package persist

import (
	"context"
	"fmt"
	"reflect"

	"github.com/worldforge-go/simcore/internal/entity"
	"github.com/worldforge-go/simcore/internal/property"
)

// TypeLookup resolves a persisted type name back to the loaded TypeInfo
// (owned by whatever loaded the ruleset's type table at boot).
type TypeLookup func(typeName string) *entity.TypeInfo

// Restore performs the two-pass startup restore: restoreChildren builds the
// whole tree first (entities only, no type defaults applied, no domain
// registration), then restoreProperties walks the same tree loading stored
// property values and registering each entity with its parent's Domain.
func (m *Manager) Restore(ctx context.Context, builder *entity.Builder, root *entity.Entity, typeLookup TypeLookup) error {
	var restored []*entity.Entity
	if err := m.restoreChildren(ctx, builder, root, typeLookup, &restored); err != nil {
		return fmt.Errorf("restore children: %w", err)
	}

	if err := m.restoreProperties(ctx, root); err != nil {
		return fmt.Errorf("restore root properties: %w", err)
	}
	for _, e := range restored {
		if err := m.restoreProperties(ctx, e); err != nil {
			return fmt.Errorf("restore properties for %s: %w", e.ID(), err)
		}
	}
	return nil
}

// restoreChildren recursively materializes the persisted tree under parent:
// for each persisted child row, it builds an entity without applying type
// defaults, reads its location blob, attaches it under parent, and
// recurses.
func (m *Manager) restoreChildren(ctx context.Context, builder *entity.Builder, parent *entity.Entity, typeLookup TypeLookup, out *[]*entity.Entity) error {
	rows, err := m.entities.Children(ctx, parent.ID())
	if err != nil {
		return err
	}
	graph := parent.Graph()
	for _, row := range rows {
		t := typeLookup(row.Type)
		child := builder.NewBare(row.ID, row.StableID, t)
		loc, err := DecodeLocation(row.Location)
		if err != nil {
			return err
		}
		graph.AttachRestored(child, parent, loc)
		*out = append(*out, child)
		if err := m.restoreChildren(ctx, builder, child, typeLookup, out); err != nil {
			return err
		}
	}
	return nil
}

// restoreProperties loads e's stored properties, skips any value that
// equals the type's own default, installs and applies the rest in order,
// fills in type defaults for names not present in the instance, and
// registers e with its parent's Domain.
func (m *Manager) restoreProperties(ctx context.Context, e *entity.Entity) error {
	rows, err := m.props.ForEntity(ctx, e.ID())
	if err != nil {
		return err
	}

	seen := make(map[string]bool, len(rows))
	for _, row := range rows {
		p := m.reg.New(row.Name, property.KindNumber)
		if err := DecodeProperty(p, row.Value); err != nil {
			return fmt.Errorf("decode property %s on %s: %w", row.Name, e.ID(), err)
		}
		seen[row.Name] = true

		if t := e.TypeInfo(); t != nil {
			if def, ok := t.LookupDefault(row.Name); ok && reflect.DeepEqual(def.BaseValue(), p.BaseValue()) {
				continue // stored value matches the type default; nothing instance-specific to keep
			}
		}
		p.SetFlag(property.FlagInstance)
		p.SetFlag(property.FlagClean)
		p.SetFlag(property.FlagSeen)
		e.InstallProperty(row.Name, p)
	}

	installTypeDefaults(e, seen)

	if e.Parent() != nil && e.Parent().Domain() != nil {
		e.SetDomain(nil)
		e.Parent().Domain().AddEntity(e)
	}
	return nil
}

// installTypeDefaults materializes an instance copy of every default
// property in e's TypeInfo chain not already present on the instance,
// first-found-wins walking the chain like LookupDefault.
func installTypeDefaults(e *entity.Entity, seen map[string]bool) {
	t := e.TypeInfo()
	if t == nil {
		return
	}
	for cur := t; cur != nil; cur = cur.Parent {
		for name, def := range cur.Defaults {
			if seen[name] {
				continue
			}
			seen[name] = true
			cp := def.Copy()
			cp.SetFlag(property.FlagInstance)
			cp.SetFlag(property.FlagClean)
			cp.SetFlag(property.FlagSeen)
			e.InstallProperty(name, cp)
		}
	}
}

