package entity

import "github.com/worldforge-go/simcore/internal/property"

// TypeInfo is a hierarchical entity type: a typename, a single parent type,
// and a map of default property values ("TypeInfo").
type TypeInfo struct {
	Name     string
	Parent   *TypeInfo
	Defaults map[string]property.Property
}

func NewTypeInfo(name string, parent *TypeInfo) *TypeInfo {
	return &TypeInfo{
		Name:     name,
		Parent:   parent,
		Defaults: make(map[string]property.Property),
	}
}

// SetDefault installs a default property value for this type.
func (t *TypeInfo) SetDefault(name string, p property.Property) {
	p.SetFlag(property.FlagClassDefault)
	t.Defaults[name] = p
}

// LookupDefault walks the type's parent chain and returns the first
// default found for name.
func (t *TypeInfo) LookupDefault(name string) (property.Property, bool) {
	for cur := t; cur != nil; cur = cur.Parent {
		if p, ok := cur.Defaults[name]; ok {
			return p, true
		}
	}
	return nil, false
}

// IsA reports whether t is typeName or inherits from it.
func (t *TypeInfo) IsA(typeName string) bool {
	for cur := t; cur != nil; cur = cur.Parent {
		if cur.Name == typeName {
			return true
		}
	}
	return false
}
