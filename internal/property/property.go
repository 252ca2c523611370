// Package property implements the entity attribute system: typed, flagged
// values with a modifier chain and type-level inheritance.
//
// Property is a tagged variant over value kinds rather than a deep class
// hierarchy: one interface, one embeddable Base, and one small struct per
// value kind — no virtual chain deeper than one.
package property

import (
	"fmt"

	"github.com/worldforge-go/simcore/internal/eid"
	"github.com/worldforge-go/simcore/internal/geom"
)

// Kind identifies a property's value kind.
type Kind int

const (
	KindNumber Kind = iota
	KindString
	KindList
	KindMap
	KindVector3
	KindQuaternion
	KindBBox
	KindEntityRef
	KindFilter
)

// Owner is the minimal surface a property needs from the entity it is
// installed on. entity.Entity implements this; property never imports the
// entity package, which keeps the dependency one-directional.
type Owner interface {
	ID() eid.ID
	Destroyed() bool
	NotifyPropertyChanged(name string, p Property)
}

// Property is implemented by every per-kind value struct below.
type Property interface {
	Kind() Kind
	Flags() Flags
	SetFlag(f Flags)
	ClearFlag(f Flags)
	HasFlag(f Flags) bool

	// BaseValue returns the pre-modifier value, the form persistence stores.
	BaseValue() any
	// SetBaseValue replaces the base value directly, without touching
	// persistence_clean or notifying listeners (used by persistence restore).
	SetBaseValue(v any) error

	// Get resolves the effective value: base value combined with the
	// modifier chain, in registration order.
	Get() (any, error)
	// Set replaces the base value, clears persistence_clean and notifies
	// the owner. Modifiers are preserved across the write.
	Set(owner Owner, name string, v any) error

	Modifiers() *Chain

	Install(owner Owner, name string)
	Remove(owner Owner, name string)
	Apply(owner Owner)

	Copy() Property
}

// Base is embedded by every typed property and implements the flag and
// modifier-chain plumbing shared by all kinds.
type Base struct {
	flags Flags
	chain Chain
}

func (b *Base) Flags() Flags         { return b.flags }
func (b *Base) SetFlag(f Flags)      { b.flags.Set(f) }
func (b *Base) ClearFlag(f Flags)    { b.flags.Clear(f) }
func (b *Base) HasFlag(f Flags) bool { return b.flags.Has(f) }
func (b *Base) Modifiers() *Chain    { return &b.chain }

func (b *Base) markDirty() {
	b.flags.Clear(FlagClean)
}

// errCoercion is returned when a Set call's element can't be coerced to
// the property's kind; callers log and skip the update rather than panic.
func errCoercion(kind Kind, v any) error {
	return fmt.Errorf("property: cannot coerce %T to kind %d", v, kind)
}

// --- NumberProperty ---------------------------------------------------

type NumberProperty struct {
	Base
	Value float64
}

func NewNumber(v float64) *NumberProperty { return &NumberProperty{Value: v} }

func (p *NumberProperty) Kind() Kind       { return KindNumber }
func (p *NumberProperty) BaseValue() any   { return p.Value }
func (p *NumberProperty) SetBaseValue(v any) error {
	f, ok := toFloat(v)
	if !ok {
		return errCoercion(KindNumber, v)
	}
	p.Value = f
	return nil
}
func (p *NumberProperty) Get() (any, error) {
	return p.chain.CombineFloat(p.Value), nil
}
func (p *NumberProperty) Set(owner Owner, name string, v any) error {
	if err := p.SetBaseValue(v); err != nil {
		return err
	}
	p.markDirty()
	if owner != nil {
		owner.NotifyPropertyChanged(name, p)
	}
	return nil
}
func (p *NumberProperty) Install(Owner, string) {}
func (p *NumberProperty) Remove(Owner, string)  {}
func (p *NumberProperty) Apply(Owner)           {}
func (p *NumberProperty) Copy() Property {
	cp := *p
	cp.chain = p.chain.Clone()
	return &cp
}

// --- StringProperty -----------------------------------------------------

type StringProperty struct {
	Base
	Value string
}

func NewString(v string) *StringProperty { return &StringProperty{Value: v} }

func (p *StringProperty) Kind() Kind     { return KindString }
func (p *StringProperty) BaseValue() any { return p.Value }
func (p *StringProperty) SetBaseValue(v any) error {
	s, ok := v.(string)
	if !ok {
		return errCoercion(KindString, v)
	}
	p.Value = s
	return nil
}
func (p *StringProperty) Get() (any, error) {
	return p.chain.CombineString(p.Value), nil
}
func (p *StringProperty) Set(owner Owner, name string, v any) error {
	if err := p.SetBaseValue(v); err != nil {
		return err
	}
	p.markDirty()
	if owner != nil {
		owner.NotifyPropertyChanged(name, p)
	}
	return nil
}
func (p *StringProperty) Install(Owner, string) {}
func (p *StringProperty) Remove(Owner, string)  {}
func (p *StringProperty) Apply(Owner)           {}
func (p *StringProperty) Copy() Property {
	cp := *p
	cp.chain = p.chain.Clone()
	return &cp
}

// --- ListProperty ---------------------------------------------------------

type ListProperty struct {
	Base
	Value []any
}

func NewList(v []any) *ListProperty { return &ListProperty{Value: v} }

func (p *ListProperty) Kind() Kind     { return KindList }
func (p *ListProperty) BaseValue() any { return p.Value }
func (p *ListProperty) SetBaseValue(v any) error {
	l, ok := v.([]any)
	if !ok {
		return errCoercion(KindList, v)
	}
	p.Value = l
	return nil
}
func (p *ListProperty) Get() (any, error) {
	return p.chain.CombineList(p.Value), nil
}
func (p *ListProperty) Set(owner Owner, name string, v any) error {
	if err := p.SetBaseValue(v); err != nil {
		return err
	}
	p.markDirty()
	if owner != nil {
		owner.NotifyPropertyChanged(name, p)
	}
	return nil
}
func (p *ListProperty) Install(Owner, string) {}
func (p *ListProperty) Remove(Owner, string)  {}
func (p *ListProperty) Apply(Owner)           {}
func (p *ListProperty) Copy() Property {
	cp := *p
	cp.Value = append([]any(nil), p.Value...)
	cp.chain = p.chain.Clone()
	return &cp
}

// --- MapProperty ----------------------------------------------------------

type MapProperty struct {
	Base
	Value map[string]any
}

func NewMap(v map[string]any) *MapProperty { return &MapProperty{Value: v} }

func (p *MapProperty) Kind() Kind     { return KindMap }
func (p *MapProperty) BaseValue() any { return p.Value }
func (p *MapProperty) SetBaseValue(v any) error {
	m, ok := v.(map[string]any)
	if !ok {
		return errCoercion(KindMap, v)
	}
	p.Value = m
	return nil
}
func (p *MapProperty) Get() (any, error) { return p.Value, nil }
func (p *MapProperty) Set(owner Owner, name string, v any) error {
	if err := p.SetBaseValue(v); err != nil {
		return err
	}
	p.markDirty()
	if owner != nil {
		owner.NotifyPropertyChanged(name, p)
	}
	return nil
}
func (p *MapProperty) Install(Owner, string) {}
func (p *MapProperty) Remove(Owner, string)  {}
func (p *MapProperty) Apply(Owner)           {}
func (p *MapProperty) Copy() Property {
	cp := *p
	m := make(map[string]any, len(p.Value))
	for k, v := range p.Value {
		m[k] = v
	}
	cp.Value = m
	cp.chain = p.chain.Clone()
	return &cp
}

// --- Vector3Property --------------------------------------------------

type Vector3Property struct {
	Base
	Value geom.Vector3
}

func NewVector3(v geom.Vector3) *Vector3Property { return &Vector3Property{Value: v} }

func (p *Vector3Property) Kind() Kind     { return KindVector3 }
func (p *Vector3Property) BaseValue() any { return p.Value }
func (p *Vector3Property) SetBaseValue(v any) error {
	vec, ok := v.(geom.Vector3)
	if !ok {
		return errCoercion(KindVector3, v)
	}
	p.Value = vec
	return nil
}
func (p *Vector3Property) Get() (any, error) {
	return p.chain.CombineVector3(p.Value), nil
}
func (p *Vector3Property) Set(owner Owner, name string, v any) error {
	if err := p.SetBaseValue(v); err != nil {
		return err
	}
	p.markDirty()
	if owner != nil {
		owner.NotifyPropertyChanged(name, p)
	}
	return nil
}
func (p *Vector3Property) Install(Owner, string) {}
func (p *Vector3Property) Remove(Owner, string)  {}
func (p *Vector3Property) Apply(Owner)           {}
func (p *Vector3Property) Copy() Property {
	cp := *p
	cp.chain = p.chain.Clone()
	return &cp
}

// --- QuaternionProperty -----------------------------------------------

type QuaternionProperty struct {
	Base
	Value geom.Quaternion
}

func NewQuaternion(v geom.Quaternion) *QuaternionProperty { return &QuaternionProperty{Value: v} }

func (p *QuaternionProperty) Kind() Kind     { return KindQuaternion }
func (p *QuaternionProperty) BaseValue() any { return p.Value }
func (p *QuaternionProperty) SetBaseValue(v any) error {
	q, ok := v.(geom.Quaternion)
	if !ok {
		return errCoercion(KindQuaternion, v)
	}
	p.Value = q
	return nil
}
func (p *QuaternionProperty) Get() (any, error) { return p.Value, nil }
func (p *QuaternionProperty) Set(owner Owner, name string, v any) error {
	if err := p.SetBaseValue(v); err != nil {
		return err
	}
	p.markDirty()
	if owner != nil {
		owner.NotifyPropertyChanged(name, p)
	}
	return nil
}
func (p *QuaternionProperty) Install(Owner, string) {}
func (p *QuaternionProperty) Remove(Owner, string)  {}
func (p *QuaternionProperty) Apply(Owner)           {}
func (p *QuaternionProperty) Copy() Property {
	cp := *p
	cp.chain = p.chain.Clone()
	return &cp
}

// --- BBoxProperty -----------------------------------------------------

type BBoxProperty struct {
	Base
	Value geom.AxisBox3
}

func NewBBox(v geom.AxisBox3) *BBoxProperty { return &BBoxProperty{Value: v} }

func (p *BBoxProperty) Kind() Kind     { return KindBBox }
func (p *BBoxProperty) BaseValue() any { return p.Value }
func (p *BBoxProperty) SetBaseValue(v any) error {
	b, ok := v.(geom.AxisBox3)
	if !ok {
		return errCoercion(KindBBox, v)
	}
	p.Value = b
	return nil
}
func (p *BBoxProperty) Get() (any, error) { return p.Value, nil }
func (p *BBoxProperty) Set(owner Owner, name string, v any) error {
	if err := p.SetBaseValue(v); err != nil {
		return err
	}
	p.markDirty()
	if owner != nil {
		owner.NotifyPropertyChanged(name, p)
	}
	return nil
}
func (p *BBoxProperty) Install(Owner, string) {}
func (p *BBoxProperty) Remove(Owner, string)  {}
func (p *BBoxProperty) Apply(Owner)           {}
func (p *BBoxProperty) Copy() Property {
	cp := *p
	cp.chain = p.chain.Clone()
	return &cp
}

// --- EntityRefProperty --------------------------------------------------

// EntityRefProperty holds an entity id, resolved via the World registry at
// read time, never as a raw pointer ("Cyclic references").
type EntityRefProperty struct {
	Base
	Value eid.ID
}

func NewEntityRef(id eid.ID) *EntityRefProperty { return &EntityRefProperty{Value: id} }

func (p *EntityRefProperty) Kind() Kind     { return KindEntityRef }
func (p *EntityRefProperty) BaseValue() any { return p.Value }
func (p *EntityRefProperty) SetBaseValue(v any) error {
	id, ok := v.(eid.ID)
	if !ok {
		return errCoercion(KindEntityRef, v)
	}
	p.Value = id
	return nil
}
func (p *EntityRefProperty) Get() (any, error) { return p.Value, nil }
func (p *EntityRefProperty) Set(owner Owner, name string, v any) error {
	if err := p.SetBaseValue(v); err != nil {
		return err
	}
	p.markDirty()
	if owner != nil {
		owner.NotifyPropertyChanged(name, p)
	}
	return nil
}
func (p *EntityRefProperty) Install(Owner, string) {}
func (p *EntityRefProperty) Remove(Owner, string)  {}
func (p *EntityRefProperty) Apply(Owner)           {}
func (p *EntityRefProperty) Copy() Property {
	cp := *p
	cp.chain = p.chain.Clone()
	return &cp
}
