package property

import "github.com/worldforge-go/simcore/internal/eid"

// ContainerAccessProperty enumerates the observer entities permitted to see
// and reach a ContainerDomain's contents. Setting or removing
// it notifies an optional hook so the domain can keep the cascading
// containers_active back-reference in sync.
type ContainerAccessProperty struct {
	Base
	Value  []eid.ID
	OnChange func(owner Owner, old, new []eid.ID)
}

func NewContainerAccess() *ContainerAccessProperty {
	return &ContainerAccessProperty{}
}

func (p *ContainerAccessProperty) Kind() Kind     { return KindList }
func (p *ContainerAccessProperty) BaseValue() any { return p.Value }
func (p *ContainerAccessProperty) SetBaseValue(v any) error {
	ids, ok := v.([]eid.ID)
	if !ok {
		return errCoercion(KindList, v)
	}
	p.Value = ids
	return nil
}
func (p *ContainerAccessProperty) Get() (any, error) { return p.Value, nil }
func (p *ContainerAccessProperty) Set(owner Owner, name string, v any) error {
	old := p.Value
	if err := p.SetBaseValue(v); err != nil {
		return err
	}
	p.markDirty()
	if p.OnChange != nil {
		p.OnChange(owner, old, p.Value)
	}
	if owner != nil {
		owner.NotifyPropertyChanged(name, p)
	}
	return nil
}
func (p *ContainerAccessProperty) Install(Owner, string) {}
func (p *ContainerAccessProperty) Remove(owner Owner, name string) {
	if p.OnChange != nil && len(p.Value) > 0 {
		p.OnChange(owner, p.Value, nil)
	}
}
func (p *ContainerAccessProperty) Apply(Owner) {}
func (p *ContainerAccessProperty) Copy() Property {
	cp := *p
	cp.Value = append([]eid.ID(nil), p.Value...)
	return &cp
}

// ContainersActiveProperty is the back-reference: the set of containers an
// observer currently has access into. Kept symmetric with
// ContainerAccessProperty: observer O appears in container C's
// ContainerAccess iff C appears in O's ContainersActive.
type ContainersActiveProperty struct {
	Base
	Value []eid.ID
}

func NewContainersActive() *ContainersActiveProperty { return &ContainersActiveProperty{} }

func (p *ContainersActiveProperty) Kind() Kind     { return KindList }
func (p *ContainersActiveProperty) BaseValue() any { return p.Value }
func (p *ContainersActiveProperty) SetBaseValue(v any) error {
	ids, ok := v.([]eid.ID)
	if !ok {
		return errCoercion(KindList, v)
	}
	p.Value = ids
	return nil
}
func (p *ContainersActiveProperty) Get() (any, error) { return p.Value, nil }
func (p *ContainersActiveProperty) Set(owner Owner, name string, v any) error {
	if err := p.SetBaseValue(v); err != nil {
		return err
	}
	p.markDirty()
	if owner != nil {
		owner.NotifyPropertyChanged(name, p)
	}
	return nil
}
func (p *ContainersActiveProperty) Add(id eid.ID) {
	for _, existing := range p.Value {
		if existing == id {
			return
		}
	}
	p.Value = append(p.Value, id)
}
func (p *ContainersActiveProperty) Remove2(id eid.ID) {
	out := p.Value[:0]
	for _, existing := range p.Value {
		if existing != id {
			out = append(out, existing)
		}
	}
	p.Value = out
}
func (p *ContainersActiveProperty) Install(Owner, string) {}
func (p *ContainersActiveProperty) Remove(Owner, string)  {}
func (p *ContainersActiveProperty) Apply(Owner)           {}
func (p *ContainersActiveProperty) Copy() Property {
	cp := *p
	cp.Value = append([]eid.ID(nil), p.Value...)
	return &cp
}

// AdminProperty marks an entity as having administrative privilege. The
// mind<->body filter does not read it: its reach/filter checks apply to
// admin bodies too.
type AdminProperty struct {
	Base
	Value bool
}

func NewAdmin(v bool) *AdminProperty { return &AdminProperty{Value: v} }

func (p *AdminProperty) Kind() Kind     { return KindNumber }
func (p *AdminProperty) BaseValue() any { return p.Value }
func (p *AdminProperty) SetBaseValue(v any) error {
	b, ok := v.(bool)
	if !ok {
		return errCoercion(KindNumber, v)
	}
	p.Value = b
	return nil
}
func (p *AdminProperty) Get() (any, error) { return p.Value, nil }
func (p *AdminProperty) Set(owner Owner, name string, v any) error {
	if err := p.SetBaseValue(v); err != nil {
		return err
	}
	p.markDirty()
	if owner != nil {
		owner.NotifyPropertyChanged(name, p)
	}
	return nil
}
func (p *AdminProperty) Install(Owner, string) {}
func (p *AdminProperty) Remove(Owner, string)  {}
func (p *AdminProperty) Apply(Owner)           {}
func (p *AdminProperty) Copy() Property        { cp := *p; return &cp }

// ModeProperty holds the entity's current stance/animation mode (e.g.
// "standing", "swimming", "dead").
type ModeProperty struct {
	StringProperty
}

func NewMode(v string) *ModeProperty {
	return &ModeProperty{StringProperty: StringProperty{Value: v}}
}

// MindsProperty holds the list of external controllers (clients or AIs)
// currently attached to a body entity ("MindsProperty"). OnEmpty
// fires once the last mind detaches, giving the mind<->body filter a hook
// to zero any in-flight `_propel`.
type MindsProperty struct {
	Base
	Value   []eid.ID
	OnEmpty func(owner Owner)
}

func NewMinds() *MindsProperty { return &MindsProperty{} }

func (p *MindsProperty) Kind() Kind     { return KindList }
func (p *MindsProperty) BaseValue() any { return p.Value }
func (p *MindsProperty) SetBaseValue(v any) error {
	ids, ok := v.([]eid.ID)
	if !ok {
		return errCoercion(KindList, v)
	}
	p.Value = ids
	return nil
}
func (p *MindsProperty) Get() (any, error) { return p.Value, nil }
func (p *MindsProperty) Set(owner Owner, name string, v any) error {
	if err := p.SetBaseValue(v); err != nil {
		return err
	}
	p.markDirty()
	if owner != nil {
		owner.NotifyPropertyChanged(name, p)
	}
	return nil
}
func (p *MindsProperty) Attach(owner Owner, mind eid.ID) {
	for _, existing := range p.Value {
		if existing == mind {
			return
		}
	}
	p.Value = append(p.Value, mind)
}

// Detach removes mind from the list, firing OnEmpty if it was the last one.
func (p *MindsProperty) Detach(owner Owner, mind eid.ID) {
	out := p.Value[:0]
	for _, existing := range p.Value {
		if existing != mind {
			out = append(out, existing)
		}
	}
	p.Value = out
	if len(p.Value) == 0 && p.OnEmpty != nil {
		p.OnEmpty(owner)
	}
}
func (p *MindsProperty) IsControlledBy(mind eid.ID) bool {
	for _, existing := range p.Value {
		if existing == mind {
			return true
		}
	}
	return false
}
func (p *MindsProperty) Install(Owner, string) {}
func (p *MindsProperty) Remove(Owner, string)  {}
func (p *MindsProperty) Apply(Owner)           {}
func (p *MindsProperty) Copy() Property {
	cp := *p
	cp.Value = append([]eid.ID(nil), p.Value...)
	return &cp
}

// VisibilityProperty holds an on/off visibility flag for an entity,
// separate from distance-based visibility. None of the domains reads it:
// their visibility checks do not depend on it.
type VisibilityProperty struct {
	Base
	Value bool
}

func NewVisibility(v bool) *VisibilityProperty { return &VisibilityProperty{Value: v} }

func (p *VisibilityProperty) Kind() Kind     { return KindNumber }
func (p *VisibilityProperty) BaseValue() any { return p.Value }
func (p *VisibilityProperty) SetBaseValue(v any) error {
	b, ok := v.(bool)
	if !ok {
		return errCoercion(KindNumber, v)
	}
	p.Value = b
	return nil
}
func (p *VisibilityProperty) Get() (any, error) { return p.Value, nil }
func (p *VisibilityProperty) Set(owner Owner, name string, v any) error {
	if err := p.SetBaseValue(v); err != nil {
		return err
	}
	p.markDirty()
	if owner != nil {
		owner.NotifyPropertyChanged(name, p)
	}
	return nil
}
func (p *VisibilityProperty) Install(Owner, string) {}
func (p *VisibilityProperty) Remove(Owner, string)  {}
func (p *VisibilityProperty) Apply(Owner)           {}
func (p *VisibilityProperty) Copy() Property        { cp := *p; return &cp }
