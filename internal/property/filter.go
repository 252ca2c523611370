package property

import "github.com/worldforge-go/simcore/internal/eid"

// QueryContext is the {target, actor, tool?} query a filter-predicate
// property evaluates against.
type QueryContext struct {
	Target eid.ID
	Actor  eid.ID
	Tool   eid.ID

	TypeName func(id eid.ID) string
	GetProp  func(id eid.ID, name string) (any, bool)
}

// Predicate reports whether the query context passes; on failure it returns
// a human-readable reason. An empty reason falls back to the filter's
// default message.
type Predicate func(ctx QueryContext) (ok bool, reason string)

// FilterProperty is mover_constraint / move_constraint / contain_constraint /
// destination_constraint: an ordered list of predicates, all of which must
// pass.
type FilterProperty struct {
	Base
	Predicates []Predicate
}

func NewFilter(preds ...Predicate) *FilterProperty {
	return &FilterProperty{Predicates: preds}
}

func (p *FilterProperty) Kind() Kind { return KindFilter }

// BaseValue / SetBaseValue: predicates are constructed in code (type
// defaults, admin-installed rules), not decoded off the wire, so there is
// no wire-element form to round-trip.
func (p *FilterProperty) BaseValue() any          { return nil }
func (p *FilterProperty) SetBaseValue(v any) error { return nil }
func (p *FilterProperty) Get() (any, error)        { return p.Predicates, nil }
func (p *FilterProperty) Set(Owner, string, any) error {
	return nil
}
func (p *FilterProperty) Install(Owner, string) {}
func (p *FilterProperty) Remove(Owner, string)  {}
func (p *FilterProperty) Apply(Owner)           {}
func (p *FilterProperty) Copy() Property {
	cp := *p
	cp.Predicates = append([]Predicate(nil), p.Predicates...)
	return &cp
}

// Evaluate runs every predicate in order and returns the first failure's
// reason, or a default message if the failing predicate didn't supply one.
func (p *FilterProperty) Evaluate(ctx QueryContext) (ok bool, reason string) {
	for _, pred := range p.Predicates {
		if passed, msg := pred(ctx); !passed {
			if msg == "" {
				msg = "You can't move this entity"
			}
			return false, msg
		}
	}
	return true, ""
}
