package property

import "github.com/worldforge-go/simcore/internal/geom"

// ModifierKind is the operation a Modifier applies on top of a property's
// base value.
type ModifierKind int

const (
	ModAdd ModifierKind = iota
	ModSubtract
	ModPrepend
	ModAppend
	ModMultiply
	ModDefault
)

// Modifier is one entry of a property's modifier chain.
type Modifier struct {
	Kind    ModifierKind
	Operand any
}

// Chain is the ordered list of modifiers layered on a property's base value.
//
// Open question: when two modifiers claim the same precedence the
// source iterates them in registration order and this spec preserves that —
// Chain never sorts, it only appends.
type Chain struct {
	mods []Modifier
}

func (c *Chain) Append(m Modifier) { c.mods = append(c.mods, m) }
func (c *Chain) Len() int          { return len(c.mods) }
func (c *Chain) Reset()            { c.mods = c.mods[:0] }

func (c *Chain) Clone() Chain {
	cp := Chain{mods: make([]Modifier, len(c.mods))}
	copy(cp.mods, c.mods)
	return cp
}

// CombineFloat applies the chain to a numeric base value, in registration
// order.
func (c *Chain) CombineFloat(base float64) float64 {
	v := base
	for _, m := range c.mods {
		switch m.Kind {
		case ModAdd:
			if f, ok := toFloat(m.Operand); ok {
				v += f
			}
		case ModSubtract:
			if f, ok := toFloat(m.Operand); ok {
				v -= f
			}
		case ModMultiply:
			if f, ok := toFloat(m.Operand); ok {
				v *= f
			}
		case ModDefault:
			if f, ok := toFloat(m.Operand); ok {
				v = f
			}
		case ModPrepend, ModAppend:
			// no-op for numeric values; only meaningful for string/list.
		}
	}
	return v
}

// CombineString applies prepend/append modifiers to a string base value.
func (c *Chain) CombineString(base string) string {
	v := base
	for _, m := range c.mods {
		switch m.Kind {
		case ModPrepend:
			if s, ok := m.Operand.(string); ok {
				v = s + v
			}
		case ModAppend:
			if s, ok := m.Operand.(string); ok {
				v += s
			}
		case ModDefault:
			if s, ok := m.Operand.(string); ok {
				v = s
			}
		}
	}
	return v
}

// CombineList applies append/prepend modifiers to a list base value.
func (c *Chain) CombineList(base []any) []any {
	v := append([]any(nil), base...)
	for _, m := range c.mods {
		switch m.Kind {
		case ModAppend:
			if items, ok := m.Operand.([]any); ok {
				v = append(v, items...)
			}
		case ModPrepend:
			if items, ok := m.Operand.([]any); ok {
				v = append(append([]any(nil), items...), v...)
			}
		case ModDefault:
			if items, ok := m.Operand.([]any); ok {
				v = append([]any(nil), items...)
			}
		}
	}
	return v
}

// CombineVector3 applies add/subtract/multiply/default modifiers to a
// vector base value.
func (c *Chain) CombineVector3(base geom.Vector3) geom.Vector3 {
	v := base
	for _, m := range c.mods {
		switch m.Kind {
		case ModAdd:
			if o, ok := m.Operand.(geom.Vector3); ok {
				v = v.Add(o)
			}
		case ModSubtract:
			if o, ok := m.Operand.(geom.Vector3); ok {
				v = v.Sub(o)
			}
		case ModMultiply:
			if f, ok := toFloat(m.Operand); ok {
				v = v.Scale(f)
			}
		case ModDefault:
			if o, ok := m.Operand.(geom.Vector3); ok {
				v = o
			}
		}
	}
	return v
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
