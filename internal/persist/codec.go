package persist

import (
	"encoding/json"
	"fmt"

	"github.com/worldforge-go/simcore/internal/eid"
	"github.com/worldforge-go/simcore/internal/entity"
	"github.com/worldforge-go/simcore/internal/geom"
	"github.com/worldforge-go/simcore/internal/property"
)

// valueEnvelope wraps a property's value as `{"val": <element>}`, a
// self-describing blob that carries its own decoding hint via the element's
// JSON shape.
type valueEnvelope struct {
	Val any `json:"val"`
}

// EncodeProperty serializes a property's base value (pre-modifier — a
// property with active modifiers still persists its unmodified base value)
// into its value_blob form. FilterProperty predicates are code-constructed,
// not wire data, so they encode to a null val and are skipped by callers
// that check IsPersistable.
func EncodeProperty(p property.Property) ([]byte, error) {
	el, err := wireElement(p)
	if err != nil {
		return nil, err
	}
	return json.Marshal(valueEnvelope{Val: el})
}

// IsPersistable reports whether p carries a value worth writing at all —
// FilterProperty predicates are excluded since they are never decoded off
// the wire and have nothing to round-trip.
func IsPersistable(p property.Property) bool {
	_, isFilter := p.(*property.FilterProperty)
	return !isFilter
}

func wireElement(p property.Property) (any, error) {
	switch t := p.(type) {
	case *property.NumberProperty:
		return t.BaseValue(), nil
	case *property.StringProperty:
		return t.BaseValue(), nil
	case *property.ModeProperty:
		return t.BaseValue(), nil
	case *property.ListProperty:
		return t.BaseValue(), nil
	case *property.MapProperty:
		return t.BaseValue(), nil
	case *property.Vector3Property:
		return t.BaseValue(), nil
	case *property.QuaternionProperty:
		return t.BaseValue(), nil
	case *property.BBoxProperty:
		return t.BaseValue(), nil
	case *property.EntityRefProperty:
		id, _ := t.BaseValue().(eid.ID)
		return encodeID(id), nil
	case *property.ContainerAccessProperty:
		return encodeIDList(t.Value), nil
	case *property.ContainersActiveProperty:
		return encodeIDList(t.Value), nil
	case *property.MindsProperty:
		return encodeIDList(t.Value), nil
	case *property.AdminProperty:
		return t.BaseValue(), nil
	case *property.VisibilityProperty:
		return t.BaseValue(), nil
	case *property.FilterProperty:
		return nil, nil
	default:
		return nil, fmt.Errorf("persist: no wire encoding for property type %T", p)
	}
}

// DecodeProperty rebuilds the base value carried by a value_blob into the
// property p already holds (constructed by the registry for the right
// concrete type, per §4.A resolution) and installs it via SetBaseValue —
// restore never goes through Set, which would re-dirty and re-notify.
func DecodeProperty(p property.Property, blob []byte) error {
	var env valueEnvelope
	if err := json.Unmarshal(blob, &env); err != nil {
		return fmt.Errorf("decode value envelope: %w", err)
	}
	v, err := decodeElement(p, env.Val)
	if err != nil {
		return err
	}
	return p.SetBaseValue(v)
}

func decodeElement(p property.Property, raw any) (any, error) {
	switch p.(type) {
	case *property.NumberProperty:
		f, ok := toFloat(raw)
		if !ok {
			return nil, fmt.Errorf("persist: expected number, got %T", raw)
		}
		return f, nil
	case *property.StringProperty, *property.ModeProperty:
		s, _ := raw.(string)
		return s, nil
	case *property.AdminProperty, *property.VisibilityProperty:
		b, _ := raw.(bool)
		return b, nil
	case *property.ListProperty:
		l, _ := raw.([]any)
		return l, nil
	case *property.MapProperty:
		m, _ := raw.(map[string]any)
		return m, nil
	case *property.Vector3Property:
		return decodeVector3(raw)
	case *property.QuaternionProperty:
		return decodeQuaternion(raw)
	case *property.BBoxProperty:
		return decodeBBox(raw)
	case *property.EntityRefProperty:
		return decodeID(raw)
	case *property.ContainerAccessProperty, *property.ContainersActiveProperty, *property.MindsProperty:
		return decodeIDList(raw)
	case *property.FilterProperty:
		return nil, nil
	default:
		return nil, fmt.Errorf("persist: no wire decoding for property type %T", p)
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func encodeID(id eid.ID) float64 { return float64(uint64(id)) }

func decodeID(raw any) (eid.ID, error) {
	f, ok := toFloat(raw)
	if !ok {
		return eid.Zero, fmt.Errorf("persist: expected entity id number, got %T", raw)
	}
	return eid.ID(uint64(f)), nil
}

func encodeIDList(ids []eid.ID) []float64 {
	out := make([]float64, len(ids))
	for i, id := range ids {
		out[i] = encodeID(id)
	}
	return out
}

func decodeIDList(raw any) ([]eid.ID, error) {
	l, ok := raw.([]any)
	if !ok {
		return nil, nil
	}
	out := make([]eid.ID, 0, len(l))
	for _, el := range l {
		id, err := decodeID(el)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

func decodeVector3(raw any) (geom.Vector3, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return geom.Vector3{}, fmt.Errorf("persist: expected vector3 object, got %T", raw)
	}
	x, _ := toFloat(m["X"])
	y, _ := toFloat(m["Y"])
	z, _ := toFloat(m["Z"])
	return geom.Vector3{X: x, Y: y, Z: z}, nil
}

func decodeQuaternion(raw any) (geom.Quaternion, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return geom.Quaternion{}, fmt.Errorf("persist: expected quaternion object, got %T", raw)
	}
	w, _ := toFloat(m["W"])
	x, _ := toFloat(m["X"])
	y, _ := toFloat(m["Y"])
	z, _ := toFloat(m["Z"])
	return geom.Quaternion{W: w, X: x, Y: y, Z: z}, nil
}

func decodeBBox(raw any) (geom.AxisBox3, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return geom.AxisBox3{}, fmt.Errorf("persist: expected bbox object, got %T", raw)
	}
	low, err := decodeVector3(m["Low"])
	if err != nil {
		return geom.AxisBox3{}, err
	}
	high, err := decodeVector3(m["High"])
	if err != nil {
		return geom.AxisBox3{}, err
	}
	return geom.AxisBox3{Low: low, High: high}, nil
}

// locationBlob is the self-describing map persisted alongside each entity
// row: pos, orientation, velocity, bbox, and scale.
type locationBlob struct {
	Pos         geom.Vector3    `json:"pos"`
	Orientation geom.Quaternion `json:"orientation"`
	Velocity    geom.Vector3    `json:"velocity"`
	BBox        geom.AxisBox3   `json:"bbox"`
	Scale       geom.Vector3    `json:"scale"`
}

// EncodeLocation serializes an entity's Location into its location_blob form.
func EncodeLocation(loc entity.Location) ([]byte, error) {
	return json.Marshal(locationBlob{
		Pos:         loc.Position,
		Orientation: loc.Orientation,
		Velocity:    loc.Velocity,
		BBox:        loc.BBox,
		Scale:       loc.Scale,
	})
}

// DecodeLocation parses a location_blob back into an entity.Location.
func DecodeLocation(blob []byte) (entity.Location, error) {
	if len(blob) == 0 {
		return entity.Location{}, nil
	}
	var lb locationBlob
	if err := json.Unmarshal(blob, &lb); err != nil {
		return entity.Location{}, fmt.Errorf("decode location blob: %w", err)
	}
	return entity.Location{
		Position:    lb.Pos,
		Orientation: lb.Orientation,
		Velocity:    lb.Velocity,
		BBox:        lb.BBox,
		Scale:       lb.Scale,
	}, nil
}
