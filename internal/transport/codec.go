package transport

import (
	"encoding/json"
	"fmt"

	"github.com/worldforge-go/simcore/internal/eid"
	"github.com/worldforge-go/simcore/internal/op"
)

// wireOp mirrors the on-the-wire operation envelope field for field:
// parent/from/to/serialno/refno/futureMilliseconds/args.
type wireOp struct {
	Parent             string        `json:"parent"`
	From               string        `json:"from"`
	To                 string        `json:"to"`
	SerialNo           uint64        `json:"serialno"`
	RefNo              uint64        `json:"refno,omitempty"`
	FutureMilliseconds int64         `json:"futureMilliseconds,omitempty"`
	Args               []json.RawMessage `json:"args,omitempty"`
}

// EncodeOp renders o as the wire envelope JSON.
func EncodeOp(o op.Op) ([]byte, error) {
	w, err := toWireOp(o)
	if err != nil {
		return nil, err
	}
	return json.Marshal(w)
}

func toWireOp(o op.Op) (wireOp, error) {
	w := wireOp{
		Parent:             string(o.Class),
		From:               o.From.String(),
		To:                 o.To.String(),
		SerialNo:           o.SerialNo,
		RefNo:              o.RefNo,
		FutureMilliseconds: o.FutureMilliseconds,
	}
	for _, a := range o.Args {
		raw, err := encodeArg(a)
		if err != nil {
			return wireOp{}, err
		}
		w.Args = append(w.Args, raw)
	}
	return w, nil
}

// encodeArg renders one op argument. A nested op.Op or *op.Op (e.g.
// Thought's inner operation) is encoded as its own wire envelope,
// distinguishable on decode by the presence of the "parent" class-name
// field every envelope carries; everything else (entity-reference maps,
// numbers, strings) is encoded as plain JSON.
func encodeArg(a any) (json.RawMessage, error) {
	switch v := a.(type) {
	case op.Op:
		w, err := toWireOp(v)
		if err != nil {
			return nil, err
		}
		return json.Marshal(w)
	case *op.Op:
		w, err := toWireOp(*v)
		if err != nil {
			return nil, err
		}
		return json.Marshal(w)
	case eid.ID:
		return json.Marshal(v.String())
	case map[string]any:
		return json.Marshal(wireMap(v))
	default:
		return json.Marshal(v)
	}
}

// wireMap renders any eid.ID values in m as their wire string form, so an
// entity reference survives regardless of which field it's nested under
// ("Entity-reference wire form: an object with id (string)") —
// every entity-reference map the core builds (move targets, snapshotRef's
// id/parent) is flat, so one level is all this needs to handle.
func wireMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if id, ok := v.(eid.ID); ok {
			out[k] = id.String()
			continue
		}
		out[k] = v
	}
	return out
}

// DecodeOp parses one wire envelope into an op.Op ("Accepts
// already-decoded operations from a transport layer").
func DecodeOp(data []byte) (op.Op, error) {
	var w wireOp
	if err := json.Unmarshal(data, &w); err != nil {
		return op.Op{}, fmt.Errorf("decode op envelope: %w", err)
	}
	return fromWireOp(w)
}

func fromWireOp(w wireOp) (op.Op, error) {
	from, err := eid.Parse(w.From)
	if err != nil && w.From != "" {
		return op.Op{}, err
	}
	to, err := eid.Parse(w.To)
	if err != nil && w.To != "" {
		return op.Op{}, err
	}

	o := op.Op{
		Class:              op.Class(w.Parent),
		From:               from,
		To:                 to,
		SerialNo:           w.SerialNo,
		RefNo:              w.RefNo,
		FutureMilliseconds: w.FutureMilliseconds,
	}
	for _, raw := range w.Args {
		arg, err := decodeArg(raw)
		if err != nil {
			return op.Op{}, err
		}
		o.Args = append(o.Args, arg)
	}
	return o, nil
}

// decodeArg tells a nested operation apart from a generic element by
// probing for the "parent" class-name key every envelope carries.
func decodeArg(raw json.RawMessage) (any, error) {
	var probe struct {
		Parent *string `json:"parent"`
	}
	if err := json.Unmarshal(raw, &probe); err == nil && probe.Parent != nil {
		var w wireOp
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, fmt.Errorf("decode nested op: %w", err)
		}
		inner, err := fromWireOp(w)
		if err != nil {
			return nil, err
		}
		return &inner, nil
	}

	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("decode op arg: %w", err)
	}
	if m, ok := generic.(map[string]any); ok {
		resolveEntityRefs(m)
	}
	return generic, nil
}

// resolveEntityRefs parses any "id"/"parent" string fields in m back into
// eid.ID values, the in-process convention argEntity/resolveTarget and
// mindbody's argEntityID expect regardless of whether the op originated
// locally or crossed the wire.
func resolveEntityRefs(m map[string]any) {
	for _, key := range []string{"id", "parent"} {
		s, ok := m[key].(string)
		if !ok {
			continue
		}
		if id, err := eid.Parse(s); err == nil {
			m[key] = id
		}
	}
}
