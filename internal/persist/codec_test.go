package persist

import (
	"testing"

	"github.com/worldforge-go/simcore/internal/eid"
	"github.com/worldforge-go/simcore/internal/entity"
	"github.com/worldforge-go/simcore/internal/geom"
	"github.com/worldforge-go/simcore/internal/property"
)

func TestEncodeDecodeNumberProperty(t *testing.T) {
	p := property.NewNumber(4)
	blob, err := EncodeProperty(p)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	out := property.NewNumber(0)
	if err := DecodeProperty(out, blob); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Value != 4 {
		t.Fatalf("expected 4, got %v", out.Value)
	}
}

func TestEncodeDecodeVector3Property(t *testing.T) {
	p := property.NewVector3(geom.Vector3{X: 1, Y: 0, Z: 0})
	blob, err := EncodeProperty(p)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	out := property.NewVector3(geom.Vector3{})
	if err := DecodeProperty(out, blob); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Value != (geom.Vector3{X: 1, Y: 0, Z: 0}) {
		t.Fatalf("expected [1,0,0], got %+v", out.Value)
	}
}

func TestEncodeDecodeContainerAccessProperty(t *testing.T) {
	p := property.NewContainerAccess()
	_ = p.SetBaseValue([]eid.ID{eid.New(1, 0), eid.New(2, 0)})
	blob, err := EncodeProperty(p)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	out := property.NewContainerAccess()
	if err := DecodeProperty(out, blob); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Value) != 2 || out.Value[0] != eid.New(1, 0) || out.Value[1] != eid.New(2, 0) {
		t.Fatalf("unexpected round-trip: %+v", out.Value)
	}
}

func TestFilterPropertyIsNotPersistable(t *testing.T) {
	if IsPersistable(property.NewFilter()) {
		t.Fatal("expected FilterProperty to be excluded from persistence")
	}
}

func TestLocationRoundTrip(t *testing.T) {
	loc := entity.Location{
		Position:    geom.Vector3{X: 1, Y: 2, Z: 3},
		Orientation: geom.Quaternion{W: 1},
		Velocity:    geom.Vector3{X: 0, Y: 0, Z: 1},
		BBox:        geom.UnitBBox,
		Scale:       geom.Vector3{X: 1, Y: 1, Z: 1},
	}
	blob, err := EncodeLocation(loc)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := DecodeLocation(blob)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Position != loc.Position || out.BBox != loc.BBox {
		t.Fatalf("expected round-trip location, got %+v", out)
	}
}
