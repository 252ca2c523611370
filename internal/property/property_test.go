package property

import (
	"testing"

	"github.com/worldforge-go/simcore/internal/geom"
)

func TestNumberPropertySetClearsCleanFlag(t *testing.T) {
	p := NewNumber(4)
	p.SetFlag(FlagClean)
	if err := p.Set(nil, "mass", 5.0); err != nil {
		t.Fatalf("set: %v", err)
	}
	if p.HasFlag(FlagClean) {
		t.Fatal("persistence_clean should be cleared on Set")
	}
	v, _ := p.Get()
	if v.(float64) != 5.0 {
		t.Fatalf("want 5.0 got %v", v)
	}
}

func TestModifierChainOrderPreserved(t *testing.T) {
	p := NewNumber(10)
	p.Modifiers().Append(Modifier{Kind: ModAdd, Operand: 5.0})
	p.Modifiers().Append(Modifier{Kind: ModMultiply, Operand: 2.0})
	v, _ := p.Get()
	// (10 + 5) * 2 = 30, registration order matters.
	if v.(float64) != 30 {
		t.Fatalf("want 30 got %v", v)
	}
}

func TestSetPreservesModifiers(t *testing.T) {
	p := NewNumber(10)
	p.Modifiers().Append(Modifier{Kind: ModAdd, Operand: 1.0})
	if err := p.Set(nil, "mass", 20.0); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, _ := p.Get()
	if v.(float64) != 21 {
		t.Fatalf("want 21 (modifiers preserved across base writes) got %v", v)
	}
}

func TestVector3PropelNormalization(t *testing.T) {
	// magnitude > 1 normalizes to exactly 1; magnitude <= 1 passes through.
	over := geom.Vector3{X: 2, Y: 0, Z: 0}
	if over.Mag() > 1 {
		over = over.Normalize()
	}
	if over.Mag() < 0.999999 || over.Mag() > 1.000001 {
		t.Fatalf("want unit magnitude, got %v", over.Mag())
	}

	under := geom.Vector3{X: 0.3, Y: 0, Z: 0}
	if under.Mag() <= 1 {
		// left unchanged
	}
	if under.X != 0.3 {
		t.Fatalf("sub-unit propel must pass through unchanged, got %v", under)
	}
}

func TestTypeCoercionFailureIsSkipped(t *testing.T) {
	p := NewNumber(1)
	err := p.Set(nil, "mass", "not-a-number")
	if err == nil {
		t.Fatal("expected coercion error")
	}
	v, _ := p.Get()
	if v.(float64) != 1 {
		t.Fatalf("failed Set must not change base value, got %v", v)
	}
}

func TestFilterPropertyFirstFailureWins(t *testing.T) {
	f := NewFilter(
		func(ctx QueryContext) (bool, string) { return true, "" },
		func(ctx QueryContext) (bool, string) { return false, "too heavy" },
		func(ctx QueryContext) (bool, string) { return false, "should not be reached" },
	)
	ok, reason := f.Evaluate(QueryContext{})
	if ok || reason != "too heavy" {
		t.Fatalf("want first failure reason, got ok=%v reason=%q", ok, reason)
	}
}

func TestFilterPropertyDefaultMessage(t *testing.T) {
	f := NewFilter(func(ctx QueryContext) (bool, string) { return false, "" })
	ok, reason := f.Evaluate(QueryContext{})
	if ok || reason != "You can't move this entity" {
		t.Fatalf("want default message, got ok=%v reason=%q", ok, reason)
	}
}
