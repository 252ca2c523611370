package ruleset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/worldforge-go/simcore/internal/property"
)

const sampleYAML = `
- name: thing
  properties:
    mass: 1.0
    admin: false

- name: character
  parent: thing
  properties:
    mass: 70.0
    mode: "standing"
`

func writeSample(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "types.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o644); err != nil {
		t.Fatalf("write sample ruleset: %v", err)
	}
	return path
}

func TestLoadBuildsParentChain(t *testing.T) {
	path := writeSample(t)
	reg := property.NewRegistry()

	set, err := Load(path, reg)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	thing := set.Lookup("thing")
	if thing == nil {
		t.Fatalf("expected a thing type")
	}
	character := set.Lookup("character")
	if character == nil {
		t.Fatalf("expected a character type")
	}
	if character.Parent != thing {
		t.Fatalf("expected character.Parent == thing, got %+v", character.Parent)
	}
	if set.Lookup("nonexistent") != nil {
		t.Fatalf("expected nil for unknown type")
	}
}

func TestLoadResolvesDefaultsViaParentChain(t *testing.T) {
	path := writeSample(t)
	reg := property.NewRegistry()

	set, err := Load(path, reg)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	character := set.Lookup("character")
	massDefault, ok := character.LookupDefault("mass")
	if !ok {
		t.Fatalf("expected character to have a mass default")
	}
	if v, _ := massDefault.Get(); v != 70.0 {
		t.Fatalf("expected character's own mass override 70.0, got %v", v)
	}

	adminDefault, ok := character.LookupDefault("admin")
	if !ok {
		t.Fatalf("expected character to inherit admin default from thing")
	}
	if v, _ := adminDefault.Get(); v != false {
		t.Fatalf("expected inherited admin default false, got %v", v)
	}
}

func TestLoadRejectsUnknownParent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "types.yaml")
	bad := "- name: orphan\n  parent: missing\n"
	if err := os.WriteFile(path, []byte(bad), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	reg := property.NewRegistry()
	if _, err := Load(path, reg); err == nil {
		t.Fatalf("expected an error for an unknown parent type")
	}
}
