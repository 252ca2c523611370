// Package ruleset loads a world's entity type hierarchy — names, parent
// types, and default property values — from a YAML rule file.
package ruleset

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/worldforge-go/simcore/internal/entity"
	"github.com/worldforge-go/simcore/internal/persist"
	"github.com/worldforge-go/simcore/internal/property"
)

type rawType struct {
	Name       string         `yaml:"name"`
	Parent     string         `yaml:"parent"`
	Properties map[string]any `yaml:"properties"`
}

// Set is a loaded ruleset's type table, resolvable by name.
type Set struct {
	types map[string]*entity.TypeInfo
}

// Load reads path as a YAML list of type definitions and builds the
// resulting TypeInfo chain, with every default value constructed through
// reg so that names the registry already knows (mass, admin, mode, ...)
// get their proper concrete property type regardless of the YAML author's
// spelling of the value.
func Load(path string, reg *property.Registry) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ruleset %s: %w", path, err)
	}

	var raws []rawType
	if err := yaml.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("parse ruleset %s: %w", path, err)
	}

	s := &Set{types: make(map[string]*entity.TypeInfo, len(raws))}
	for _, rt := range raws {
		s.types[rt.Name] = entity.NewTypeInfo(rt.Name, nil)
	}
	for _, rt := range raws {
		if rt.Parent == "" {
			continue
		}
		parent, ok := s.types[rt.Parent]
		if !ok {
			return nil, fmt.Errorf("type %q references unknown parent %q", rt.Name, rt.Parent)
		}
		s.types[rt.Name].Parent = parent
	}

	for _, rt := range raws {
		t := s.types[rt.Name]
		for name, val := range rt.Properties {
			p := reg.New(name, guessKind(val))
			blob, err := json.Marshal(map[string]any{"val": val})
			if err != nil {
				return nil, fmt.Errorf("encode default %s.%s: %w", rt.Name, name, err)
			}
			if err := persist.DecodeProperty(p, blob); err != nil {
				return nil, fmt.Errorf("default %s.%s: %w", rt.Name, name, err)
			}
			t.SetDefault(name, p)
		}
	}
	return s, nil
}

// Lookup resolves typeName to its TypeInfo, or nil if unknown — this is
// the persist.TypeLookup the restore pass needs.
func (s *Set) Lookup(typeName string) *entity.TypeInfo { return s.types[typeName] }

// Names returns every type name this set defines, in no particular order —
// used to drive the router's continuation registry after a reload, so any
// op parked waiting on a type this reload introduced gets redelivered.
func (s *Set) Names() []string {
	out := make([]string, 0, len(s.types))
	for name := range s.types {
		out = append(out, name)
	}
	return out
}

func guessKind(val any) property.Kind {
	switch val.(type) {
	case string:
		return property.KindString
	case []any:
		return property.KindList
	case map[string]any:
		return property.KindMap
	default:
		return property.KindNumber
	}
}
