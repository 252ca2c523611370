package property

import "github.com/worldforge-go/simcore/internal/geom"

// Factory builds a fresh zero-value property of a given kind.
type Factory func() Property

// Registry maps property names to factories, the way CorePropertyManager
// maps attribute names to constructors in the original source: on first
// access or when applying a type default, the registry produces the
// correctly-typed Property, falling back to a generic typed constructor
// when no specific factory is registered for the name.
type Registry struct {
	factories map[string]Factory
}

func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]Factory)}
	r.registerBuiltins()
	return r
}

// Register binds name to a constructor. Re-registering a name overrides it.
func (r *Registry) Register(name string, f Factory) {
	r.factories[name] = f
}

// New produces a new property for name, using its registered factory, or
// the provided fallback kind if the name is unregistered.
func (r *Registry) New(name string, fallback Kind) Property {
	if f, ok := r.factories[name]; ok {
		return f()
	}
	return newDefault(fallback)
}

func newDefault(kind Kind) Property {
	switch kind {
	case KindNumber:
		return NewNumber(0)
	case KindString:
		return NewString("")
	case KindList:
		return NewList(nil)
	case KindMap:
		return NewMap(nil)
	case KindVector3:
		return NewVector3(geom.Vector3{})
	case KindQuaternion:
		return NewQuaternion(geom.IdentityQuat)
	case KindBBox:
		return NewBBox(geom.UnitBBox)
	case KindEntityRef:
		return NewEntityRef(0)
	case KindFilter:
		return NewFilter()
	default:
		return NewNumber(0)
	}
}

func (r *Registry) registerBuiltins() {
	r.Register("mass", func() Property { return NewNumber(1) })
	r.Register("reach", func() Property { return NewNumber(0) })
	r.Register("perception_sight", func() Property { return NewNumber(0) })
	r.Register("_propel", func() Property { return NewVector3(geom.Vector3{}) })
	r.Register("_direction", func() Property { return NewVector3(geom.Vector3{}) })
	r.Register("_destination", func() Property { return NewVector3(geom.Vector3{}) })
	r.Register("mover_constraint", func() Property { return NewFilter() })
	r.Register("move_constraint", func() Property { return NewFilter() })
	r.Register("contain_constraint", func() Property { return NewFilter() })
	r.Register("destination_constraint", func() Property { return NewFilter() })
	r.Register("container_access", func() Property { return NewContainerAccess() })
	r.Register("containers_active", func() Property { return NewContainersActive() })
	r.Register("admin", func() Property { return NewAdmin(false) })
	r.Register("mode", func() Property { return NewString("standing") })
	r.Register("visibility", func() Property { return NewVisibility(true) })
	r.Register("minds", func() Property { return NewMinds() })
}
