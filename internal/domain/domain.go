// Package domain implements the pluggable spatial models attached to an
// entity that govern visibility and reach among its children.
package domain

import (
	"github.com/worldforge-go/simcore/internal/entity"
	"github.com/worldforge-go/simcore/internal/op"
)

// DefaultVisibilityDistance is the fallback radius used when an entity has
// no instance VisibilityDistanceProperty.
const DefaultVisibilityDistance = 64.0

const (
	PropVisibilityDistance = "visibility_distance"
	PropReach              = "reach"
	PropContainerAccess    = "container_access"
	PropContainersActive   = "containers_active"
)

// Emitter is the narrow surface a domain needs to push wire operations
// (Appearance/Disappearance/Sight) out to observers; World supplies the
// concrete implementation (enqueue onto the dispatch queue).
type Emitter interface {
	Enqueue(o op.Op)
}

func floatProp(e *entity.Entity, name string, fallback float64) float64 {
	v, err := e.GetProperty(name)
	if err != nil {
		return fallback
	}
	f, ok := v.(float64)
	if !ok {
		return fallback
	}
	return f
}
