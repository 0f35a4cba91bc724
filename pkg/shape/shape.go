// Package shape defines the collision geometry a rigid body carries:
// circles, convex polygons and thick segments, all in body-local space.
package shape

import (
	"errors"

	"github.com/0x5844/physics-2d/pkg/vmath"
)

// MaxPolygonVertices is the largest vertex count a Polygon accepts.
const MaxPolygonVertices = 8

var (
	ErrNotConvex       = errors.New("shape: polygon is not convex")
	ErrDegenerate      = errors.New("shape: degenerate geometry")
	ErrTooManyVertices = errors.New("shape: too many polygon vertices")
)

// Kind tags the concrete shape type. The narrow phase dispatches on pairs
// of kinds.
type Kind uint8

const (
	KindCircle Kind = iota
	KindPolygon
	KindSegment

	// KindCount is the number of shape kinds.
	KindCount
)

func (k Kind) String() string {
	switch k {
	case KindCircle:
		return "circle"
	case KindPolygon:
		return "polygon"
	case KindSegment:
		return "segment"
	default:
		return "unknown"
	}
}

// MassData holds the mass properties of a shape. Inertia is about Center,
// which is expressed in body-local coordinates.
type MassData struct {
	Mass    float64
	Center  vmath.Vector2
	Inertia float64
}

type Shape interface {
	Kind() Kind
	ComputeAABB(xf vmath.Transform) vmath.AABB
	ComputeMass(density float64) MassData
	TestPoint(xf vmath.Transform, p vmath.Vector2) bool
}
