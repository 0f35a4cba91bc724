package shape

import (
	"math"

	"github.com/0x5844/physics-2d/pkg/vmath"
)

// Circle is centred on the body origin.
type Circle struct {
	Radius float64
}

func NewCircle(radius float64) *Circle {
	return &Circle{Radius: radius}
}

func (c *Circle) Kind() Kind { return KindCircle }

func (c *Circle) ComputeAABB(xf vmath.Transform) vmath.AABB {
	r := vmath.NewVector2(c.Radius, c.Radius)
	return vmath.NewAABB(xf.Position.Sub(r), xf.Position.Add(r))
}

func (c *Circle) ComputeMass(density float64) MassData {
	mass := density * math.Pi * c.Radius * c.Radius
	return MassData{
		Mass:    mass,
		Inertia: 0.5 * mass * c.Radius * c.Radius,
	}
}

func (c *Circle) TestPoint(xf vmath.Transform, p vmath.Vector2) bool {
	return p.DistanceSquared(xf.Position) <= c.Radius*c.Radius
}
