package collision

import (
	"math"

	"github.com/0x5844/physics-2d/pkg/shape"
	"github.com/0x5844/physics-2d/pkg/vmath"
)

func collideCircles(a shape.Shape, xfA vmath.Transform, b shape.Shape, xfB vmath.Transform) Manifold {
	ca, cb := a.(*shape.Circle), b.(*shape.Circle)

	pA, pB := xfA.Position, xfB.Position
	d := pB.Sub(pA)
	distSq := d.MagnitudeSquared()
	radius := ca.Radius + cb.Radius
	if distSq > radius*radius {
		return Manifold{}
	}

	dist := math.Sqrt(distSq)
	if dist <= epsilon {
		// coincident centres have no meaningful normal
		return Manifold{}
	}

	normal := d.Scale(1 / dist)
	surfaceA := pA.Add(normal.Scale(ca.Radius))
	surfaceB := pB.Sub(normal.Scale(cb.Radius))

	var m Manifold
	m.Normal = normal
	m.addPoint(surfaceA.Lerp(surfaceB, 0.5), radius-dist)
	return m
}

// collideCircleProxy tests a circle against a polygon or segment by
// locating the circle centre in the proxy's face or vertex regions.
func collideCircleProxy(a shape.Shape, xfA vmath.Transform, b shape.Shape, xfB vmath.Transform) Manifold {
	circle := a.(*shape.Circle)
	p, ok := makeProxy(b, xfB)
	if !ok {
		return Manifold{}
	}

	center := xfA.Position
	radius := circle.Radius + p.radius

	normalIndex := 0
	separation := -math.MaxFloat64
	for i := 0; i < p.count; i++ {
		s := p.normals[i].Dot(center.Sub(p.vertices[i]))
		if s > radius {
			return Manifold{}
		}
		if s > separation {
			separation = s
			normalIndex = i
		}
	}

	v1 := p.vertices[normalIndex]
	v2 := p.vertices[(normalIndex+1)%p.count]

	// outward from the proxy towards the circle
	var (
		normal vmath.Vector2
		core   vmath.Vector2
		dist   float64
	)

	u1 := center.Sub(v1).Dot(v2.Sub(v1))
	u2 := center.Sub(v2).Dot(v1.Sub(v2))

	// a segment has no interior, so its end caps win even on the centre line
	inside := separation < epsilon && (p.count > 2 || (u1 > 0 && u2 > 0))

	switch {
	case inside:
		normal = p.normals[normalIndex]
		core = center.Sub(normal.Scale(separation))
		dist = separation
	case u1 <= 0 || u2 <= 0:
		core = v1
		if u1 > 0 {
			core = v2
		}
		d := center.Sub(core)
		distSq := d.MagnitudeSquared()
		if distSq > radius*radius {
			return Manifold{}
		}
		dist = math.Sqrt(distSq)
		if dist <= epsilon {
			return Manifold{}
		}
		normal = d.Scale(1 / dist)
	default:
		normal = p.normals[normalIndex]
		core = center.Sub(normal.Scale(separation))
		dist = separation
	}

	surfaceProxy := core.Add(normal.Scale(p.radius))
	surfaceCircle := center.Sub(normal.Scale(circle.Radius))

	var m Manifold
	m.Normal = normal.Negate()
	m.addPoint(surfaceProxy.Lerp(surfaceCircle, 0.5), radius-dist)
	return m
}
