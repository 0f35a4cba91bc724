package shape

import (
	"math"

	"github.com/0x5844/physics-2d/pkg/vmath"
)

// Segment is a line segment inflated by HalfThickness on every side, i.e.
// a capsule. A zero thickness is allowed and gives a massless edge.
type Segment struct {
	A, B          vmath.Vector2
	HalfThickness float64
}

func NewSegment(a, b vmath.Vector2, halfThickness float64) *Segment {
	return &Segment{A: a, B: b, HalfThickness: math.Max(halfThickness, 0)}
}

func (s *Segment) Kind() Kind { return KindSegment }

func (s *Segment) Length() float64 { return s.A.Distance(s.B) }

func (s *Segment) ComputeAABB(xf vmath.Transform) vmath.AABB {
	a := xf.Apply(s.A)
	b := xf.Apply(s.B)
	return vmath.NewAABB(vmath.Min(a, b), vmath.Max(a, b)).Expand(s.HalfThickness)
}

// ComputeMass treats the segment as a rectangle with two half-disc caps.
// The caps' inertia uses the full-disc formula about the cap centres, which
// slightly overestimates it.
func (s *Segment) ComputeMass(density float64) MassData {
	r := s.HalfThickness
	l := s.Length()

	rectMass := density * l * 2 * r
	capMass := density * math.Pi * r * r
	inertia := rectMass*(l*l+4*r*r)/12 + capMass*(0.5*r*r+0.25*l*l)

	return MassData{
		Mass:    rectMass + capMass,
		Center:  s.A.Lerp(s.B, 0.5),
		Inertia: inertia,
	}
}

func (s *Segment) TestPoint(xf vmath.Transform, p vmath.Vector2) bool {
	local := xf.ApplyInverse(p)
	closest := ClosestPointOnSegment(s.A, s.B, local)
	return local.DistanceSquared(closest) <= s.HalfThickness*s.HalfThickness
}

// ClosestPointOnSegment projects p onto ab, clamped to the endpoints.
func ClosestPointOnSegment(a, b, p vmath.Vector2) vmath.Vector2 {
	ab := b.Sub(a)
	lenSq := ab.MagnitudeSquared()
	if lenSq == 0 {
		return a
	}
	t := vmath.Clamp(p.Sub(a).Dot(ab)/lenSq, 0, 1)
	return a.Add(ab.Scale(t))
}
