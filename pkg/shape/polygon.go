package shape

import (
	"fmt"
	"math"
	"slices"

	"github.com/0x5844/physics-2d/pkg/decomp"
	"github.com/0x5844/physics-2d/pkg/vmath"
)

// Polygon is a convex polygon wound counter-clockwise. Its centroid and
// outward edge normals are computed once at construction.
type Polygon struct {
	vertices []vmath.Vector2
	normals  []vmath.Vector2
	centroid vmath.Vector2
}

// NewPolygon validates vertices and builds a polygon from them. Clockwise
// input is re-wound and collinear vertices are dropped.
func NewPolygon(vertices []vmath.Vector2) (*Polygon, error) {
	if len(vertices) < 3 {
		return nil, fmt.Errorf("%w: %d vertices", ErrDegenerate, len(vertices))
	}

	verts := decomp.CollinearSimplify(decomp.ForceCounterClockwise(vertices), decomp.Epsilon)
	if len(verts) < 3 || decomp.SignedArea(verts) <= decomp.Epsilon {
		return nil, ErrDegenerate
	}
	if len(verts) > MaxPolygonVertices {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyVertices, len(verts), MaxPolygonVertices)
	}

	n := len(verts)
	normals := make([]vmath.Vector2, n)
	for i := 0; i < n; i++ {
		edge := verts[(i+1)%n].Sub(verts[i])
		if edge.MagnitudeSquared() <= decomp.Epsilon*decomp.Epsilon {
			return nil, fmt.Errorf("%w: repeated vertex %d", ErrDegenerate, i)
		}
		next := verts[(i+2)%n].Sub(verts[(i+1)%n])
		if edge.Cross(next) <= 0 {
			return nil, ErrNotConvex
		}
		normals[i] = vmath.CrossVS(edge, 1).Normalize()
	}

	p := &Polygon{vertices: verts, normals: normals}
	p.centroid = p.ComputeMass(1).Center
	return p, nil
}

// NewBox returns a width×height rectangle centred on the origin.
func NewBox(width, height float64) *Polygon {
	hw, hh := width*0.5, height*0.5
	p, err := NewPolygon([]vmath.Vector2{
		{X: -hw, Y: -hh},
		{X: hw, Y: -hh},
		{X: hw, Y: hh},
		{X: -hw, Y: hh},
	})
	if err != nil {
		panic(fmt.Sprintf("shape: invalid box %gx%g: %v", width, height, err))
	}
	return p
}

// NewConvexPolygons decomposes a simple outline of any winding into convex
// polygons of at most maxVertices vertices each.
func NewConvexPolygons(outline []vmath.Vector2, maxVertices int) ([]*Polygon, error) {
	maxVertices = min(maxVertices, MaxPolygonVertices)

	parts := decomp.Decompose(outline, decomp.WithMaxVertices(maxVertices))
	if len(parts) == 0 {
		return nil, ErrDegenerate
	}

	polys := make([]*Polygon, 0, len(parts))
	for i, part := range parts {
		p, err := NewPolygon(part)
		if err != nil {
			return nil, fmt.Errorf("part %d: %w", i, err)
		}
		polys = append(polys, p)
	}
	return polys, nil
}

func (p *Polygon) Kind() Kind { return KindPolygon }

// Vertices returns a copy of the local vertices.
func (p *Polygon) Vertices() []vmath.Vector2 { return slices.Clone(p.vertices) }

// Normals returns a copy of the local outward edge normals. Normal i
// belongs to the edge from vertex i to vertex i+1.
func (p *Polygon) Normals() []vmath.Vector2 { return slices.Clone(p.normals) }

func (p *Polygon) VertexCount() int { return len(p.vertices) }

func (p *Polygon) Vertex(i int) vmath.Vector2 { return p.vertices[i] }

func (p *Polygon) Normal(i int) vmath.Vector2 { return p.normals[i] }

func (p *Polygon) Centroid() vmath.Vector2 { return p.centroid }

func (p *Polygon) ComputeAABB(xf vmath.Transform) vmath.AABB {
	lower := xf.Apply(p.vertices[0])
	upper := lower
	for _, v := range p.vertices[1:] {
		w := xf.Apply(v)
		lower = vmath.Min(lower, w)
		upper = vmath.Max(upper, w)
	}
	return vmath.NewAABB(lower, upper)
}

// ComputeMass integrates over the triangle fan from the first vertex.
func (p *Polygon) ComputeMass(density float64) MassData {
	var (
		center  vmath.Vector2
		area    float64
		inertia float64
	)

	s := p.vertices[0]
	n := len(p.vertices)
	const inv3 = 1.0 / 3.0

	for i := 0; i < n; i++ {
		e1 := p.vertices[i].Sub(s)
		e2 := p.vertices[(i+1)%n].Sub(s)

		d := e1.Cross(e2)
		triArea := 0.5 * d
		area += triArea
		center = center.Add(e1.Add(e2).Scale(triArea * inv3))

		intx2 := e1.X*e1.X + e2.X*e1.X + e2.X*e2.X
		inty2 := e1.Y*e1.Y + e2.Y*e1.Y + e2.Y*e2.Y
		inertia += (0.25 * inv3 * d) * (intx2 + inty2)
	}

	if area <= 0 {
		return MassData{Center: s}
	}

	mass := density * area
	center = center.Scale(1 / area)

	return MassData{
		Mass:    mass,
		Center:  center.Add(s),
		Inertia: math.Max(density*inertia-mass*center.Dot(center), 0),
	}
}

func (p *Polygon) TestPoint(xf vmath.Transform, point vmath.Vector2) bool {
	local := xf.ApplyInverse(point)
	for i, n := range p.normals {
		if n.Dot(local.Sub(p.vertices[i])) > 0 {
			return false
		}
	}
	return true
}
