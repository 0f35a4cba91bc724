package collision

import (
	"math"

	"github.com/0x5844/physics-2d/pkg/shape"
	"github.com/0x5844/physics-2d/pkg/vmath"
)

// proxy is a convex shape in world space: a polygon or a segment seen as a
// two-sided 2-gon, inflated by radius.
type proxy struct {
	vertices [shape.MaxPolygonVertices]vmath.Vector2
	normals  [shape.MaxPolygonVertices]vmath.Vector2
	count    int
	radius   float64
}

// makeProxy returns false for shapes that cannot act as a proxy or that
// collapse to a point.
func makeProxy(s shape.Shape, xf vmath.Transform) (proxy, bool) {
	var p proxy
	switch s := s.(type) {
	case *shape.Polygon:
		p.count = s.VertexCount()
		for i := 0; i < p.count; i++ {
			p.vertices[i] = xf.Apply(s.Vertex(i))
			p.normals[i] = xf.Rotation.Apply(s.Normal(i))
		}
		return p, true
	case *shape.Segment:
		a, b := xf.Apply(s.A), xf.Apply(s.B)
		edge := b.Sub(a)
		if edge.MagnitudeSquared() <= epsilon*epsilon {
			return p, false
		}
		n := vmath.CrossVS(edge, 1).Normalize()
		p.count = 2
		p.vertices[0], p.vertices[1] = a, b
		p.normals[0], p.normals[1] = n, n.Negate()
		p.radius = s.HalfThickness
		return p, true
	default:
		return p, false
	}
}

const epsilon = 1.1920929e-7

// collideProxies is the separating axis test with reference face clipping.
func collideProxies(a shape.Shape, xfA vmath.Transform, b shape.Shape, xfB vmath.Transform) Manifold {
	pa, okA := makeProxy(a, xfA)
	pb, okB := makeProxy(b, xfB)
	if !okA || !okB {
		return Manifold{}
	}

	totalRadius := pa.radius + pb.radius

	edgeA, separationA := findMaxSeparation(&pa, &pb)
	if separationA > totalRadius {
		return Manifold{}
	}
	edgeB, separationB := findMaxSeparation(&pb, &pa)
	if separationB > totalRadius {
		return Manifold{}
	}

	const tolerance = 0.1 * LinearSlop
	switch {
	case separationB > separationA+tolerance:
		if m, ok := clipReference(&pb, edgeB, &pa, totalRadius); ok {
			return m.Flip()
		}
		return Manifold{}
	case separationA > separationB+tolerance:
		m, _ := clipReference(&pa, edgeA, &pb, totalRadius)
		return m
	}

	// Both faces are within tolerance. Clip against each and keep the
	// preferred one so that swapping the arguments yields the same contact.
	mA, okA := clipReference(&pa, edgeA, &pb, totalRadius)
	mB, okB := clipReference(&pb, edgeB, &pa, totalRadius)
	switch {
	case !okA && !okB:
		return Manifold{}
	case !okB:
		return mA
	case !okA:
		return mB.Flip()
	case preferReference(mB, separationB, mA, separationA):
		return mB.Flip()
	default:
		return mA
	}
}

// clipReference clips the incident face of inc against face edge of ref.
// The manifold normal points from ref to inc.
func clipReference(ref *proxy, edge int, inc *proxy, totalRadius float64) (Manifold, bool) {
	incident := findIncidentEdge(ref, edge, inc)

	iv1 := edge
	iv2 := (edge + 1) % ref.count
	v11 := ref.vertices[iv1]
	v12 := ref.vertices[iv2]

	tangent := v12.Sub(v11).Normalize()
	normal := vmath.CrossVS(tangent, 1)

	frontOffset := normal.Dot(v11)
	sideOffset1 := -tangent.Dot(v11) + totalRadius
	sideOffset2 := tangent.Dot(v12) + totalRadius

	clip1, n := clipSegmentToLine(incident, tangent.Negate(), sideOffset1)
	if n < 2 {
		return Manifold{}, false
	}
	clip2, n := clipSegmentToLine(clip1, tangent, sideOffset2)
	if n < 2 {
		return Manifold{}, false
	}

	var m Manifold
	m.Normal = normal
	for _, v := range clip2 {
		separation := normal.Dot(v) - frontOffset
		if separation > totalRadius {
			continue
		}
		// midway between the reference and incident surfaces
		point := v.Add(normal.Scale(0.5 * (ref.radius - separation - inc.radius)))
		m.addPoint(point, totalRadius-separation)
	}
	if m.Count == 0 {
		return Manifold{}, false
	}
	return m, true
}

// preferReference is a strict order over candidate manifolds that depends
// only on their values: larger face separation first, then more points,
// then shallower contact, then point and normal coordinates.
func preferReference(a Manifold, sepA float64, b Manifold, sepB float64) bool {
	if sepA != sepB {
		return sepA > sepB
	}
	if a.Count != b.Count {
		return a.Count > b.Count
	}
	var depthA, depthB float64
	for i := 0; i < a.Count; i++ {
		depthA += a.Depths[i]
		depthB += b.Depths[i]
	}
	if depthA != depthB {
		return depthA < depthB
	}
	for i := 0; i < a.Count; i++ {
		if c := compareVectors(a.Points[i], b.Points[i]); c != 0 {
			return c < 0
		}
	}
	return compareVectors(a.Normal, b.Normal) < 0
}

func compareVectors(a, b vmath.Vector2) int {
	switch {
	case a.X != b.X:
		if a.X < b.X {
			return -1
		}
		return 1
	case a.Y != b.Y:
		if a.Y < b.Y {
			return -1
		}
		return 1
	}
	return 0
}

// findMaxSeparation returns the face of p1 whose plane separates p2 the
// most, together with that separation.
func findMaxSeparation(p1, p2 *proxy) (int, float64) {
	bestIndex := 0
	maxSeparation := -math.MaxFloat64
	for i := 0; i < p1.count; i++ {
		n := p1.normals[i]
		v1 := p1.vertices[i]

		si := math.MaxFloat64
		for j := 0; j < p2.count; j++ {
			sij := n.Dot(p2.vertices[j].Sub(v1))
			if sij < si {
				si = sij
			}
		}

		if si > maxSeparation {
			maxSeparation = si
			bestIndex = i
		}
	}
	return bestIndex, maxSeparation
}

// findIncidentEdge picks the face of inc most anti-parallel to the
// reference face normal.
func findIncidentEdge(ref *proxy, edge int, inc *proxy) [2]vmath.Vector2 {
	normal := ref.normals[edge]

	index := 0
	minDot := math.MaxFloat64
	for i := 0; i < inc.count; i++ {
		dot := normal.Dot(inc.normals[i])
		if dot < minDot {
			minDot = dot
			index = i
		}
	}

	return [2]vmath.Vector2{
		inc.vertices[index],
		inc.vertices[(index+1)%inc.count],
	}
}

// clipSegmentToLine keeps the part of the segment behind the plane
// normal·x = offset.
func clipSegmentToLine(in [2]vmath.Vector2, normal vmath.Vector2, offset float64) ([2]vmath.Vector2, int) {
	var out [2]vmath.Vector2
	count := 0

	d0 := normal.Dot(in[0]) - offset
	d1 := normal.Dot(in[1]) - offset

	if d0 <= 0 {
		out[count] = in[0]
		count++
	}
	if d1 <= 0 {
		out[count] = in[1]
		count++
	}

	if d0*d1 < 0 {
		interp := d0 / (d0 - d1)
		out[count] = in[0].Lerp(in[1], interp)
		count++
	}
	return out, count
}
