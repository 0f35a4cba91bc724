// Package decomp splits simple polygons into convex pieces using Mark
// Bayazit's decomposition.
//
// The input must be a simple polygon: no self intersections, no repeated
// vertices and a non-zero area. Feeding anything else is a precondition
// violation and the output is unspecified; it is not detected or repaired.
package decomp

import (
	"math"

	"github.com/0x5844/physics-2d/pkg/vmath"
)

const (
	// Epsilon is the tolerance for parallel and degenerate line tests.
	Epsilon = 1.1920929e-7

	DefaultMaxVertices = 6
	minVertices        = 3
)

type options struct {
	maxVertices int
}

type Option func(*options)

// WithMaxVertices bounds the vertex count of every output polygon.
// Values below 3 are raised to 3.
func WithMaxVertices(n int) Option {
	return func(o *options) {
		o.maxVertices = max(n, minVertices)
	}
}

// Decompose returns convex polygons, each wound counter-clockwise, whose
// union is the input polygon. Winding of the input is arbitrary.
func Decompose(vertices []vmath.Vector2, opts ...Option) [][]vmath.Vector2 {
	o := options{maxVertices: DefaultMaxVertices}
	for _, opt := range opts {
		opt(&o)
	}

	if len(vertices) < minVertices {
		return nil
	}

	poly := ForceCounterClockwise(vertices)
	parts := triangulate(poly, o.maxVertices)

	result := make([][]vmath.Vector2, 0, len(parts))
	for _, part := range parts {
		simplified := CollinearSimplify(part, 0)
		if len(simplified) < minVertices {
			continue
		}
		result = append(result, simplified)
	}
	return result
}

func triangulate(vertices []vmath.Vector2, maxVertices int) [][]vmath.Vector2 {
	n := len(vertices)
	var list [][]vmath.Vector2

	for i := 0; i < n; i++ {
		if !reflex(i, vertices) {
			continue
		}

		var lowerInt, upperInt vmath.Vector2
		lowerIndex, upperIndex := 0, 0
		lowerDist, upperDist := math.MaxFloat64, math.MaxFloat64

		for j := 0; j < n; j++ {
			// edge (i-1, i) extended hits edge (j-1, j)
			if left(at(i-1, vertices), at(i, vertices), at(j, vertices)) &&
				rightOn(at(i-1, vertices), at(i, vertices), at(j-1, vertices)) {
				p := lineIntersect(at(i-1, vertices), at(i, vertices), at(j, vertices), at(j-1, vertices))
				if right(at(i+1, vertices), at(i, vertices), p) {
					d := at(i, vertices).DistanceSquared(p)
					if d < lowerDist {
						lowerDist = d
						lowerInt = p
						lowerIndex = j
					}
				}
			}

			// edge (i+1, i) extended hits edge (j, j+1)
			if left(at(i+1, vertices), at(i, vertices), at(j+1, vertices)) &&
				rightOn(at(i+1, vertices), at(i, vertices), at(j, vertices)) {
				p := lineIntersect(at(i+1, vertices), at(i, vertices), at(j, vertices), at(j+1, vertices))
				if left(at(i-1, vertices), at(i, vertices), p) {
					d := at(i, vertices).DistanceSquared(p)
					if d < upperDist {
						upperDist = d
						upperInt = p
						upperIndex = j
					}
				}
			}
		}

		var lowerPoly, upperPoly []vmath.Vector2

		if lowerIndex == (upperIndex+1)%n {
			// no vertex between the two hits: split at a Steiner point
			p := lowerInt.Add(upperInt).Scale(0.5)

			lowerPoly = copyRange(i, upperIndex, vertices)
			lowerPoly = append(lowerPoly, p)
			upperPoly = copyRange(lowerIndex, i, vertices)
			upperPoly = append(upperPoly, p)
		} else {
			highestScore := 0.0
			bestIndex := lowerIndex

			for upperIndex < lowerIndex {
				upperIndex += n
			}

			for j := lowerIndex; j <= upperIndex; j++ {
				if adjacent(i, j, n) || !canSee(i, j, vertices) {
					continue
				}

				score := 1 / (at(i, vertices).DistanceSquared(at(j, vertices)) + 1)
				if reflex(j, vertices) {
					if rightOn(at(j-1, vertices), at(j, vertices), at(i, vertices)) &&
						leftOn(at(j+1, vertices), at(j, vertices), at(i, vertices)) {
						score += 3
					} else {
						score += 2
					}
				} else {
					score++
				}

				if score > highestScore {
					bestIndex = wrap(j, n)
					highestScore = score
				}
			}

			lowerPoly = copyRange(i, bestIndex, vertices)
			upperPoly = copyRange(bestIndex, i, vertices)
		}

		list = append(list, triangulate(lowerPoly, maxVertices)...)
		list = append(list, triangulate(upperPoly, maxVertices)...)
		return list
	}

	// already convex
	if n > maxVertices {
		lowerPoly := copyRange(0, n/2, vertices)
		upperPoly := copyRange(n/2, 0, vertices)
		list = append(list, triangulate(lowerPoly, maxVertices)...)
		list = append(list, triangulate(upperPoly, maxVertices)...)
		return list
	}

	return append(list, vertices)
}

// canSee reports whether the diagonal (i, j) lies inside the polygon.
func canSee(i, j int, vertices []vmath.Vector2) bool {
	n := len(vertices)
	i, j = wrap(i, n), wrap(j, n)

	if reflex(i, vertices) {
		if leftOn(at(i, vertices), at(i-1, vertices), at(j, vertices)) &&
			rightOn(at(i, vertices), at(i+1, vertices), at(j, vertices)) {
			return false
		}
	} else {
		if rightOn(at(i, vertices), at(i+1, vertices), at(j, vertices)) ||
			leftOn(at(i, vertices), at(i-1, vertices), at(j, vertices)) {
			return false
		}
	}

	if reflex(j, vertices) {
		if leftOn(at(j, vertices), at(j-1, vertices), at(i, vertices)) &&
			rightOn(at(j, vertices), at(j+1, vertices), at(i, vertices)) {
			return false
		}
	} else {
		if rightOn(at(j, vertices), at(j+1, vertices), at(i, vertices)) ||
			leftOn(at(j, vertices), at(j-1, vertices), at(i, vertices)) {
			return false
		}
	}

	for k := 0; k < n; k++ {
		next := (k + 1) % n
		if next == i || k == i || next == j || k == j {
			continue
		}
		if _, ok := segmentIntersect(at(i, vertices), at(j, vertices), at(k, vertices), at(k+1, vertices)); ok {
			return false
		}
	}
	return true
}

// copyRange copies vertices i..j inclusive, walking forward and wrapping.
func copyRange(i, j int, vertices []vmath.Vector2) []vmath.Vector2 {
	n := len(vertices)
	for j < i {
		j += n
	}
	out := make([]vmath.Vector2, 0, j-i+1)
	for ; i <= j; i++ {
		out = append(out, at(i, vertices))
	}
	return out
}

// adjacent reports whether j names i or one of its neighbours.
func adjacent(i, j, n int) bool {
	d := wrap(j-i, n)
	return d == 0 || d == 1 || d == n-1
}

func wrap(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}

func at(i int, vertices []vmath.Vector2) vmath.Vector2 {
	return vertices[wrap(i, len(vertices))]
}

func reflex(i int, vertices []vmath.Vector2) bool {
	return right(at(i-1, vertices), at(i, vertices), at(i+1, vertices))
}

// area is twice the signed area of triangle abc, positive when ccw.
func area(a, b, c vmath.Vector2) float64 {
	return a.X*(b.Y-c.Y) + b.X*(c.Y-a.Y) + c.X*(a.Y-b.Y)
}

func left(a, b, c vmath.Vector2) bool    { return area(a, b, c) > 0 }
func leftOn(a, b, c vmath.Vector2) bool  { return area(a, b, c) >= 0 }
func right(a, b, c vmath.Vector2) bool   { return area(a, b, c) < 0 }
func rightOn(a, b, c vmath.Vector2) bool { return area(a, b, c) <= 0 }

// lineIntersect intersects the infinite lines p1p2 and q1q2. Parallel
// lines yield the zero vector.
func lineIntersect(p1, p2, q1, q2 vmath.Vector2) vmath.Vector2 {
	a1 := p2.Y - p1.Y
	b1 := p1.X - p2.X
	c1 := a1*p1.X + b1*p1.Y
	a2 := q2.Y - q1.Y
	b2 := q1.X - q2.X
	c2 := a2*q1.X + b2*q1.Y

	det := a1*b2 - a2*b1
	if math.Abs(det) < Epsilon {
		return vmath.Vector2{}
	}
	return vmath.Vector2{
		X: (b2*c1 - b1*c2) / det,
		Y: (a1*c2 - a2*c1) / det,
	}
}

// segmentIntersect intersects the closed segments p1p2 and p3p4.
func segmentIntersect(p1, p2, p3, p4 vmath.Vector2) (vmath.Vector2, bool) {
	a := p4.Y - p3.Y
	b := p2.X - p1.X
	c := p4.X - p3.X
	d := p2.Y - p1.Y

	denom := a*b - c*d
	if denom >= -Epsilon && denom <= Epsilon {
		return vmath.Vector2{}, false
	}

	e := p1.Y - p3.Y
	f := p1.X - p3.X
	inv := 1 / denom

	ua := (c*e - a*f) * inv
	if ua < 0 || ua > 1 {
		return vmath.Vector2{}, false
	}
	ub := (b*e - d*f) * inv
	if ub < 0 || ub > 1 {
		return vmath.Vector2{}, false
	}
	if ua == 0 && ub == 0 {
		return vmath.Vector2{}, false
	}
	return vmath.Vector2{X: p1.X + ua*b, Y: p1.Y + ua*d}, true
}
