package decomp

import (
	"math"
	"slices"

	"github.com/0x5844/physics-2d/pkg/vmath"
)

// SignedArea returns the polygon area, positive for counter-clockwise
// winding.
func SignedArea(vertices []vmath.Vector2) float64 {
	n := len(vertices)
	if n < minVertices {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += vertices[i].Cross(vertices[(i+1)%n])
	}
	return sum * 0.5
}

func IsCounterClockwise(vertices []vmath.Vector2) bool {
	return SignedArea(vertices) > 0
}

// ForceCounterClockwise returns a counter-clockwise copy of vertices.
func ForceCounterClockwise(vertices []vmath.Vector2) []vmath.Vector2 {
	out := slices.Clone(vertices)
	if !IsCounterClockwise(out) {
		slices.Reverse(out)
	}
	return out
}

// IsConvex reports whether every pair of consecutive edges turns the same
// way. Collinear edges are tolerated.
func IsConvex(vertices []vmath.Vector2) bool {
	n := len(vertices)
	if n < minVertices {
		return false
	}

	sign := 0
	for i := 0; i < n; i++ {
		e1 := at(i+1, vertices).Sub(at(i, vertices))
		e2 := at(i+2, vertices).Sub(at(i+1, vertices))
		cross := e1.Cross(e2)
		switch {
		case cross > Epsilon:
			if sign < 0 {
				return false
			}
			sign = 1
		case cross < -Epsilon:
			if sign > 0 {
				return false
			}
			sign = -1
		}
	}
	return sign != 0
}

// CollinearSimplify drops every vertex whose triangle with its neighbours
// has an area within tolerance of zero.
func CollinearSimplify(vertices []vmath.Vector2, tolerance float64) []vmath.Vector2 {
	n := len(vertices)
	if n < minVertices {
		return slices.Clone(vertices)
	}

	out := make([]vmath.Vector2, 0, n)
	for i := 0; i < n; i++ {
		if math.Abs(area(at(i-1, vertices), at(i, vertices), at(i+1, vertices))) <= tolerance {
			continue
		}
		out = append(out, vertices[i])
	}
	return out
}
