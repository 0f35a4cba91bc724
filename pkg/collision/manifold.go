// Package collision is the narrow phase: exact shape-pair tests that
// produce contact manifolds in world space.
package collision

import "github.com/0x5844/physics-2d/pkg/vmath"

// MaxManifoldPoints is the most contact points a manifold carries.
const MaxManifoldPoints = 2

// Manifold describes how two shapes touch. Normal is a unit vector pointing
// from the first shape towards the second. Depths holds the penetration of
// each point and Depth the deepest of them. Count is zero when the shapes
// are apart or the query is degenerate.
type Manifold struct {
	Normal vmath.Vector2
	Depth  float64
	Points [MaxManifoldPoints]vmath.Vector2
	Depths [MaxManifoldPoints]float64
	Count  int
}

func (m Manifold) Colliding() bool {
	return m.Count > 0
}

// Flip swaps the roles of the two shapes.
func (m Manifold) Flip() Manifold {
	m.Normal = m.Normal.Negate()
	return m
}

func (m *Manifold) addPoint(p vmath.Vector2, depth float64) {
	if m.Count >= MaxManifoldPoints {
		return
	}
	m.Points[m.Count] = p
	m.Depths[m.Count] = depth
	if m.Count == 0 || depth > m.Depth {
		m.Depth = depth
	}
	m.Count++
}
