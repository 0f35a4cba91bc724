package collision

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0x5844/physics-2d/pkg/shape"
	"github.com/0x5844/physics-2d/pkg/vmath"
)

const tolerance = 1e-9

func at(x, y float64) vmath.Transform {
	return vmath.NewTransform(vmath.NewVector2(x, y), 0)
}

func assertVector(t *testing.T, want, got vmath.Vector2) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, tolerance, "x of %v", got)
	assert.InDelta(t, want.Y, got.Y, tolerance, "y of %v", got)
}

func TestCircleCircle(t *testing.T) {
	m := Collide(shape.NewCircle(1), at(0, 0), shape.NewCircle(1), at(1.5, 0))

	require.Equal(t, 1, m.Count)
	assertVector(t, vmath.NewVector2(1, 0), m.Normal)
	assert.InDelta(t, 0.5, m.Depth, tolerance)
	assertVector(t, vmath.NewVector2(0.75, 0), m.Points[0])
}

func TestCircleCircleApart(t *testing.T) {
	m := Collide(shape.NewCircle(1), at(0, 0), shape.NewCircle(1), at(2.5, 0))
	assert.False(t, m.Colliding())
}

func TestCircleBoxFace(t *testing.T) {
	m := Collide(shape.NewCircle(0.5), at(0, 1.4), shape.NewBox(2, 2), at(0, 0))

	require.Equal(t, 1, m.Count)
	assertVector(t, vmath.NewVector2(0, -1), m.Normal)
	assert.InDelta(t, 0.1, m.Depth, tolerance)
	assertVector(t, vmath.NewVector2(0, 0.95), m.Points[0])
}

func TestCircleBoxCorner(t *testing.T) {
	m := Collide(shape.NewCircle(1), at(1.5, 1.5), shape.NewBox(2, 2), at(0, 0))

	require.Equal(t, 1, m.Count)
	assertVector(t, vmath.NewVector2(-math.Sqrt2/2, -math.Sqrt2/2), m.Normal)
	assert.InDelta(t, 1-math.Sqrt(0.5), m.Depth, tolerance)
}

func TestCircleInsideBox(t *testing.T) {
	m := Collide(shape.NewCircle(0.25), at(0.2, 0.9), shape.NewBox(2, 2), at(0, 0))

	require.Equal(t, 1, m.Count)
	assertVector(t, vmath.NewVector2(0, -1), m.Normal)
	assert.InDelta(t, 0.35, m.Depth, tolerance)
}

func TestBoxBoxAligned(t *testing.T) {
	m := Collide(shape.NewBox(2, 2), at(0, 0), shape.NewBox(2, 2), at(1.8, 0.5))

	require.Equal(t, 2, m.Count)
	assertVector(t, vmath.NewVector2(1, 0), m.Normal)
	assert.InDelta(t, 0.2, m.Depth, tolerance)
	for i := 0; i < m.Count; i++ {
		assert.InDelta(t, 0.9, m.Points[i].X, tolerance)
		assert.InDelta(t, 0.2, m.Depths[i], tolerance)
	}
}

func TestBoxBoxApart(t *testing.T) {
	m := Collide(shape.NewBox(2, 2), at(0, 0), shape.NewBox(2, 2), at(2.1, 0))
	assert.False(t, m.Colliding())
}

func TestDiamondCornerIntoBox(t *testing.T) {
	diamond := vmath.NewTransform(vmath.NewVector2(0, 1+math.Sqrt(0.5)-0.1), math.Pi/4)
	m := Collide(shape.NewBox(2, 2), at(0, 0), shape.NewBox(1, 1), diamond)

	require.Equal(t, 1, m.Count)
	assertVector(t, vmath.NewVector2(0, 1), m.Normal)
	assert.InDelta(t, 0.1, m.Depth, 1e-9)
	assert.InDelta(t, 0.0, m.Points[0].X, 1e-9)
	assert.InDelta(t, 0.95, m.Points[0].Y, 1e-9)
}

func TestSegmentBox(t *testing.T) {
	ground := shape.NewSegment(vmath.NewVector2(-2, 0), vmath.NewVector2(2, 0), 0.1)
	m := Collide(shape.NewBox(1, 1), at(0, 0.55), ground, at(0, 0))

	require.Equal(t, 2, m.Count)
	assertVector(t, vmath.NewVector2(0, -1), m.Normal)
	assert.InDelta(t, 0.05, m.Depth, tolerance)
}

func TestSegmentCircle(t *testing.T) {
	seg := shape.NewSegment(vmath.NewVector2(-1, 0), vmath.NewVector2(1, 0), 0)

	m := Collide(seg, at(0, 0), shape.NewCircle(0.5), at(0.25, -0.4))
	require.Equal(t, 1, m.Count)
	assertVector(t, vmath.NewVector2(0, -1), m.Normal)
	assert.InDelta(t, 0.1, m.Depth, tolerance)

	// beyond the end cap
	m = Collide(seg, at(0, 0), shape.NewCircle(0.5), at(1.3, 0))
	require.Equal(t, 1, m.Count)
	assertVector(t, vmath.NewVector2(1, 0), m.Normal)
	assert.InDelta(t, 0.2, m.Depth, tolerance)
}

func TestSegmentSegmentCrossing(t *testing.T) {
	a := shape.NewSegment(vmath.NewVector2(-1, 0), vmath.NewVector2(1, 0), 0.1)
	b := shape.NewSegment(vmath.NewVector2(0, -1), vmath.NewVector2(0, 1), 0.1)

	m := Collide(a, at(0, 0), b, at(0, 1.15))
	require.True(t, m.Colliding())
	assert.InDelta(t, 0.05, m.Depth, tolerance)
	assertVector(t, vmath.NewVector2(0, 1), m.Normal)
}

func TestDegenerateQueries(t *testing.T) {
	m := Collide(shape.NewCircle(1), at(2, 2), shape.NewCircle(1), at(2, 2))
	assert.Zero(t, m.Count, "coincident circles")

	point := shape.NewSegment(vmath.NewVector2(1, 1), vmath.NewVector2(1, 1), 0.5)
	m = Collide(point, at(0, 0), shape.NewBox(4, 4), at(0, 0))
	assert.Zero(t, m.Count, "zero-length segment")

	m = Collide(shape.NewCircle(1), at(0, 0), point, at(0, 0))
	assert.Zero(t, m.Count, "zero-length segment against circle")

	edge := shape.NewSegment(vmath.NewVector2(-1, 0), vmath.NewVector2(1, 0), 0)
	m = Collide(shape.NewCircle(0.5), at(1, 0), edge, at(0, 0))
	assert.Zero(t, m.Count, "circle centre on segment endpoint")

	assert.Zero(t, Collide(nil, at(0, 0), shape.NewCircle(1), at(0, 0)).Count)
}

func TestManifoldSymmetry(t *testing.T) {
	diamond := vmath.NewTransform(vmath.NewVector2(0, 1+math.Sqrt(0.5)-0.1), math.Pi/4)
	ground := shape.NewSegment(vmath.NewVector2(-2, 0), vmath.NewVector2(2, 0), 0.1)

	tests := []struct {
		name string
		a    shape.Shape
		xfA  vmath.Transform
		b    shape.Shape
		xfB  vmath.Transform
	}{
		{name: "circle-circle", a: shape.NewCircle(1), xfA: at(0, 0), b: shape.NewCircle(0.5), xfB: at(1.2, 0.3)},
		{name: "circle-polygon", a: shape.NewCircle(0.5), xfA: at(0.3, 1.4), b: shape.NewBox(2, 2), xfB: at(0, 0)},
		{name: "circle-corner", a: shape.NewCircle(1), xfA: at(1.5, 1.5), b: shape.NewBox(2, 2), xfB: at(0, 0)},
		{name: "polygon-polygon corner", a: shape.NewBox(2, 2), xfA: at(0, 0), b: shape.NewBox(1, 1), xfB: diamond},
		{name: "polygon-polygon aligned", a: shape.NewBox(2, 2), xfA: at(0, 0), b: shape.NewBox(2, 2), xfB: at(1.8, 0.5)},
		{name: "polygon-segment", a: shape.NewBox(1, 1), xfA: at(0, 0.55), b: ground, xfB: at(0, 0)},
		{name: "circle-segment", a: shape.NewCircle(0.5), xfA: at(0.25, 0.5), b: ground, xfB: at(0, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ab := Collide(tt.a, tt.xfA, tt.b, tt.xfB)
			ba := Collide(tt.b, tt.xfB, tt.a, tt.xfA)

			require.True(t, ab.Colliding())
			assert.Equal(t, ab.Count, ba.Count)
			assert.InDelta(t, ab.Depth, ba.Depth, tolerance)
			assertVector(t, ab.Normal, ba.Normal.Negate())
			assert.InDelta(t, 1.0, ab.Normal.Magnitude(), tolerance)
		})
	}
}

func TestManifoldSymmetryRandomPairs(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	randomShape := func() shape.Shape {
		switch rng.Intn(3) {
		case 0:
			return shape.NewBox(0.2+rng.Float64()*2, 0.2+rng.Float64()*2)
		case 1:
			half := 0.2 + rng.Float64()*2
			return shape.NewSegment(vmath.NewVector2(-half, 0), vmath.NewVector2(half, 0), rng.Float64()*0.2)
		default:
			return shape.NewCircle(0.1 + rng.Float64())
		}
	}
	randomTransform := func() vmath.Transform {
		return vmath.NewTransform(vmath.NewVector2(rng.Float64()*2-1, rng.Float64()*2-1), rng.Float64()*2*math.Pi)
	}

	colliding := 0
	for i := 0; i < 5000; i++ {
		a, b := randomShape(), randomShape()
		xfA, xfB := randomTransform(), randomTransform()

		ab := Collide(a, xfA, b, xfB)
		ba := Collide(b, xfB, a, xfA)

		require.Equal(t, ab.Count, ba.Count, "pair %d: %s vs %s", i, a.Kind(), b.Kind())
		if !ab.Colliding() {
			continue
		}
		colliding++
		require.InDelta(t, ab.Depth, ba.Depth, tolerance, "pair %d: %s vs %s", i, a.Kind(), b.Kind())
		assertVector(t, ab.Normal, ba.Normal.Negate())
	}
	assert.Greater(t, colliding, 1000)
}

func TestPreferReference(t *testing.T) {
	one := Manifold{Normal: vmath.NewVector2(0, 1), Count: 1, Depth: 0.1, Depths: [2]float64{0.1}}
	two := Manifold{Normal: vmath.NewVector2(0, 1), Count: 2, Depth: 0.1, Depths: [2]float64{0.1, 0.1}}

	assert.True(t, preferReference(one, 0, two, -0.001), "larger separation wins")
	assert.True(t, preferReference(two, -0.001, one, -0.001), "then more points")
	assert.False(t, preferReference(one, -0.001, two, -0.001))

	left := one
	left.Points[0] = vmath.NewVector2(-1, 0)
	assert.True(t, preferReference(left, 0, one, 0))
	assert.False(t, preferReference(one, 0, left, 0))
	assert.False(t, preferReference(one, 0, one, 0))
}

func TestFlip(t *testing.T) {
	m := Manifold{Normal: vmath.NewVector2(0, 1), Depth: 0.3, Count: 1}
	f := m.Flip()

	assert.Equal(t, vmath.NewVector2(0, -1), f.Normal)
	assert.Equal(t, m.Depth, f.Depth)
	assert.Equal(t, vmath.NewVector2(0, 1), m.Normal)
}

func TestClipSegmentToLine(t *testing.T) {
	in := [2]vmath.Vector2{vmath.NewVector2(0, 0), vmath.NewVector2(2, 0)}

	out, n := clipSegmentToLine(in, vmath.NewVector2(1, 0), 1)
	require.Equal(t, 2, n)
	assert.Equal(t, in[0], out[0])
	assertVector(t, vmath.NewVector2(1, 0), out[1])

	_, n = clipSegmentToLine(in, vmath.NewVector2(1, 0), -1)
	assert.Zero(t, n)
}
