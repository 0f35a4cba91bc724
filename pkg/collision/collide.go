package collision

import (
	"github.com/0x5844/physics-2d/pkg/shape"
	"github.com/0x5844/physics-2d/pkg/vmath"
)

// LinearSlop is the collision tolerance used when choosing a reference
// face; it matches the solver's allowed penetration.
const LinearSlop = 0.005

type collideFunc func(a shape.Shape, xfA vmath.Transform, b shape.Shape, xfB vmath.Transform) Manifold

var dispatch = [shape.KindCount][shape.KindCount]collideFunc{
	shape.KindCircle: {
		shape.KindCircle:  collideCircles,
		shape.KindPolygon: collideCircleProxy,
		shape.KindSegment: collideCircleProxy,
	},
	shape.KindPolygon: {
		shape.KindCircle:  flipped(collideCircleProxy),
		shape.KindPolygon: collideProxies,
		shape.KindSegment: collideProxies,
	},
	shape.KindSegment: {
		shape.KindCircle:  flipped(collideCircleProxy),
		shape.KindPolygon: collideProxies,
		shape.KindSegment: collideProxies,
	},
}

// Collide tests a against b and returns their manifold. Nil shapes and
// unknown kinds give an empty manifold.
func Collide(a shape.Shape, xfA vmath.Transform, b shape.Shape, xfB vmath.Transform) Manifold {
	if a == nil || b == nil {
		return Manifold{}
	}
	ka, kb := a.Kind(), b.Kind()
	if ka >= shape.KindCount || kb >= shape.KindCount {
		return Manifold{}
	}
	fn := dispatch[ka][kb]
	if fn == nil {
		return Manifold{}
	}
	return fn(a, xfA, b, xfB)
}

func flipped(fn collideFunc) collideFunc {
	return func(a shape.Shape, xfA vmath.Transform, b shape.Shape, xfB vmath.Transform) Manifold {
		return fn(b, xfB, a, xfA).Flip()
	}
}
