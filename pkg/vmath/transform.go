package vmath

import "github.com/go-gl/mathgl/mgl64"

// Rotation is an angle together with its cached rotation matrix. The zero
// value is the identity.
type Rotation struct {
	angle float64
	mat   mgl64.Mat2
}

func NewRotation(angle float64) Rotation {
	return Rotation{angle: angle, mat: mgl64.Rotate2D(angle)}
}

func IdentityRotation() Rotation {
	return Rotation{mat: mgl64.Ident2()}
}

// matrix substitutes the identity for the zero value. A rotation matrix is
// never all zeros.
func (r Rotation) matrix() mgl64.Mat2 {
	if r.mat == (mgl64.Mat2{}) {
		return mgl64.Ident2()
	}
	return r.mat
}

func (r Rotation) Angle() float64 { return r.angle }
func (r Rotation) Cos() float64   { return r.matrix()[0] }
func (r Rotation) Sin() float64   { return r.matrix()[1] }

// Apply rotates v by the rotation.
func (r Rotation) Apply(v Vector2) Vector2 {
	out := r.matrix().Mul2x1(mgl64.Vec2{v.X, v.Y})
	return Vector2{X: out[0], Y: out[1]}
}

// ApplyInverse rotates v by the inverse rotation.
func (r Rotation) ApplyInverse(v Vector2) Vector2 {
	out := r.matrix().Transpose().Mul2x1(mgl64.Vec2{v.X, v.Y})
	return Vector2{X: out[0], Y: out[1]}
}

// Transform is a rigid transform: rotation followed by translation. The
// zero value is the identity.
type Transform struct {
	Position Vector2
	Rotation Rotation
}

func NewTransform(position Vector2, angle float64) Transform {
	return Transform{Position: position, Rotation: NewRotation(angle)}
}

func IdentityTransform() Transform {
	return Transform{Rotation: IdentityRotation()}
}

// Apply maps a body-local point to world space.
func (xf Transform) Apply(v Vector2) Vector2 {
	return xf.Rotation.Apply(v).Add(xf.Position)
}

// ApplyInverse maps a world point into body-local space.
func (xf Transform) ApplyInverse(v Vector2) Vector2 {
	return xf.Rotation.ApplyInverse(v.Sub(xf.Position))
}
