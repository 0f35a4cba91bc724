// Package vmath holds the 2D math shared by every physics package: vectors,
// rotations, rigid transforms and axis-aligned bounding boxes.
package vmath

import "math"

type Vector2 struct {
	X, Y float64
}

func NewVector2(x, y float64) Vector2 {
	return Vector2{X: x, Y: y}
}

func (v1 Vector2) Add(v2 Vector2) Vector2 {
	return Vector2{X: v1.X + v2.X, Y: v1.Y + v2.Y}
}

func (v1 Vector2) Sub(v2 Vector2) Vector2 {
	return Vector2{X: v1.X - v2.X, Y: v1.Y - v2.Y}
}

func (v Vector2) Scale(factor float64) Vector2 {
	return Vector2{X: v.X * factor, Y: v.Y * factor}
}

func (v Vector2) Negate() Vector2 {
	return Vector2{X: -v.X, Y: -v.Y}
}

func (v Vector2) Dot(other Vector2) float64 {
	return v.X*other.X + v.Y*other.Y
}

// Cross returns the z component of the 3D cross product.
func (v Vector2) Cross(other Vector2) float64 {
	return v.X*other.Y - v.Y*other.X
}

// Perp rotates v by +90 degrees.
func (v Vector2) Perp() Vector2 {
	return Vector2{X: -v.Y, Y: v.X}
}

func (v Vector2) Magnitude() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y)
}

func (v Vector2) MagnitudeSquared() float64 {
	return v.X*v.X + v.Y*v.Y
}

// Normalize returns the unit vector of v. The zero vector stays zero.
func (v Vector2) Normalize() Vector2 {
	mag := v.Magnitude()
	if mag == 0 {
		return Vector2{}
	}
	invMag := 1.0 / mag
	return Vector2{X: v.X * invMag, Y: v.Y * invMag}
}

func (v Vector2) Distance(other Vector2) float64 {
	return v.Sub(other).Magnitude()
}

func (v Vector2) DistanceSquared(other Vector2) float64 {
	return v.Sub(other).MagnitudeSquared()
}

func (v Vector2) Lerp(other Vector2, t float64) Vector2 {
	return Vector2{X: v.X + (other.X-v.X)*t, Y: v.Y + (other.Y-v.Y)*t}
}

func (v Vector2) IsFinite() bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0)
}

// CrossSV is s × v for a scalar (z axis) s.
func CrossSV(s float64, v Vector2) Vector2 {
	return Vector2{X: -s * v.Y, Y: s * v.X}
}

// CrossVS is v × s for a scalar (z axis) s.
func CrossVS(v Vector2, s float64) Vector2 {
	return Vector2{X: s * v.Y, Y: -s * v.X}
}

func Min(a, b Vector2) Vector2 {
	return Vector2{X: math.Min(a.X, b.X), Y: math.Min(a.Y, b.Y)}
}

func Max(a, b Vector2) Vector2 {
	return Vector2{X: math.Max(a.X, b.X), Y: math.Max(a.Y, b.Y)}
}

func Clamp(value, low, high float64) float64 {
	return math.Max(low, math.Min(value, high))
}
