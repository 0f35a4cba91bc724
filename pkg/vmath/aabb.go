package vmath

type AABB struct {
	Min, Max Vector2
}

func NewAABB(min, max Vector2) AABB {
	return AABB{Min: min, Max: max}
}

func (aabb AABB) Overlaps(other AABB) bool {
	return aabb.Min.X <= other.Max.X && aabb.Max.X >= other.Min.X &&
		aabb.Min.Y <= other.Max.Y && aabb.Max.Y >= other.Min.Y
}

func (aabb AABB) Contains(point Vector2) bool {
	return point.X >= aabb.Min.X && point.X <= aabb.Max.X &&
		point.Y >= aabb.Min.Y && point.Y <= aabb.Max.Y
}

func (aabb AABB) Area() float64 {
	width := aabb.Max.X - aabb.Min.X
	height := aabb.Max.Y - aabb.Min.Y
	return width * height
}

func (aabb AABB) Perimeter() float64 {
	return 2 * ((aabb.Max.X - aabb.Min.X) + (aabb.Max.Y - aabb.Min.Y))
}

func (aabb AABB) Center() Vector2 {
	return Vector2{
		X: (aabb.Min.X + aabb.Max.X) * 0.5,
		Y: (aabb.Min.Y + aabb.Max.Y) * 0.5,
	}
}

func (aabb AABB) Expand(margin float64) AABB {
	return AABB{
		Min: Vector2{X: aabb.Min.X - margin, Y: aabb.Min.Y - margin},
		Max: Vector2{X: aabb.Max.X + margin, Y: aabb.Max.Y + margin},
	}
}

func (aabb AABB) Union(other AABB) AABB {
	return AABB{Min: Min(aabb.Min, other.Min), Max: Max(aabb.Max, other.Max)}
}

// Translate shifts the box by d.
func (aabb AABB) Translate(d Vector2) AABB {
	return AABB{Min: aabb.Min.Add(d), Max: aabb.Max.Add(d)}
}
