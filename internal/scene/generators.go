package scene

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/0x5844/physics-2d/pkg/vmath"
)

// ==================== SCENE GENERATORS ====================

type generator func(s *Scene, rng *rand.Rand, bodyCount int)

var generators = map[string]generator{
	"default":   generateDefaultScene,
	"pyramid":   generatePyramidScene,
	"rain":      generateRainScene,
	"container": generateContainerScene,
	"mixed":     generateMixedScene,
	"terrain":   generateTerrainScene,
}

// Generate builds one of the named procedural scenes. The same seed always
// yields the same scene.
func Generate(kind string, bodyCount int, seed int64) (*Scene, error) {
	gen, ok := generators[kind]
	if !ok {
		return nil, fmt.Errorf("scene: unknown scene type %q", kind)
	}
	s := &Scene{Name: kind}
	gen(s, rand.New(rand.NewSource(seed)), bodyCount)
	return s, nil
}

// Generators lists the names Generate accepts.
func Generators() []string {
	names := make([]string, 0, len(generators))
	for name := range generators {
		names = append(names, name)
	}
	return names
}

func (s *Scene) addBox(mass float64, position vmath.Vector2, width, height float64) *BodyConfig {
	s.Bodies = append(s.Bodies, BodyConfig{
		Type:     "box",
		Mass:     mass,
		Position: position,
		Shape:    ShapeConfig{Width: width, Height: height},
	})
	return &s.Bodies[len(s.Bodies)-1]
}

func (s *Scene) addCircle(mass float64, position vmath.Vector2, radius float64) *BodyConfig {
	s.Bodies = append(s.Bodies, BodyConfig{
		Type:     "circle",
		Mass:     mass,
		Position: position,
		Shape:    ShapeConfig{Radius: radius},
	})
	return &s.Bodies[len(s.Bodies)-1]
}

func material(friction, restitution float64) (*float64, *float64) {
	return &friction, &restitution
}

func generateDefaultScene(s *Scene, rng *rand.Rand, bodyCount int) {
	// Ground
	s.addBox(0, vmath.NewVector2(0, -50), 200, 10)

	for i := 0; i < bodyCount; i++ {
		x := (rng.Float64() - 0.5) * 150
		y := rng.Float64()*50 + 50

		if rng.Float64() < 0.6 {
			radius := rng.Float64()*2 + 1
			s.addCircle(radius*radius*math.Pi, vmath.NewVector2(x, y), radius)
		} else {
			size := rng.Float64()*3 + 1
			s.addBox(size*size, vmath.NewVector2(x, y), size, size)
		}
	}
}

func generatePyramidScene(s *Scene, _ *rand.Rand, bodyCount int) {
	s.addBox(0, vmath.NewVector2(0, -12.5), 200, 5)

	levels := 1
	for levels*(levels+1)/2 < bodyCount {
		levels++
	}
	boxSize := 2.0
	y := -10 + boxSize/2

	for level := levels; level > 0; level-- {
		for i := 0; i < level; i++ {
			x := (float64(i) - float64(level-1)/2) * boxSize
			s.addBox(1.0, vmath.NewVector2(x, y), boxSize*0.9, boxSize*0.9)
		}
		y += boxSize * 0.9
	}
}

func generateRainScene(s *Scene, rng *rand.Rand, bodyCount int) {
	// Boundaries
	s.addBox(0, vmath.NewVector2(0, -50), 300, 10)
	s.addBox(0, vmath.NewVector2(-150, 0), 10, 100)
	s.addBox(0, vmath.NewVector2(150, 0), 10, 100)

	for i := 0; i < bodyCount; i++ {
		x := (rng.Float64() - 0.5) * 250
		y := rng.Float64()*180 + 100

		if rng.Float64() < 0.7 {
			radius := rng.Float64()*2 + 0.5
			s.addCircle(radius*radius*math.Pi, vmath.NewVector2(x, y), radius)
		} else {
			width := rng.Float64()*3 + 1
			height := rng.Float64()*3 + 1
			s.addBox(width*height, vmath.NewVector2(x, y), width, height)
		}
	}
}

func generateContainerScene(s *Scene, rng *rand.Rand, bodyCount int) {
	wallThickness := 5.0
	containerWidth := 100.0
	containerHeight := 80.0

	s.addBox(0, vmath.NewVector2(0, -containerHeight/2), containerWidth, wallThickness)
	s.addBox(0, vmath.NewVector2(-containerWidth/2, 0), wallThickness, containerHeight)
	s.addBox(0, vmath.NewVector2(containerWidth/2, 0), wallThickness, containerHeight)

	for i := 0; i < bodyCount; i++ {
		x := (rng.Float64() - 0.5) * (containerWidth - 20)
		y := rng.Float64()*60 + 10

		if rng.Float64() < 0.6 {
			radius := rng.Float64()*1.5 + 0.5
			s.addCircle(radius*radius*math.Pi*0.5, vmath.NewVector2(x, y), radius)
		} else {
			size := rng.Float64()*2 + 1
			s.addBox(size*size*0.5, vmath.NewVector2(x, y), size, size)
		}
	}
}

func generateMixedScene(s *Scene, rng *rand.Rand, bodyCount int) {
	// Platforms
	s.addBox(0, vmath.NewVector2(-75, -50), 50, 10)
	s.addBox(0, vmath.NewVector2(75, -50), 50, 10)

	for i := 0; i < 5; i++ {
		x := (rng.Float64() - 0.5) * 150
		y := float64(i)*15 - 20
		platform := s.addBox(0, vmath.NewVector2(x, y), rng.Float64()*30+20, 3)
		platform.Angle = (rng.Float64() - 0.5) * 0.3
	}

	for i := 0; i < bodyCount; i++ {
		x := (rng.Float64() - 0.5) * 200
		y := rng.Float64()*100 + 50

		switch rng.Intn(3) {
		case 0:
			radius := rng.Float64()*2 + 0.5
			circle := s.addCircle(radius*radius*math.Pi, vmath.NewVector2(x, y), radius)
			circle.Friction, circle.Restitution = material(rng.Float64()*0.5+0.2, rng.Float64()*0.5+0.5)
		case 1:
			size := rng.Float64()*3 + 1
			box := s.addBox(size*size, vmath.NewVector2(x, y), size, size)
			box.Friction, box.Restitution = material(rng.Float64()*0.6+0.3, rng.Float64()*0.5+0.3)
		case 2:
			width := rng.Float64()*4 + 1
			height := rng.Float64()*2 + 0.5
			box := s.addBox(width*height, vmath.NewVector2(x, y), width, height)
			box.Friction, box.Restitution = material(rng.Float64()*0.5+0.4, rng.Float64()*0.4+0.4)
		}
	}
}

// generateTerrainScene drops bodies onto a rolling concave ground outline.
func generateTerrainScene(s *Scene, rng *rand.Rand, bodyCount int) {
	const (
		left    = -150.0
		right   = 150.0
		bottom  = -60.0
		samples = 12
	)

	outline := []vmath.Vector2{
		vmath.NewVector2(left, bottom),
		vmath.NewVector2(right, bottom),
	}
	for i := samples; i >= 0; i-- {
		x := left + (right-left)*float64(i)/samples
		y := -40 + 8*math.Sin(x/25) + rng.Float64()*4
		outline = append(outline, vmath.NewVector2(x, y))
	}
	s.Outlines = append(s.Outlines, Outline{Vertices: outline, Friction: 0.6})

	for i := 0; i < bodyCount; i++ {
		x := (rng.Float64() - 0.5) * 250
		y := rng.Float64()*60 + 10

		if rng.Float64() < 0.5 {
			radius := rng.Float64()*1.5 + 0.5
			s.addCircle(radius*radius*math.Pi, vmath.NewVector2(x, y), radius)
		} else {
			size := rng.Float64()*2 + 1
			s.addBox(size*size, vmath.NewVector2(x, y), size, size)
		}
	}
}
