package scene

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0x5844/physics-2d/internal/config"
	"github.com/0x5844/physics-2d/pkg/physics"
	"github.com/0x5844/physics-2d/pkg/shape"
	"github.com/0x5844/physics-2d/pkg/vmath"
)

const sceneJSON = `{
  "gravity": {"x": 0, "y": -5},
  "duration": 3,
  "bodies": [
    {"type": "box", "mass": 0, "position": {"x": 0, "y": -1}, "shape": {"width": 20, "height": 2}},
    {"type": "circle", "mass": 3.14159, "position": {"x": 0, "y": 4}, "velocity": {"x": 1, "y": 0}, "shape": {"radius": 1}},
    {"type": "polygon", "body": "kinematic", "position": {"x": 5, "y": 5},
     "shape": {"vertices": [{"x": 0, "y": 0}, {"x": 1, "y": 0}, {"x": 0, "y": 1}]}},
    {"type": "segment", "density": 2, "restitution": 0.5, "position": {"x": -5, "y": 5},
     "shape": {"radius": 0.1, "vertices": [{"x": -1, "y": 0}, {"x": 1, "y": 0}]}}
  ]
}`

const sceneYAML = `
gravity: {x: 0, y: -5}
duration: 3
bodies:
  - type: box
    position: {x: 0, y: -1}
    shape: {width: 20, height: 2}
  - type: circle
    mass: 3.14159
    position: {x: 0, y: 4}
    velocity: {x: 1, y: 0}
    shape: {radius: 1}
  - type: polygon
    body: kinematic
    position: {x: 5, y: 5}
    shape:
      vertices: [{x: 0, y: 0}, {x: 1, y: 0}, {x: 0, y: 1}]
  - type: segment
    density: 2
    restitution: 0.5
    position: {x: -5, y: 5}
    shape:
      radius: 0.1
      vertices: [{x: -1, y: 0}, {x: 1, y: 0}]
`

func newWorld(t *testing.T) *physics.World {
	t.Helper()
	w := physics.NewWorld(400, 400, 40, 40, physics.WithOrigin(vmath.NewVector2(-200, -100)))
	w.Initialize()
	return w
}

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, FormatYAML, FormatFromPath("scene.YAML"))
	assert.Equal(t, FormatYAML, FormatFromPath("dir/scene.yml"))
	assert.Equal(t, FormatJSON, FormatFromPath("scene.json"))
	assert.Equal(t, FormatJSON, FormatFromPath("scene"))
}

func TestParseAndApply(t *testing.T) {
	s, err := Parse([]byte(sceneJSON), FormatJSON)
	require.NoError(t, err)
	require.Len(t, s.Bodies, 4)
	assert.Equal(t, 3.0, s.Duration)

	w := newWorld(t)
	bodies, err := s.Apply(w)
	require.NoError(t, err)
	require.Len(t, bodies, 4)

	assert.Equal(t, vmath.NewVector2(0, -5), w.Gravity())

	ground, ball, wedge, bar := bodies[0], bodies[1], bodies[2], bodies[3]
	assert.Equal(t, physics.Static, ground.Type(), "zero mass is static")
	assert.Equal(t, physics.Dynamic, ball.Type())
	assert.InDelta(t, 3.14159, ball.Mass(), 1e-9)
	assert.Equal(t, vmath.NewVector2(1, 0), ball.LinearVelocity())
	assert.Equal(t, physics.Kinematic, wedge.Type())
	assert.Equal(t, shape.KindPolygon, wedge.Shape().Kind())
	assert.Equal(t, physics.Dynamic, bar.Type())
	assert.Equal(t, shape.KindSegment, bar.Shape().Kind())
	assert.Equal(t, 2.0, bar.Density())
	assert.Equal(t, 0.5, bar.Restitution())
	assert.Equal(t, 0.3, bar.Friction())
}

func TestYAMLAndJSONAgree(t *testing.T) {
	fromJSON, err := Parse([]byte(sceneJSON), FormatJSON)
	require.NoError(t, err)
	fromYAML, err := Parse([]byte(sceneYAML), FormatYAML)
	require.NoError(t, err)

	assert.Equal(t, fromJSON, fromYAML)
	assert.Equal(t, fromJSON.Fingerprint(), fromYAML.Fingerprint())

	fromYAML.Bodies[1].Mass = 4
	assert.NotEqual(t, fromJSON.Fingerprint(), fromYAML.Fingerprint())
}

func TestLoadSceneFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scene.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sceneYAML), 0o600))

	s, err := LoadSceneFromFile(path)
	require.NoError(t, err)
	assert.Len(t, s.Bodies, 4)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o600))
	_, err = LoadSceneFromFile(bad)
	assert.ErrorContains(t, err, "bad.json")

	_, err = LoadSceneFromFile(filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestApplyErrors(t *testing.T) {
	twoPoints := []vmath.Vector2{{X: 0}, {X: 1}}
	cases := map[string]struct {
		body BodyConfig
		err  error
	}{
		"shape":   {BodyConfig{Type: "capsule"}, ErrUnknownShape},
		"body":    {BodyConfig{Type: "circle", Body: "ghost", Shape: ShapeConfig{Radius: 1}}, ErrUnknownBody},
		"radius":  {BodyConfig{Type: "circle"}, shape.ErrDegenerate},
		"box":     {BodyConfig{Type: "box", Shape: ShapeConfig{Width: 1}}, shape.ErrDegenerate},
		"polygon": {BodyConfig{Type: "polygon", Shape: ShapeConfig{Vertices: twoPoints}}, shape.ErrDegenerate},
		"segment": {BodyConfig{Type: "segment"}, shape.ErrDegenerate},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			s := &Scene{Bodies: []BodyConfig{
				{Type: "circle", Mass: 1, Shape: ShapeConfig{Radius: 1}},
				tc.body,
			}}
			w := newWorld(t)
			bodies, err := s.Apply(w)
			assert.ErrorIs(t, err, tc.err)
			assert.ErrorContains(t, err, "body 1")
			assert.Len(t, bodies, 1)
		})
	}

	_, err := Parse([]byte("{}"), Format(9))
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestGeneratorsMatchConfig(t *testing.T) {
	assert.ElementsMatch(t, config.SceneTypes, Generators())

	_, err := Generate("pendulum", 10, 1)
	assert.Error(t, err)
}

func TestGenerateIsDeterministic(t *testing.T) {
	for _, kind := range Generators() {
		t.Run(kind, func(t *testing.T) {
			a, err := Generate(kind, 25, 42)
			require.NoError(t, err)
			b, err := Generate(kind, 25, 42)
			require.NoError(t, err)
			assert.Equal(t, a.Fingerprint(), b.Fingerprint())
			assert.Equal(t, kind, a.Name)

			w := newWorld(t)
			bodies, err := a.Apply(w)
			require.NoError(t, err)
			assert.Equal(t, w.BodyCount(), len(bodies))

			var dynamic int
			for _, body := range bodies {
				if body.IsDynamic() {
					dynamic++
				}
			}
			if kind == "pyramid" {
				assert.GreaterOrEqual(t, dynamic, 25)
			} else {
				assert.Equal(t, 25, dynamic)
			}

			for i := 0; i < 10; i++ {
				require.NoError(t, w.Step(1.0/60))
			}
		})
	}
}

func TestTerrainIsDecomposed(t *testing.T) {
	s, err := Generate("terrain", 5, 7)
	require.NoError(t, err)
	require.Len(t, s.Outlines, 1)

	w := newWorld(t)
	bodies, err := s.Apply(w)
	require.NoError(t, err)

	var static int
	for _, b := range bodies {
		if b.IsStatic() {
			static++
			assert.Equal(t, 0.6, b.Friction())
		}
	}
	assert.Greater(t, static, 1, "a concave outline needs several convex parts")
	assert.NotEmpty(t, w.QueryPoint(vmath.NewVector2(0, -55)))
}

func TestDifferentSeedsDiffer(t *testing.T) {
	a, err := Generate("rain", 10, 1)
	require.NoError(t, err)
	b, err := Generate("rain", 10, 2)
	require.NoError(t, err)
	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())
}
