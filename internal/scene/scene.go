// Package scene describes simulator scenes as data. A Scene is loaded from
// a JSON or YAML file or produced by a generator, then applied to a world.
package scene

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"
	"gopkg.in/yaml.v3"

	"github.com/0x5844/physics-2d/pkg/physics"
	"github.com/0x5844/physics-2d/pkg/shape"
	"github.com/0x5844/physics-2d/pkg/vmath"
)

var (
	ErrUnknownShape  = errors.New("scene: unknown shape type")
	ErrUnknownBody   = errors.New("scene: unknown body type")
	ErrUnknownFormat = errors.New("scene: unknown file format")
)

type Format uint8

const (
	FormatJSON Format = iota
	FormatYAML
)

// FormatFromPath picks the decoder by extension. Anything that is not YAML
// is read as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// ==================== SCENE CONFIGURATION ====================

type Scene struct {
	Name     string         `json:"name,omitempty" yaml:"name,omitempty"`
	Gravity  *vmath.Vector2 `json:"gravity,omitempty" yaml:"gravity,omitempty"`
	Duration float64        `json:"duration,omitempty" yaml:"duration,omitempty"`
	Bodies   []BodyConfig   `json:"bodies" yaml:"bodies"`
	Outlines []Outline      `json:"outlines,omitempty" yaml:"outlines,omitempty"`
}

// BodyConfig is one body. Type names the shape. A body with zero Mass and
// no Body kind is static; a positive Mass overrides Density.
type BodyConfig struct {
	Type            string        `json:"type" yaml:"type"`
	Body            string        `json:"body,omitempty" yaml:"body,omitempty"`
	Mass            float64       `json:"mass,omitempty" yaml:"mass,omitempty"`
	Density         float64       `json:"density,omitempty" yaml:"density,omitempty"`
	Position        vmath.Vector2 `json:"position" yaml:"position"`
	Angle           float64       `json:"angle,omitempty" yaml:"angle,omitempty"`
	Velocity        vmath.Vector2 `json:"velocity" yaml:"velocity"`
	AngularVelocity float64       `json:"angularVelocity,omitempty" yaml:"angularVelocity,omitempty"`
	Friction        *float64      `json:"friction,omitempty" yaml:"friction,omitempty"`
	Restitution     *float64      `json:"restitution,omitempty" yaml:"restitution,omitempty"`
	Sensor          bool          `json:"sensor,omitempty" yaml:"sensor,omitempty"`
	Bullet          bool          `json:"bullet,omitempty" yaml:"bullet,omitempty"`
	Shape           ShapeConfig   `json:"shape" yaml:"shape"`
}

// ShapeConfig carries the dimensions for every shape type. Segments use
// the first two vertices and Radius as half thickness.
type ShapeConfig struct {
	Radius   float64         `json:"radius,omitempty" yaml:"radius,omitempty"`
	Width    float64         `json:"width,omitempty" yaml:"width,omitempty"`
	Height   float64         `json:"height,omitempty" yaml:"height,omitempty"`
	Vertices []vmath.Vector2 `json:"vertices,omitempty" yaml:"vertices,omitempty"`
}

// Outline is static concave level geometry in world coordinates.
type Outline struct {
	Vertices    []vmath.Vector2 `json:"vertices" yaml:"vertices"`
	Friction    float64         `json:"friction,omitempty" yaml:"friction,omitempty"`
	Restitution float64         `json:"restitution,omitempty" yaml:"restitution,omitempty"`
}

func LoadSceneFromFile(filename string) (*Scene, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	s, err := Parse(data, FormatFromPath(filename))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return s, nil
}

func Parse(data []byte, format Format) (*Scene, error) {
	var s Scene
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("scene: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("scene: %w", err)
		}
	default:
		return nil, ErrUnknownFormat
	}
	return &s, nil
}

// Fingerprint hashes the canonical JSON form of the scene, so the same
// scene read from JSON or YAML has the same fingerprint.
func (s *Scene) Fingerprint() uint64 {
	data, err := json.Marshal(s)
	if err != nil {
		return 0
	}
	return xxhash.Sum64(data)
}

// Apply creates every body of the scene in w. On error the bodies created
// so far stay in the world.
func (s *Scene) Apply(w *physics.World) ([]*physics.RigidBody, error) {
	if s.Gravity != nil {
		w.SetGravity(s.Gravity.X, s.Gravity.Y)
	}

	bodies := make([]*physics.RigidBody, 0, len(s.Bodies))
	for i, bc := range s.Bodies {
		def, fixture, err := bc.defs()
		if err != nil {
			return bodies, fmt.Errorf("scene: body %d: %w", i, err)
		}
		b, err := w.CreateBody(def, fixture)
		if err != nil {
			return bodies, fmt.Errorf("scene: body %d: %w", i, err)
		}
		bodies = append(bodies, b)
	}

	for i, o := range s.Outlines {
		fixture := physics.DefaultFixtureDef(nil)
		fixture.Friction = o.Friction
		fixture.Restitution = o.Restitution
		parts, err := w.CreateStaticOutline(o.Vertices, fixture)
		if err != nil {
			return bodies, fmt.Errorf("scene: outline %d: %w", i, err)
		}
		bodies = append(bodies, parts...)
	}

	return bodies, nil
}

func (bc BodyConfig) defs() (physics.BodyDef, physics.FixtureDef, error) {
	def := physics.DefaultBodyDef()
	def.Position = bc.Position
	def.Angle = bc.Angle
	def.LinearVelocity = bc.Velocity
	def.AngularVelocity = bc.AngularVelocity
	def.Bullet = bc.Bullet

	switch strings.ToLower(bc.Body) {
	case "":
		if bc.Mass == 0 && bc.Density == 0 {
			def.Type = physics.Static
		}
	case "static":
		def.Type = physics.Static
	case "kinematic":
		def.Type = physics.Kinematic
	case "dynamic":
		def.Type = physics.Dynamic
	default:
		return def, physics.FixtureDef{}, fmt.Errorf("%w: %s", ErrUnknownBody, bc.Body)
	}

	s, err := bc.Shape.build(bc.Type)
	if err != nil {
		return def, physics.FixtureDef{}, err
	}

	fixture := physics.DefaultFixtureDef(s)
	fixture.Sensor = bc.Sensor
	if bc.Density > 0 {
		fixture.Density = bc.Density
	}
	if bc.Mass > 0 {
		if unit := s.ComputeMass(1).Mass; unit > 0 {
			fixture.Density = bc.Mass / unit
		}
	}
	if bc.Friction != nil {
		fixture.Friction = *bc.Friction
	}
	if bc.Restitution != nil {
		fixture.Restitution = *bc.Restitution
	}
	return def, fixture, nil
}

func (sc ShapeConfig) build(kind string) (shape.Shape, error) {
	switch strings.ToLower(kind) {
	case "circle":
		if !(sc.Radius > 0) {
			return nil, fmt.Errorf("circle radius %v: %w", sc.Radius, shape.ErrDegenerate)
		}
		return shape.NewCircle(sc.Radius), nil
	case "box":
		if !(sc.Width > 0) || !(sc.Height > 0) {
			return nil, fmt.Errorf("box %vx%v: %w", sc.Width, sc.Height, shape.ErrDegenerate)
		}
		return shape.NewBox(sc.Width, sc.Height), nil
	case "polygon":
		return shape.NewPolygon(sc.Vertices)
	case "segment":
		if len(sc.Vertices) != 2 {
			return nil, fmt.Errorf("segment needs 2 vertices, got %d: %w", len(sc.Vertices), shape.ErrDegenerate)
		}
		return shape.NewSegment(sc.Vertices[0], sc.Vertices[1], sc.Radius), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownShape, kind)
	}
}
