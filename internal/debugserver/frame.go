package debugserver

import (
	"github.com/0x5844/physics-2d/internal/engine"
	"github.com/0x5844/physics-2d/pkg/vmath"
)

// UnitsToPixels is the screen scale of one simulation unit.
const UnitsToPixels = 32.0

// Point is a screen position in pixels. Y grows downwards.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func ToPixels(v vmath.Vector2) Point {
	return Point{X: v.X * UnitsToPixels, Y: -v.Y * UnitsToPixels}
}

type Hello struct {
	Type          string  `json:"type"`
	Session       string  `json:"session"`
	RunID         string  `json:"runId"`
	UnitsToPixels float64 `json:"unitsToPixels"`
}

type Frame struct {
	Type     string      `json:"type"`
	Session  string      `json:"session,omitempty"`
	RunID    string      `json:"runId"`
	Step     int64       `json:"step"`
	Time     float64     `json:"time"`
	Bodies   []BodyFrame `json:"bodies"`
	Contacts []Point     `json:"contacts,omitempty"`
}

type BodyFrame struct {
	ID       uint64  `json:"id"`
	Type     string  `json:"type"`
	Shape    string  `json:"shape"`
	Position Point   `json:"position"`
	Angle    float64 `json:"angle"`
	Radius   float64 `json:"radius,omitempty"`
	Vertices []Point `json:"vertices,omitempty"`
	Awake    bool    `json:"awake"`
	Sensor   bool    `json:"sensor,omitempty"`
}

// Encode converts a snapshot to screen space, flipping Y and angles.
func Encode(s engine.Snapshot, session string) Frame {
	f := Frame{
		Type:    "frame",
		Session: session,
		RunID:   s.RunID,
		Step:    s.Step,
		Time:    s.Time,
		Bodies:  make([]BodyFrame, len(s.Bodies)),
	}

	for i, b := range s.Bodies {
		bf := BodyFrame{
			ID:       uint64(b.ID),
			Type:     b.Type.String(),
			Shape:    b.Shape.String(),
			Position: ToPixels(b.Position),
			Angle:    -b.Angle,
			Radius:   b.Radius * UnitsToPixels,
			Awake:    b.Awake,
			Sensor:   b.Sensor,
		}
		if len(b.Vertices) > 0 {
			bf.Vertices = make([]Point, len(b.Vertices))
			for j, v := range b.Vertices {
				bf.Vertices[j] = ToPixels(v)
			}
		}
		f.Bodies[i] = bf
	}

	for _, c := range s.Contacts {
		f.Contacts = append(f.Contacts, ToPixels(c))
	}
	return f
}
