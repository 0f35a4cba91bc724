package engine

import (
	"github.com/0x5844/physics-2d/pkg/physics"
	"github.com/0x5844/physics-2d/pkg/shape"
	"github.com/0x5844/physics-2d/pkg/vmath"
)

// BodySnapshot is the drawable state of one body in world space. Circles
// fill Radius, polygons and segments fill Vertices.
type BodySnapshot struct {
	ID       physics.BodyID
	Type     physics.BodyType
	Shape    shape.Kind
	Position vmath.Vector2
	Angle    float64
	Awake    bool
	Sensor   bool
	Radius   float64
	Vertices []vmath.Vector2
}

// Snapshot is an immutable copy of the world taken after a frame. It is
// safe to hand to other goroutines.
type Snapshot struct {
	RunID    string
	Step     int64
	Time     float64
	Bodies   []BodySnapshot
	Contacts []vmath.Vector2
}

// Snapshot returns the latest published snapshot. It is empty until the
// first frame when snapshots are enabled.
func (e *Engine) Snapshot() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.latest
}

func (e *Engine) publish(s Snapshot) {
	e.mu.Lock()
	e.latest = s
	e.mu.Unlock()
}

// capture reads the world; it must run on the goroutine that steps it.
func (e *Engine) capture() Snapshot {
	bodies := e.world.Bodies()
	s := Snapshot{
		RunID:  e.runID.String(),
		Step:   e.world.Stats().Steps,
		Time:   e.simTime,
		Bodies: make([]BodySnapshot, 0, len(bodies)),
	}

	for _, b := range bodies {
		s.Bodies = append(s.Bodies, snapshotBody(b))
	}

	for _, m := range e.world.Manifolds() {
		if !m.EnableResolveContact {
			continue
		}
		for i := 0; i < m.ContactCount; i++ {
			s.Contacts = append(s.Contacts, m.Point(i))
		}
	}
	return s
}

func snapshotBody(b *physics.RigidBody) BodySnapshot {
	xf := b.Transform()
	bs := BodySnapshot{
		ID:       b.ID(),
		Type:     b.Type(),
		Shape:    b.Shape().Kind(),
		Position: xf.Position,
		Angle:    b.Angle(),
		Awake:    b.IsAwake(),
		Sensor:   b.IsSensor(),
	}

	switch s := b.Shape().(type) {
	case *shape.Circle:
		bs.Radius = s.Radius
	case *shape.Polygon:
		bs.Vertices = make([]vmath.Vector2, s.VertexCount())
		for i := range bs.Vertices {
			bs.Vertices[i] = xf.Apply(s.Vertex(i))
		}
	case *shape.Segment:
		bs.Radius = s.HalfThickness
		bs.Vertices = []vmath.Vector2{xf.Apply(s.A), xf.Apply(s.B)}
	}
	return bs
}
