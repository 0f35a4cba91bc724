package physics

import (
	"math"
	"sync"

	"github.com/0x5844/physics-2d/pkg/collision"
	"github.com/0x5844/physics-2d/pkg/vmath"
)

// ManifoldState tracks where a manifold is in its per-step lifecycle.
// Hooks fire in state order; a manifold never moves backwards.
type ManifoldState uint8

const (
	StateGenerated ManifoldState = iota
	StatePreContact
	StatePostContact
	StatePreSolve
	StatePostSolve
	// StateDiscarded marks a manifold without contacts, or one left
	// unresolved after PostContact. It never reaches the solver.
	StateDiscarded
)

func (s ManifoldState) String() string {
	switch s {
	case StateGenerated:
		return "generated"
	case StatePreContact:
		return "pre-contact"
	case StatePostContact:
		return "post-contact"
	case StatePreSolve:
		return "pre-solve"
	case StatePostSolve:
		return "post-solve"
	case StateDiscarded:
		return "discarded"
	default:
		return "unknown"
	}
}

var manifoldTransitions = map[ManifoldState][]ManifoldState{
	StateGenerated:   {StatePreContact, StateDiscarded},
	StatePreContact:  {StatePostContact},
	StatePostContact: {StatePreSolve, StateDiscarded},
	StatePreSolve:    {StatePostSolve},
}

func canTransition(from, to ManifoldState) bool {
	for _, s := range manifoldTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ==================== CONTACT MANIFOLD ====================

// ContactManifold is one colliding pair for the current step. Normal points
// from BodyA to BodyB. Manifolds are rebuilt every step and are only valid
// until the next one starts.
type ContactManifold struct {
	BodyA *RigidBody
	BodyB *RigidBody

	Normal       vmath.Vector2
	Penetration  float64
	Contact1     vmath.Vector2
	Contact2     vmath.Vector2
	ContactCount int

	// EnableResolveContact is false for sensor pairs. PreContact and
	// PreSolve listeners may clear it to let the bodies pass through.
	EnableResolveContact bool

	Friction    float64
	Restitution float64

	state           ManifoldState
	depths          [collision.MaxManifoldPoints]float64
	anchorsA        [collision.MaxManifoldPoints]vmath.Vector2
	anchorsB        [collision.MaxManifoldPoints]vmath.Vector2
	normalImpulses  [collision.MaxManifoldPoints]float64
	tangentImpulses [collision.MaxManifoldPoints]float64
}

func (m *ContactManifold) State() ManifoldState { return m.state }

// Point returns contact i, i < ContactCount.
func (m *ContactManifold) Point(i int) vmath.Vector2 {
	if i == 0 {
		return m.Contact1
	}
	return m.Contact2
}

// Depth returns the penetration of contact i.
func (m *ContactManifold) Depth(i int) float64 { return m.depths[i] }

// NormalImpulse is the accumulated normal impulse of contact i after the
// solver ran.
func (m *ContactManifold) NormalImpulse(i int) float64 { return m.normalImpulses[i] }

// TangentImpulse is the accumulated friction impulse of contact i.
func (m *ContactManifold) TangentImpulse(i int) float64 { return m.tangentImpulses[i] }

// Other returns the body paired with b.
func (m *ContactManifold) Other(b *RigidBody) *RigidBody {
	if m.BodyA == b {
		return m.BodyB
	}
	return m.BodyA
}

func (m *ContactManifold) reset() {
	*m = ContactManifold{}
}

// geometry is the part of a manifold listeners must leave alone after it
// has been accepted.
type geometry struct {
	normal      vmath.Vector2
	penetration float64
	contact1    vmath.Vector2
	contact2    vmath.Vector2
	count       int
	bodyA       *RigidBody
	bodyB       *RigidBody
}

func (m *ContactManifold) geometry() geometry {
	return geometry{
		normal:      m.Normal,
		penetration: m.Penetration,
		contact1:    m.Contact1,
		contact2:    m.Contact2,
		count:       m.ContactCount,
		bodyA:       m.BodyA,
		bodyB:       m.BodyB,
	}
}

// ==================== MANIFOLD GENERATION ====================

// shouldGenerate applies the pair rules that run before any geometry.
func shouldGenerate(a, b *RigidBody) bool {
	if a == b {
		return false
	}
	if a.invMass == 0 && b.invMass == 0 {
		return false
	}
	if !a.IsAwake() && !b.IsAwake() {
		return false
	}
	return ShouldCollide(a.filter, b.filter)
}

// GenerateManifold computes the manifold of a and b. Pairs that may not
// collide yield a manifold with ContactCount 0.
func GenerateManifold(a, b *RigidBody) ContactManifold {
	var m ContactManifold
	generateManifold(&m, a, b)
	return m
}

func generateManifold(m *ContactManifold, a, b *RigidBody) {
	m.BodyA, m.BodyB = a, b
	m.state = StateGenerated
	if !shouldGenerate(a, b) {
		return
	}

	cm := collision.Collide(a.shape, a.xf, b.shape, b.xf)
	if !cm.Colliding() {
		return
	}

	m.Normal = cm.Normal
	m.Penetration = cm.Depth
	m.ContactCount = cm.Count
	m.Contact1 = cm.Points[0]
	m.Contact2 = cm.Points[1]
	m.depths = cm.Depths
	for i := 0; i < cm.Count; i++ {
		m.anchorsA[i] = a.xf.ApplyInverse(cm.Points[i])
		m.anchorsB[i] = b.xf.ApplyInverse(cm.Points[i])
	}

	m.EnableResolveContact = !a.sensor && !b.sensor
	m.Friction = math.Sqrt(a.friction * b.friction)
	m.Restitution = math.Min(a.restitution, b.restitution)
}

// ==================== MANIFOLD POOL ====================

type manifoldPool struct {
	pool sync.Pool
}

func newManifoldPool() *manifoldPool {
	return &manifoldPool{
		pool: sync.Pool{
			New: func() any {
				return &ContactManifold{}
			},
		},
	}
}

func (mp *manifoldPool) get() *ContactManifold {
	m := mp.pool.Get().(*ContactManifold)
	m.reset()
	return m
}

func (mp *manifoldPool) put(m *ContactManifold) {
	mp.pool.Put(m)
}
