package physics

import (
	"github.com/0x5844/physics-2d/pkg/shape"
	"github.com/0x5844/physics-2d/pkg/vmath"
)

type BodyType uint8

const (
	// Static bodies have infinite mass and never move on their own.
	Static BodyType = iota
	// Kinematic bodies move with their set velocity and ignore forces.
	Kinematic
	Dynamic
)

func (t BodyType) String() string {
	switch t {
	case Static:
		return "static"
	case Kinematic:
		return "kinematic"
	case Dynamic:
		return "dynamic"
	default:
		return "unknown"
	}
}

// BodyID is a handle to a body, unique within its world. IDs are handed
// out sequentially starting at 1.
type BodyID uint64

// BodyDef describes a body to create. Start from DefaultBodyDef so that
// GravityScale is 1.
type BodyDef struct {
	Type            BodyType
	Position        vmath.Vector2
	Angle           float64
	LinearVelocity  vmath.Vector2
	AngularVelocity float64
	LinearDamping   float64
	AngularDamping  float64
	GravityScale    float64

	Bullet        bool
	FixedRotation bool
	Asleep        bool
	DisableSleep  bool

	UserData any
}

func DefaultBodyDef() BodyDef {
	return BodyDef{Type: Dynamic, GravityScale: 1}
}

// FixtureDef describes the material and geometry of a body. A zero Filter
// is replaced by DefaultFilter.
type FixtureDef struct {
	Shape       shape.Shape
	Density     float64
	Friction    float64
	Restitution float64
	Sensor      bool
	Filter      Filter
}

func DefaultFixtureDef(s shape.Shape) FixtureDef {
	return FixtureDef{
		Shape:    s,
		Density:  1,
		Friction: 0.3,
		Filter:   DefaultFilter(),
	}
}

// ==================== RIGID BODY ====================

type RigidBody struct {
	id       BodyID
	world    *World
	bodyType BodyType
	shape    shape.Shape

	xf          vmath.Transform
	prevXf      vmath.Transform
	localCenter vmath.Vector2
	center      vmath.Vector2

	linearVelocity  vmath.Vector2
	angularVelocity float64
	force           vmath.Vector2
	torque          float64

	mass       float64
	invMass    float64
	inertia    float64
	invInertia float64

	linearDamping  float64
	angularDamping float64
	gravityScale   float64

	density     float64
	friction    float64
	restitution float64
	sensor      bool
	filter      Filter

	sleeping      bool
	allowSleep    bool
	bullet        bool
	fixedRotation bool
	sleepTime     float64

	aabb     vmath.AABB
	index    int
	inWorld  bool
	userData any
}

func newRigidBody(id BodyID, def BodyDef, fixture FixtureDef) *RigidBody {
	if fixture.Filter == (Filter{}) {
		fixture.Filter = DefaultFilter()
	}

	rb := &RigidBody{
		id:             id,
		bodyType:       def.Type,
		shape:          fixture.Shape,
		linearDamping:  def.LinearDamping,
		angularDamping: def.AngularDamping,
		gravityScale:   def.GravityScale,
		density:        fixture.Density,
		friction:       fixture.Friction,
		restitution:    fixture.Restitution,
		sensor:         fixture.Sensor,
		filter:         fixture.Filter,
		allowSleep:     !def.DisableSleep,
		bullet:         def.Bullet,
		fixedRotation:  def.FixedRotation,
		userData:       def.UserData,
	}

	rb.xf = vmath.NewTransform(def.Position, def.Angle)
	rb.resetMassData()
	rb.center = rb.xf.Apply(rb.localCenter)
	rb.prevXf = rb.xf

	if rb.bodyType != Static {
		rb.linearVelocity = def.LinearVelocity
		rb.angularVelocity = def.AngularVelocity
	}
	if rb.bodyType == Dynamic && def.Asleep && rb.allowSleep {
		rb.sleeping = true
		rb.linearVelocity = vmath.Vector2{}
		rb.angularVelocity = 0
	}

	rb.aabb = rb.shape.ComputeAABB(rb.xf)
	return rb
}

func (rb *RigidBody) resetMassData() {
	md := rb.shape.ComputeMass(rb.density)
	rb.localCenter = md.Center
	rb.mass, rb.invMass = 0, 0
	rb.inertia, rb.invInertia = 0, 0

	if rb.bodyType != Dynamic {
		return
	}

	rb.mass = md.Mass
	if rb.mass <= 0 {
		rb.mass = 1
	}
	rb.invMass = 1 / rb.mass

	if md.Inertia > 0 && !rb.fixedRotation {
		rb.inertia = md.Inertia
		rb.invInertia = 1 / rb.inertia
	}
}

func (rb *RigidBody) ID() BodyID         { return rb.id }
func (rb *RigidBody) Type() BodyType     { return rb.bodyType }
func (rb *RigidBody) Shape() shape.Shape { return rb.shape }

// World returns the owning world, or nil once the body is destroyed.
func (rb *RigidBody) World() *World { return rb.world }

func (rb *RigidBody) Transform() vmath.Transform { return rb.xf }
func (rb *RigidBody) Position() vmath.Vector2    { return rb.xf.Position }
func (rb *RigidBody) Angle() float64             { return rb.xf.Rotation.Angle() }

// WorldCenter is the centre of mass in world coordinates.
func (rb *RigidBody) WorldCenter() vmath.Vector2 { return rb.center }

// LocalCenter is the centre of mass relative to the body origin.
func (rb *RigidBody) LocalCenter() vmath.Vector2 { return rb.localCenter }

func (rb *RigidBody) LinearVelocity() vmath.Vector2 { return rb.linearVelocity }
func (rb *RigidBody) AngularVelocity() float64      { return rb.angularVelocity }

func (rb *RigidBody) Mass() float64       { return rb.mass }
func (rb *RigidBody) InvMass() float64    { return rb.invMass }
func (rb *RigidBody) Inertia() float64    { return rb.inertia }
func (rb *RigidBody) InvInertia() float64 { return rb.invInertia }

func (rb *RigidBody) Friction() float64    { return rb.friction }
func (rb *RigidBody) Restitution() float64 { return rb.restitution }
func (rb *RigidBody) Density() float64     { return rb.density }
func (rb *RigidBody) Filter() Filter       { return rb.filter }

func (rb *RigidBody) SetFriction(friction float64)       { rb.friction = friction }
func (rb *RigidBody) SetRestitution(restitution float64) { rb.restitution = restitution }
func (rb *RigidBody) SetFilter(filter Filter)            { rb.filter = filter }

// AABB is the world bounding box as of the last step or transform change.
func (rb *RigidBody) AABB() vmath.AABB { return rb.aabb }

func (rb *RigidBody) LinearDamping() float64  { return rb.linearDamping }
func (rb *RigidBody) AngularDamping() float64 { return rb.angularDamping }
func (rb *RigidBody) GravityScale() float64   { return rb.gravityScale }

func (rb *RigidBody) SetLinearDamping(d float64)  { rb.linearDamping = d }
func (rb *RigidBody) SetAngularDamping(d float64) { rb.angularDamping = d }
func (rb *RigidBody) SetGravityScale(s float64)   { rb.gravityScale = s }

func (rb *RigidBody) IsStatic() bool    { return rb.bodyType == Static }
func (rb *RigidBody) IsKinematic() bool { return rb.bodyType == Kinematic }
func (rb *RigidBody) IsDynamic() bool   { return rb.bodyType == Dynamic }
func (rb *RigidBody) IsSensor() bool    { return rb.sensor }
func (rb *RigidBody) IsBullet() bool    { return rb.bullet }
func (rb *RigidBody) IsSleeping() bool  { return rb.sleeping }

// IsAwake reports whether the body takes part in simulation this step.
// Static bodies are never awake.
func (rb *RigidBody) IsAwake() bool {
	return rb.bodyType != Static && !rb.sleeping
}

// wakesOthers reports whether touching rb wakes a sleeping body. A resting
// kinematic body is awake but does not.
func (rb *RigidBody) wakesOthers() bool {
	switch rb.bodyType {
	case Dynamic:
		return !rb.sleeping
	case Kinematic:
		return rb.linearVelocity.MagnitudeSquared() > 0 || rb.angularVelocity != 0
	default:
		return false
	}
}

func (rb *RigidBody) SetBullet(flag bool) { rb.bullet = flag }

func (rb *RigidBody) UserData() any        { return rb.userData }
func (rb *RigidBody) SetUserData(data any) { rb.userData = data }

func (rb *RigidBody) SleepingAllowed() bool { return rb.allowSleep }

func (rb *RigidBody) SetSleepingAllowed(flag bool) {
	rb.allowSleep = flag
	if !flag {
		rb.SetAwake(true)
	}
}

// SetAwake wakes or sleeps a dynamic body. Sleeping clears velocity and
// accumulated forces.
func (rb *RigidBody) SetAwake(flag bool) {
	if rb.bodyType != Dynamic {
		return
	}
	rb.sleepTime = 0
	if flag {
		rb.sleeping = false
		return
	}
	rb.sleeping = true
	rb.linearVelocity = vmath.Vector2{}
	rb.angularVelocity = 0
	rb.force = vmath.Vector2{}
	rb.torque = 0
}

func (rb *RigidBody) WakeUp() { rb.SetAwake(true) }

// SetTransform teleports the body. It is allowed on every body type.
func (rb *RigidBody) SetTransform(position vmath.Vector2, angle float64) {
	rb.xf = vmath.NewTransform(position, angle)
	rb.prevXf = rb.xf
	rb.center = rb.xf.Apply(rb.localCenter)
	rb.refreshAABB(false)
	rb.WakeUp()
}

func (rb *RigidBody) SetLinearVelocity(v vmath.Vector2) {
	if rb.bodyType == Static {
		return
	}
	if v.MagnitudeSquared() > 0 {
		rb.WakeUp()
	}
	rb.linearVelocity = v
}

func (rb *RigidBody) SetAngularVelocity(w float64) {
	if rb.bodyType == Static {
		return
	}
	if w != 0 {
		rb.WakeUp()
	}
	rb.angularVelocity = w
}

// ApplyForce applies force at a world point, producing a torque about the
// centre of mass.
func (rb *RigidBody) ApplyForce(force, point vmath.Vector2) {
	if rb.bodyType != Dynamic {
		return
	}
	rb.WakeUp()
	rb.force = rb.force.Add(force)
	rb.torque += point.Sub(rb.center).Cross(force)
}

func (rb *RigidBody) ApplyForceToCenter(force vmath.Vector2) {
	if rb.bodyType != Dynamic {
		return
	}
	rb.WakeUp()
	rb.force = rb.force.Add(force)
}

func (rb *RigidBody) ApplyTorque(torque float64) {
	if rb.bodyType != Dynamic {
		return
	}
	rb.WakeUp()
	rb.torque += torque
}

func (rb *RigidBody) ApplyLinearImpulse(impulse, point vmath.Vector2) {
	if rb.bodyType != Dynamic {
		return
	}
	rb.WakeUp()
	rb.linearVelocity = rb.linearVelocity.Add(impulse.Scale(rb.invMass))
	rb.angularVelocity += rb.invInertia * point.Sub(rb.center).Cross(impulse)
}

func (rb *RigidBody) ApplyAngularImpulse(impulse float64) {
	if rb.bodyType != Dynamic {
		return
	}
	rb.WakeUp()
	rb.angularVelocity += rb.invInertia * impulse
}

// VelocityAt returns the velocity of the body's material at a world point.
func (rb *RigidBody) VelocityAt(point vmath.Vector2) vmath.Vector2 {
	return rb.linearVelocity.Add(vmath.CrossSV(rb.angularVelocity, point.Sub(rb.center)))
}

// synchronizeTransform rebuilds the transform from the centre of mass and
// the current angle.
func (rb *RigidBody) synchronizeTransform(angle float64) {
	rot := vmath.NewRotation(angle)
	rb.xf = vmath.Transform{
		Position: rb.center.Sub(rot.Apply(rb.localCenter)),
		Rotation: rot,
	}
}

func (rb *RigidBody) translate(d vmath.Vector2) {
	rb.center = rb.center.Add(d)
	rb.xf.Position = rb.xf.Position.Add(d)
}

// refreshAABB recomputes the world box; swept bodies also cover the
// previous transform.
func (rb *RigidBody) refreshAABB(swept bool) {
	rb.aabb = rb.shape.ComputeAABB(rb.xf)
	if swept {
		rb.aabb = rb.aabb.Union(rb.shape.ComputeAABB(rb.prevXf))
	}
	if rb.world != nil && rb.inWorld {
		rb.world.grid.Update(rb.id, rb.aabb)
	}
}
