package physics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0x5844/physics-2d/pkg/shape"
	"github.com/0x5844/physics-2d/pkg/vmath"
)

func TestBodyTypeString(t *testing.T) {
	assert.Equal(t, "static", Static.String())
	assert.Equal(t, "kinematic", Kinematic.String())
	assert.Equal(t, "dynamic", Dynamic.String())
	assert.Equal(t, "unknown", BodyType(9).String())
}

func TestBodyMassData(t *testing.T) {
	w := newTestWorld(t)

	fixture := DefaultFixtureDef(shape.NewBox(2, 1))
	fixture.Density = 3
	b := mustCreate(t, w, bodyDef(Dynamic, 1, 2), fixture)

	assert.InDelta(t, 6, b.Mass(), 1e-12)
	assert.InDelta(t, 1.0/6, b.InvMass(), 1e-12)
	assert.InDelta(t, 6*5.0/12, b.Inertia(), 1e-12)
	assert.InDelta(t, 1/(6*5.0/12), b.InvInertia(), 1e-12)
	assert.InDelta(t, 1, b.WorldCenter().X, 1e-12)
	assert.InDelta(t, 2, b.WorldCenter().Y, 1e-12)

	static := mustCreate(t, w, bodyDef(Static, 0, 0), fixture)
	assert.Zero(t, static.Mass())
	assert.Zero(t, static.InvMass())
	assert.Zero(t, static.InvInertia())

	kin := mustCreate(t, w, bodyDef(Kinematic, 0, 0), fixture)
	assert.Zero(t, kin.InvMass())

	def := bodyDef(Dynamic, 0, 0)
	def.FixedRotation = true
	fixed := mustCreate(t, w, def, fixture)
	assert.Zero(t, fixed.InvInertia())
	assert.Positive(t, fixed.InvMass())

	weightless := DefaultFixtureDef(shape.NewCircle(1))
	weightless.Density = 0
	unit := mustCreate(t, w, bodyDef(Dynamic, 0, 0), weightless)
	assert.Equal(t, 1.0, unit.Mass())
}

func TestBodyCenterOfMassOffset(t *testing.T) {
	w := newTestWorld(t, WithGravity(vmath.Vector2{}))

	// a triangle whose centroid is away from the body origin
	tri, err := shape.NewPolygon([]vmath.Vector2{{X: 0, Y: 0}, {X: 3, Y: 0}, {X: 0, Y: 3}})
	require.NoError(t, err)

	def := bodyDef(Dynamic, 10, 0)
	def.AngularVelocity = 1
	b := mustCreate(t, w, def, DefaultFixtureDef(tri))

	assert.InDelta(t, 1, b.LocalCenter().X, 1e-12)
	assert.InDelta(t, 1, b.LocalCenter().Y, 1e-12)
	center := b.WorldCenter()

	stepN(t, w, 30)
	assert.InDelta(t, center.X, b.WorldCenter().X, 1e-9, "spinning in place keeps the centre of mass")
	assert.InDelta(t, center.Y, b.WorldCenter().Y, 1e-9)
	assert.NotEqual(t, vmath.NewVector2(10, 0), b.Position())
	assert.InDelta(t, 0.5, b.Angle(), 1e-9)
}

func TestBodyDefaults(t *testing.T) {
	w := newTestWorld(t)
	b := addBox(t, w, 0, 0)

	assert.Equal(t, BodyID(1), b.ID())
	assert.Equal(t, Dynamic, b.Type())
	assert.True(t, b.IsDynamic())
	assert.Equal(t, w, b.World())
	assert.Equal(t, 0.3, b.Friction())
	assert.Zero(t, b.Restitution())
	assert.Equal(t, 1.0, b.Density())
	assert.Equal(t, DefaultFilter(), b.Filter())
	assert.Equal(t, 1.0, b.GravityScale())
	assert.True(t, b.SleepingAllowed())
	assert.False(t, b.IsSensor())
	assert.False(t, b.IsBullet())

	fixture := DefaultFixtureDef(shape.NewCircle(1))
	fixture.Filter = Filter{}
	def := DefaultBodyDef()
	def.UserData = "crate"
	c := mustCreate(t, w, def, fixture)
	assert.Equal(t, BodyID(2), c.ID())
	assert.Equal(t, DefaultFilter(), c.Filter(), "zero filter falls back to the default")
	assert.Equal(t, "crate", c.UserData())

	c.SetUserData(7)
	c.SetFriction(0.9)
	c.SetRestitution(0.4)
	c.SetBullet(true)
	c.SetGravityScale(0)
	c.SetLinearDamping(0.1)
	c.SetAngularDamping(0.2)
	assert.Equal(t, 7, c.UserData())
	assert.Equal(t, 0.9, c.Friction())
	assert.Equal(t, 0.4, c.Restitution())
	assert.True(t, c.IsBullet())
	assert.Zero(t, c.GravityScale())
	assert.Equal(t, 0.1, c.LinearDamping())
	assert.Equal(t, 0.2, c.AngularDamping())
}

func TestBodyStartsAsleep(t *testing.T) {
	w := newTestWorld(t)
	def := bodyDef(Dynamic, 0, 10)
	def.Asleep = true
	def.LinearVelocity = vmath.NewVector2(3, 0)
	b := mustCreate(t, w, def, DefaultFixtureDef(shape.NewCircle(0.5)))

	assert.True(t, b.IsSleeping())
	assert.Equal(t, vmath.Vector2{}, b.LinearVelocity())

	stepN(t, w, 10)
	assert.Equal(t, vmath.NewVector2(0, 10), b.Position(), "gravity does not reach sleeping bodies")

	b.SetLinearVelocity(vmath.NewVector2(1, 0))
	assert.True(t, b.IsAwake())
}

func TestApplyForceProducesTorque(t *testing.T) {
	w := newTestWorld(t, WithGravity(vmath.Vector2{}))
	b := addBox(t, w, 0, 0)

	b.ApplyForce(vmath.NewVector2(0, 6), vmath.NewVector2(0.5, 0))
	require.NoError(t, w.Step(0.5))

	// a = F/m = 6, alpha = r x F / I = 3 / (1/6) = 18
	assert.InDelta(t, 3, b.LinearVelocity().Y, 1e-9)
	assert.InDelta(t, 9, b.AngularVelocity(), 1e-9)

	require.NoError(t, w.Step(0.5))
	assert.InDelta(t, 3, b.LinearVelocity().Y, 1e-9, "forces are cleared after each step")

	b.ApplyTorque(1.0 / 6)
	b.ApplyForceToCenter(vmath.NewVector2(2, 0))
	require.NoError(t, w.Step(1))
	assert.InDelta(t, 10, b.AngularVelocity(), 1e-9)
	assert.InDelta(t, 2, b.LinearVelocity().X, 1e-9)
}

func TestApplyImpulses(t *testing.T) {
	w := newTestWorld(t)
	b := addBox(t, w, 0, 0)

	b.ApplyLinearImpulse(vmath.NewVector2(2, 0), vmath.NewVector2(0, 0.5))
	assert.Equal(t, vmath.NewVector2(2, 0), b.LinearVelocity())
	assert.InDelta(t, -6, b.AngularVelocity(), 1e-9)

	b.ApplyAngularImpulse(1.0 / 6)
	assert.InDelta(t, -5, b.AngularVelocity(), 1e-9)

	v := b.VelocityAt(vmath.NewVector2(0, 1))
	assert.InDelta(t, 7, v.X, 1e-9)
	assert.InDelta(t, 0, v.Y, 1e-9)
}

func TestSetTransformUpdatesBroadPhase(t *testing.T) {
	w := newTestWorld(t)
	b := addBox(t, w, 0, 0)

	b.SetTransform(vmath.NewVector2(20, 20), 0.5)
	assert.Equal(t, vmath.NewVector2(20, 20), b.Position())
	assert.Equal(t, 0.5, b.Angle())
	assert.True(t, b.AABB().Contains(vmath.NewVector2(20, 20)))

	box, ok := w.Grid().AABB(b.ID())
	require.True(t, ok)
	assert.Equal(t, b.AABB(), box)
	assert.Contains(t, w.GetCell(w.GetCellKeyFromWorldPosition(20, 20)), b.ID())
	assert.Empty(t, w.QueryPoint(vmath.Vector2{}))
}

func TestSleepingAllowedToggle(t *testing.T) {
	w := newTestWorld(t)
	b := addBox(t, w, 0, 0)

	b.SetAwake(false)
	require.True(t, b.IsSleeping())
	b.SetSleepingAllowed(false)
	assert.True(t, b.IsAwake())

	static := addGround(t, w)
	static.SetAwake(true)
	assert.False(t, static.IsAwake())
	assert.False(t, static.IsSleeping())
}
