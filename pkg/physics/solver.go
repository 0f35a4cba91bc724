package physics

import (
	"math"

	"github.com/0x5844/physics-2d/pkg/collision"
	"github.com/0x5844/physics-2d/pkg/vmath"
)

// ContactResolver turns resolved manifolds into velocity and position
// changes. Solve runs before positions are integrated and CorrectPositions
// after.
type ContactResolver interface {
	Solve(manifolds []*ContactManifold, iterations int, dt float64)
	CorrectPositions(manifolds []*ContactManifold)
}

type velocityPoint struct {
	rA, rB       vmath.Vector2
	normalMass   float64
	tangentMass  float64
	velocityBias float64
}

type velocityConstraint struct {
	m       *ContactManifold
	tangent vmath.Vector2
	points  [collision.MaxManifoldPoints]velocityPoint
}

// SequentialImpulseSolver accumulates clamped impulses per contact point
// over a fixed number of iterations. Contacts are not persisted between
// steps, so every step starts from zero impulse.
type SequentialImpulseSolver struct {
	settings    Settings
	constraints []velocityConstraint
}

func NewSequentialImpulseSolver(settings Settings) *SequentialImpulseSolver {
	return &SequentialImpulseSolver{settings: settings}
}

func (s *SequentialImpulseSolver) Settings() Settings { return s.settings }

func (s *SequentialImpulseSolver) Solve(manifolds []*ContactManifold, iterations int, dt float64) {
	if iterations <= 0 || dt <= 0 || len(manifolds) == 0 {
		return
	}

	s.prepare(manifolds)
	for i := 0; i < iterations; i++ {
		for j := range s.constraints {
			s.solveConstraint(&s.constraints[j])
		}
	}
}

func (s *SequentialImpulseSolver) prepare(manifolds []*ContactManifold) {
	s.constraints = s.constraints[:0]

	for _, m := range manifolds {
		a, b := m.BodyA, m.BodyB
		vc := velocityConstraint{
			m:       m,
			tangent: vmath.CrossVS(m.Normal, 1),
		}

		for i := 0; i < m.ContactCount; i++ {
			m.normalImpulses[i] = 0
			m.tangentImpulses[i] = 0

			vp := &vc.points[i]
			p := m.Point(i)
			vp.rA = p.Sub(a.center)
			vp.rB = p.Sub(b.center)

			rnA := vp.rA.Cross(m.Normal)
			rnB := vp.rB.Cross(m.Normal)
			kNormal := a.invMass + b.invMass + a.invInertia*rnA*rnA + b.invInertia*rnB*rnB
			if kNormal > 0 {
				vp.normalMass = 1 / kNormal
			}

			rtA := vp.rA.Cross(vc.tangent)
			rtB := vp.rB.Cross(vc.tangent)
			kTangent := a.invMass + b.invMass + a.invInertia*rtA*rtA + b.invInertia*rtB*rtB
			if kTangent > 0 {
				vp.tangentMass = 1 / kTangent
			}

			vRel := m.Normal.Dot(relativeVelocity(a, b, vp.rA, vp.rB))
			if vRel < -s.settings.VelocityThreshold {
				vp.velocityBias = -m.Restitution * vRel
			}
		}

		s.constraints = append(s.constraints, vc)
	}
}

func (s *SequentialImpulseSolver) solveConstraint(vc *velocityConstraint) {
	m := vc.m
	a, b := m.BodyA, m.BodyB

	for i := 0; i < m.ContactCount; i++ {
		vp := &vc.points[i]
		vt := relativeVelocity(a, b, vp.rA, vp.rB).Dot(vc.tangent)
		lambda := -vp.tangentMass * vt

		maxFriction := m.Friction * m.normalImpulses[i]
		newImpulse := vmath.Clamp(m.tangentImpulses[i]+lambda, -maxFriction, maxFriction)
		lambda = newImpulse - m.tangentImpulses[i]
		m.tangentImpulses[i] = newImpulse

		applyImpulse(a, b, vc.tangent.Scale(lambda), vp.rA, vp.rB)
	}

	for i := 0; i < m.ContactCount; i++ {
		vp := &vc.points[i]
		vn := relativeVelocity(a, b, vp.rA, vp.rB).Dot(m.Normal)
		lambda := -vp.normalMass * (vn - vp.velocityBias)

		newImpulse := math.Max(m.normalImpulses[i]+lambda, 0)
		lambda = newImpulse - m.normalImpulses[i]
		m.normalImpulses[i] = newImpulse

		applyImpulse(a, b, m.Normal.Scale(lambda), vp.rA, vp.rB)
	}
}

// relativeVelocity is the velocity of B's contact point seen from A's.
func relativeVelocity(a, b *RigidBody, rA, rB vmath.Vector2) vmath.Vector2 {
	vA := a.linearVelocity.Add(vmath.CrossSV(a.angularVelocity, rA))
	vB := b.linearVelocity.Add(vmath.CrossSV(b.angularVelocity, rB))
	return vB.Sub(vA)
}

func applyImpulse(a, b *RigidBody, p, rA, rB vmath.Vector2) {
	a.linearVelocity = a.linearVelocity.Sub(p.Scale(a.invMass))
	a.angularVelocity -= a.invInertia * rA.Cross(p)
	b.linearVelocity = b.linearVelocity.Add(p.Scale(b.invMass))
	b.angularVelocity += b.invInertia * rB.Cross(p)
}

// CorrectPositions pushes overlapping bodies apart along the contact normal.
// The remaining depth of each point is measured from the anchors recorded
// when the manifold was generated, so earlier corrections in the same pass
// are taken into account. Velocities are left alone.
func (s *SequentialImpulseSolver) CorrectPositions(manifolds []*ContactManifold) {
	for _, m := range manifolds {
		a, b := m.BodyA, m.BodyB
		invMassSum := a.invMass + b.invMass
		if invMassSum == 0 || m.ContactCount == 0 {
			continue
		}

		depth := math.Inf(-1)
		for i := 0; i < m.ContactCount; i++ {
			pA := a.xf.Apply(m.anchorsA[i])
			pB := b.xf.Apply(m.anchorsB[i])
			depth = math.Max(depth, m.depths[i]-pB.Sub(pA).Dot(m.Normal))
		}

		correction := vmath.Clamp(s.settings.Baumgarte*(depth-s.settings.LinearSlop), 0, s.settings.MaxLinearCorrection)
		if correction == 0 {
			continue
		}

		p := m.Normal.Scale(correction / invMassSum)
		if a.invMass > 0 {
			a.translate(p.Scale(-a.invMass))
		}
		if b.invMass > 0 {
			b.translate(p.Scale(b.invMass))
		}
	}
}
