package ragdoll

import (
	"github.com/go-gl/mathgl/mgl64"
)

// PointConstraint pins PivotA (in BodyA's frame) to PivotB (in BodyB's frame).
type PointConstraint struct {
	BodyA  *RigidBody
	BodyB  *RigidBody
	PivotA mgl64.Vec3
	PivotB mgl64.Vec3
	// MaxForce bounds the corrective force; zero means unbounded.
	MaxForce float64
}

func NewPointConstraint(a *RigidBody, pivotA mgl64.Vec3, b *RigidBody, pivotB mgl64.Vec3) *PointConstraint {
	return &PointConstraint{BodyA: a, BodyB: b, PivotA: pivotA, PivotB: pivotB}
}

// Separation returns the world-space gap between the two pivots.
func (c *PointConstraint) Separation() mgl64.Vec3 {
	return c.BodyB.PointToWorld(c.PivotB).Sub(c.BodyA.PointToWorld(c.PivotA))
}

func skew(r mgl64.Vec3) mgl64.Mat3 {
	return mgl64.Mat3{
		0, r.Z(), -r.Y(),
		-r.Z(), 0, r.X(),
		r.Y(), -r.X(), 0,
	}
}

func (c *PointConstraint) solve(h, baumgarte float64) {
	a, b := c.BodyA, c.BodyB
	if !a.IsDynamic() && !b.IsDynamic() {
		return
	}
	ra := a.Rotation.Rotate(c.PivotA)
	rb := b.Rotation.Rotate(c.PivotB)
	gap := b.Position.Add(rb).Sub(a.Position.Add(ra))
	rel := b.VelocityAt(rb).Sub(a.VelocityAt(ra))

	sa, sb := skew(ra), skew(rb)
	k := mgl64.Ident3().Mul(a.invMass + b.invMass).
		Add(sa.Transpose().Mul3(a.InverseInertiaWorld()).Mul3(sa)).
		Add(sb.Transpose().Mul3(b.InverseInertiaWorld()).Mul3(sb))
	if k.Det() == 0 {
		return
	}
	impulse := k.Inv().Mul3x1(rel.Add(gap.Mul(baumgarte / h)).Mul(-1))
	if c.MaxForce > 0 {
		if limit := c.MaxForce * h; impulse.Len() > limit {
			impulse = impulse.Normalize().Mul(limit)
		}
	}
	a.ApplyImpulse(impulse.Mul(-1), ra)
	b.ApplyImpulse(impulse, rb)
}
