package ragdoll

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// limitTolerance keeps a freshly clamped limb from re-triggering on float noise.
const limitTolerance = 1e-9

// enforcePlane pins every body to z = 0 and strips all rotation except the
// twist about the plane normal.
func (f *Figure) enforcePlane() {
	for _, p := range f.parts {
		b := p.Body
		b.Position[2] = 0
		b.Velocity[2] = 0
		b.AngularVelocity[0] = 0
		b.AngularVelocity[1] = 0
		b.Rotation = AxisAngleZ(TwistAngle(b.Rotation))
	}
}

// limitJoints clamps each limb's angle relative to the torso. A limb outside
// its range gets a restoring torque, is snapped onto the bound and has its
// spin damped.
func (f *Figure) limitJoints(t Tuning) {
	torsoAngle := TwistAngle(f.Torso().Rotation)
	for _, role := range Limbs {
		r, ok := t.limitFor(role)
		if !ok {
			continue
		}
		limb := f.Body(role)
		rel := WrapAngle(TwistAngle(limb.Rotation) - torsoAngle)
		var bound float64
		switch {
		case rel < r.Min-limitTolerance:
			bound = r.Min
		case rel > r.Max+limitTolerance:
			bound = r.Max
		default:
			continue
		}
		excess := bound - rel
		torque := clamp(excess*t.Limits.Stiffness-limb.AngularVelocity.Z()*t.Limits.Damping, -t.Stand.MaxTorque, t.Stand.MaxTorque)
		limb.ApplyTorque(mgl64.Vec3{0, 0, torque})
		limb.Rotation = AxisAngleZ(torsoAngle + bound)
		limb.AngularVelocity[2] *= t.Limits.SnapDecay
	}
}

// enforceCohesion teleports any limb whose anchor has drifted more than tol
// from its torso socket back onto it, inheriting the torso's motion.
func (f *Figure) enforceCohesion(tol float64) {
	torso := f.Torso()
	for _, role := range Limbs {
		sock := Sockets[role]
		limb := f.Body(role)
		want := socketPoint(torso, sock.TorsoOffset)
		have := limb.PointToWorld(sock.PartAnchor())
		if d := want.Sub(have).Len(); d > tol || math.IsNaN(d) {
			placeOnSocket(torso, limb, sock.TorsoOffset, sock.PartOffset)
			limb.Velocity = torso.Velocity
			limb.AngularVelocity = torso.AngularVelocity
		}
	}
}

// lockHead carries the head rigidly on the torso.
func (f *Figure) lockHead() {
	torso, head := f.Torso(), f.Head()
	sock := Sockets[RoleHead]
	head.Rotation = torso.Rotation
	placeOnSocket(torso, head, sock.TorsoOffset, sock.PartOffset)
	head.Velocity = torso.Velocity
	head.AngularVelocity = torso.AngularVelocity
}
