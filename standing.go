package ragdoll

import (
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// applyActivePose drives the torso upright and each limb towards its rest
// angle with PD torques. sf scales the gains from limp (0) to fully standing (1).
func (pc *PostureController) applyActivePose(now time.Duration, dt, sf float64) {
	st := pc.tuning.Stand
	torso := pc.figure.Torso()
	applyPDTorque(torso, 0, st.TorsoKp.At(sf), st.TorsoKd, st.MaxTorque, dt)

	limbKp := st.LimbKp.At(sf) * st.LimbKpScale
	limbKd := st.LimbKd.At(sf) * st.LimbKdScale
	torsoAngle := TwistAngle(torso.Rotation)
	for _, role := range Limbs {
		kp := limbKp
		if role == RoleLegLeft || role == RoleLegRight {
			kp = st.LegKp
		}
		applyPDTorque(pc.figure.Body(role), torsoAngle+pc.restOffset(role, now), kp, limbKd, st.MaxTorque, dt)
	}
}

// restOffset is role's target angle relative to the torso, including the
// breathing sway on the arms.
func (pc *PostureController) restOffset(role PartRole, now time.Duration) float64 {
	st := pc.tuning.Stand
	breathe := st.BreathAmp * math.Sin(float64(now)/float64(time.Millisecond)/st.BreathPeriod)
	switch role {
	case RoleArmRight:
		return st.ArmBias - breathe
	case RoleArmLeft:
		return -st.ArmBias + breathe
	}
	return 0
}

// applyPDTorque applies kp*error - kd*omega about the plane normal, clamped
// to maxTorque, and returns the torque applied. The damping term never
// exceeds what would stop the body's spin within dt.
func applyPDTorque(b *RigidBody, target, kp, kd, maxTorque, dt float64) float64 {
	err := ShortestAngle(TwistAngle(b.Rotation), target)
	w := b.AngularVelocity.Z()
	damping := w * kd
	if dt > 0 {
		if limit := math.Abs(w) * b.MomentAbout(PlaneNormal) / dt; math.Abs(damping) > limit {
			damping = math.Copysign(limit, damping)
		}
	}
	torque := clamp(err*kp-damping, -maxTorque, maxTorque)
	b.ApplyTorque(mgl64.Vec3{0, 0, torque})
	return torque
}
