package ragdoll

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// poseStatue holds the figure kinematically at its home position, blending
// the torso upright and each limb onto its rest angle over the blend window.
func (pc *PostureController) poseStatue(now time.Duration) {
	f := pc.figure
	torso := f.Torso()

	alpha := 1.0
	if blend := pc.tuning.Stability.BlendMs; blend > 0 {
		if t := msSince(now, pc.stableStart); t < blend {
			alpha = easeInOutSine(t / blend)
		}
	}

	torso.Position = pc.homePos
	torso.Rotation = AxisAngleZ(blendAngle(pc.homeAngle, 0, alpha))
	torso.Velocity = mgl64.Vec3{}
	torso.AngularVelocity = mgl64.Vec3{}

	torsoAngle := TwistAngle(torso.Rotation)
	for _, role := range Limbs {
		target := torsoAngle + pc.restOffset(role, now)
		pc.pinLimb(role, blendAngle(pc.limbStart[role], target, alpha), Sockets[role].TorsoOffset)
	}
}

// pinLimb sets role's angle and seats it on the torso at torsoOffset.
func (pc *PostureController) pinLimb(role PartRole, angle float64, torsoOffset mgl64.Vec3) {
	limb := pc.figure.Body(role)
	limb.Rotation = AxisAngleZ(angle)
	placeOnSocket(pc.figure.Torso(), limb, torsoOffset, Sockets[role].PartOffset)
	limb.Velocity = mgl64.Vec3{}
	limb.AngularVelocity = mgl64.Vec3{}
}

// blendAngle interpolates along the shorter arc from one angle to another.
func blendAngle(from, to, alpha float64) float64 {
	if alpha >= 1 {
		return to
	}
	return from + ShortestAngle(from, to)*alpha
}
