package ragdoll

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// PlaneNormal is the axis every figure body is allowed to rotate about.
var PlaneNormal = mgl64.Vec3{0, 0, 1}

// TwistAngle extracts the signed rotation about the plane normal from q,
// wrapped into (-pi, pi].
func TwistAngle(q mgl64.Quat) float64 {
	return WrapAngle(2 * math.Atan2(q.V[2], q.W))
}

// AxisAngleZ builds a pure plane-normal rotation.
func AxisAngleZ(angle float64) mgl64.Quat {
	return mgl64.QuatRotate(angle, PlaneNormal)
}

// WrapAngle folds a into (-pi, pi].
func WrapAngle(a float64) float64 {
	if math.IsNaN(a) || math.IsInf(a, 0) {
		return a
	}
	a = math.Mod(a, 2*math.Pi)
	if a > math.Pi {
		a -= 2 * math.Pi
	} else if a <= -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

// ShortestAngle is the signed shortest rotation from current to target.
func ShortestAngle(current, target float64) float64 {
	return WrapAngle(target - current)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// easeInOutSine maps t in [0,1] onto a half-cosine ramp.
func easeInOutSine(t float64) float64 {
	return -(math.Cos(math.Pi*t) - 1) / 2
}

func finiteVec(v mgl64.Vec3) bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

func finiteQuat(q mgl64.Quat) bool {
	return finiteVec(q.V) && !math.IsNaN(q.W) && !math.IsInf(q.W, 0)
}
