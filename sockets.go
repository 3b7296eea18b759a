package ragdoll

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// PixelScale converts figure pixels into world units.
const PixelScale = 0.1

type PartRole int

const (
	RoleHead PartRole = iota
	RoleTorso
	RoleArmLeft
	RoleArmRight
	RoleLegLeft
	RoleLegRight
)

var allRoles = [...]PartRole{RoleHead, RoleTorso, RoleArmLeft, RoleArmRight, RoleLegLeft, RoleLegRight}

// Limbs are the four jointed parts, in enforcement order.
var Limbs = [...]PartRole{RoleArmRight, RoleArmLeft, RoleLegLeft, RoleLegRight}

var roleNames = map[PartRole]string{
	RoleHead:     "head",
	RoleTorso:    "torso",
	RoleArmLeft:  "armLeft",
	RoleArmRight: "armRight",
	RoleLegLeft:  "legLeft",
	RoleLegRight: "legRight",
}

func (r PartRole) String() string {
	if n, ok := roleNames[r]; ok {
		return n
	}
	return fmt.Sprintf("PartRole(%d)", int(r))
}

func ParseRole(s string) (PartRole, error) {
	for r, n := range roleNames {
		if n == s {
			return r, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownRole, s)
}

// Socket is where a part attaches to the torso, in unscaled pixels.
type Socket struct {
	TorsoOffset mgl64.Vec3
	PartOffset  mgl64.Vec3
}

// TorsoAnchor is the torso-frame attachment point in world units.
func (s Socket) TorsoAnchor() mgl64.Vec3 { return s.TorsoOffset.Mul(PixelScale) }

// PartAnchor is the part-frame attachment point in world units.
func (s Socket) PartAnchor() mgl64.Vec3 { return s.PartOffset.Mul(PixelScale) }

// Sockets is the only socket table. Joint creation, cohesion and both
// kinematic posers read it.
var Sockets = map[PartRole]Socket{
	RoleHead:     {TorsoOffset: mgl64.Vec3{0, 6.2, 0}, PartOffset: mgl64.Vec3{0, -4.2, 0}},
	RoleArmLeft:  {TorsoOffset: mgl64.Vec3{-4.0, 5.5, 0}, PartOffset: mgl64.Vec3{1.5, 6.0, 0}},
	RoleArmRight: {TorsoOffset: mgl64.Vec3{4.0, 5.5, 0}, PartOffset: mgl64.Vec3{-1.5, 6.0, 0}},
	RoleLegLeft:  {TorsoOffset: mgl64.Vec3{-2.3, -6.2, 0}, PartOffset: mgl64.Vec3{0, 6.2, 0}},
	RoleLegRight: {TorsoOffset: mgl64.Vec3{2.3, -6.2, 0}, PartOffset: mgl64.Vec3{0, 6.2, 0}},
}

// During a wave the right shoulder sits further out on the torso, and drops
// to WaveLowPivot once the arm is raised past the wave pivot angle.
var (
	WavePivot    = mgl64.Vec3{4.5, 5.5, 0}
	WaveLowPivot = mgl64.Vec3{4.5, 4.0, 0}
)

// PartSpec describes a body part's box and where it spawns relative to the
// figure's root position (pixels).
type PartSpec struct {
	Size        mgl64.Vec3
	Mass        float64
	SpawnOffset mgl64.Vec3
	SpawnAngle  float64
}

var PartSpecs = map[PartRole]PartSpec{
	RoleHead:     {Size: mgl64.Vec3{8, 8, 8}, Mass: 1.2, SpawnOffset: mgl64.Vec3{0, 10, 0}},
	RoleTorso:    {Size: mgl64.Vec3{8, 12, 4}, Mass: 12},
	RoleArmLeft:  {Size: mgl64.Vec3{3, 12, 4}, Mass: 2, SpawnOffset: mgl64.Vec3{-5.5, 0, 0}, SpawnAngle: -0.10},
	RoleArmRight: {Size: mgl64.Vec3{3, 12, 4}, Mass: 2, SpawnOffset: mgl64.Vec3{5.5, 0, 0}, SpawnAngle: 0.10},
	RoleLegLeft:  {Size: mgl64.Vec3{4, 12, 4}, Mass: 6, SpawnOffset: mgl64.Vec3{-2.0, -12, 0}},
	RoleLegRight: {Size: mgl64.Vec3{4, 12, 4}, Mass: 6, SpawnOffset: mgl64.Vec3{2.0, -12, 0}},
}

// socketPoint returns the world-space anchor on the torso for torsoOffset (pixels).
func socketPoint(torso *RigidBody, torsoOffset mgl64.Vec3) mgl64.Vec3 {
	return torso.Position.Add(torso.Rotation.Rotate(torsoOffset.Mul(PixelScale)))
}

// placeOnSocket positions part so its anchor coincides with the torso anchor,
// keeping the part's current orientation.
func placeOnSocket(torso, part *RigidBody, torsoOffset, partOffset mgl64.Vec3) {
	anchor := socketPoint(torso, torsoOffset)
	part.Position = anchor.Sub(part.Rotation.Rotate(partOffset.Mul(PixelScale)))
}
