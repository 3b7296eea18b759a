package ragdoll

import (
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

const (
	partLinearDamping  = 0.5
	partAngularDamping = 0.7
	partFriction       = 0.8
)

// Part is one body of a figure. Proxy is an opaque handle for the host's
// renderer and is never read by the simulation.
type Part struct {
	Role  PartRole
	Body  *RigidBody
	Proxy any
}

// Figure is an articulated humanoid: six boxes, four limb joints and the
// controller that keeps it standing. A figure owns its bodies and joints and
// removes them from the world in Destroy.
type Figure struct {
	ID         uuid.UUID
	Username   string
	Controller *PostureController

	world     World
	parts     [len(allRoles)]*Part
	joints    map[PartRole]*PointConstraint
	destroyed bool
}

// NewFigure builds a figure rooted at root (torso centre) and adds it to world.
func NewFigure(world World, username string, root mgl64.Vec3, tuning Tuning, clock *InteractionClock, log Logger) *Figure {
	if log == nil {
		log = NewNopLogger()
	}
	f := &Figure{
		ID:       uuid.New(),
		Username: username,
		world:    world,
		joints:   make(map[PartRole]*PointConstraint, len(Limbs)),
	}
	for _, role := range allRoles {
		spec := PartSpecs[role]
		body := NewBoxBody(role.String(), spec.Size.Mul(PixelScale*0.5), spec.Mass, root.Add(spec.SpawnOffset.Mul(PixelScale)))
		body.Rotation = AxisAngleZ(spec.SpawnAngle)
		body.LinearDamping = partLinearDamping
		body.AngularDamping = partAngularDamping
		body.Friction = partFriction
		world.AddBody(body)
		f.parts[role] = &Part{Role: role, Body: body}
	}

	// The head has no joint; lockHead carries it.
	torso := f.Torso()
	for _, role := range Limbs {
		sock := Sockets[role]
		joint := NewPointConstraint(torso, sock.TorsoAnchor(), f.Body(role), sock.PartAnchor())
		world.AddConstraint(joint)
		f.joints[role] = joint
	}

	f.Controller = newPostureController(f, tuning, clock, log)
	return f
}

// Destroy removes every body and joint of the figure from its world.
func (f *Figure) Destroy() {
	if f.destroyed {
		return
	}
	for _, role := range Limbs {
		if j, ok := f.joints[role]; ok {
			f.world.RemoveConstraint(j)
		}
	}
	for _, p := range f.parts {
		f.world.RemoveBody(p.Body)
	}
	f.destroyed = true
}

func (f *Figure) Destroyed() bool { return f.destroyed }

func (f *Figure) Part(role PartRole) *Part {
	if int(role) < 0 || int(role) >= len(f.parts) {
		return nil
	}
	return f.parts[role]
}

func (f *Figure) Body(role PartRole) *RigidBody {
	if p := f.Part(role); p != nil {
		return p.Body
	}
	return nil
}

func (f *Figure) Torso() *RigidBody { return f.parts[RoleTorso].Body }

func (f *Figure) Head() *RigidBody { return f.parts[RoleHead].Body }

// Parts returns the parts in role order.
func (f *Figure) Parts() []*Part {
	out := make([]*Part, 0, len(f.parts))
	for _, p := range f.parts {
		out = append(out, p)
	}
	return out
}

func (f *Figure) Joint(role PartRole) *PointConstraint { return f.joints[role] }

// RoleOf reports which part rb is, if it belongs to f.
func (f *Figure) RoleOf(rb *RigidBody) (PartRole, bool) {
	for _, p := range f.parts {
		if p.Body == rb {
			return p.Role, true
		}
	}
	return 0, false
}

// Finite reports whether every body has a finite pose.
func (f *Figure) Finite() bool {
	for _, p := range f.parts {
		if !finiteVec(p.Body.Position) || !finiteQuat(p.Body.Rotation) {
			return false
		}
	}
	return true
}

// Grounded reports whether either foot is within a small margin of the
// world's ground height.
func (f *Figure) Grounded() bool {
	ground := f.world.GroundHeight()
	if math.IsInf(ground, -1) {
		return false
	}
	for _, role := range []PartRole{RoleLegLeft, RoleLegRight} {
		body := f.Body(role)
		for _, c := range body.planarCorners() {
			if body.Position.Y()+c.Y() <= ground+0.05 {
				return true
			}
		}
	}
	return false
}

// torsoOffsetFor returns the torso-frame socket currently in use for role.
func (f *Figure) torsoOffsetFor(role PartRole) mgl64.Vec3 {
	if role == RoleArmRight && f.Controller != nil {
		return f.Controller.armRightPivot
	}
	return Sockets[role].TorsoOffset
}

// SocketGap is the distance between role's anchor on the torso and the
// anchor point carried by the part itself.
func (f *Figure) SocketGap(role PartRole) float64 {
	sock, ok := Sockets[role]
	if !ok {
		return 0
	}
	want := socketPoint(f.Torso(), f.torsoOffsetFor(role))
	have := f.Body(role).PointToWorld(sock.PartAnchor())
	return want.Sub(have).Len()
}

// Update runs one control step: plane, joint limits, cohesion, head lock,
// then the posture behaviour.
func (f *Figure) Update(now time.Duration, dt float64) {
	if f.destroyed {
		return
	}
	f.enforcePlane()
	f.limitJoints(f.Controller.tuning)
	f.enforceCohesion(f.Controller.tuning.CohesionTolerance)
	f.lockHead()
	f.Controller.Update(now, dt)
}
