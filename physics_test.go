package ragdoll

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhysicsIntegration(t *testing.T) {
	world := NewPhysicsWorld()
	world.Gravity = mgl64.Vec3{0, -10, 0}

	rb := NewBoxBody("box", mgl64.Vec3{0.5, 0.5, 0.5}, 1, mgl64.Vec3{0, 10, 0})
	world.AddBody(rb)

	for i := 0; i < 10; i++ {
		world.Step(0.1)
	}

	if rb.Position.Y() >= 10 {
		t.Errorf("body should have fallen, but Y = %f", rb.Position.Y())
	}
	if rb.Velocity.Y() >= 0 {
		t.Errorf("body should have negative velocity, but VY = %f", rb.Velocity.Y())
	}
}

func TestPhysicsFloorCollision(t *testing.T) {
	world := NewPhysicsWorld()
	world.AddBoundary(Plane{Normal: mgl64.Vec3{0, 1, 0}, Offset: 0, Friction: 0.8})

	rb := NewBoxBody("box", mgl64.Vec3{0.5, 0.5, 0.5}, 1, mgl64.Vec3{0, 3, 0})
	rb.Velocity = mgl64.Vec3{0, -10, 0}
	world.AddBody(rb)

	for i := 0; i < 120; i++ {
		world.Step(1.0 / 60)
	}

	// Resting on the floor: centre one half-extent above it.
	assert.InDelta(t, 0.5, rb.Position.Y(), 0.05, "body fell through or floats above the floor")
	assert.Less(t, rb.Velocity.Len(), 0.1)
}

func TestPhysicsStaticAndKinematicBodiesDoNotMove(t *testing.T) {
	world := NewPhysicsWorld()
	static := NewBoxBody("static", mgl64.Vec3{1, 1, 1}, 0, mgl64.Vec3{})
	kin := NewKinematicBody("cursor", mgl64.Vec3{1, 2, 0})
	kin.Velocity = mgl64.Vec3{5, 0, 0}
	world.AddBody(static)
	world.AddBody(kin)

	world.Step(0.1)
	static.ApplyImpulse(mgl64.Vec3{100, 0, 0}, mgl64.Vec3{})

	assert.Equal(t, BodyStatic, static.Kind)
	assert.Equal(t, mgl64.Vec3{}, static.Position)
	assert.Equal(t, mgl64.Vec3{}, static.Velocity)
	assert.Equal(t, mgl64.Vec3{1, 2, 0}, kin.Position)
}

func TestPhysicsDamping(t *testing.T) {
	world := NewPhysicsWorld()
	world.Gravity = mgl64.Vec3{}
	rb := NewBoxBody("box", mgl64.Vec3{0.5, 0.5, 0.5}, 1, mgl64.Vec3{})
	rb.LinearDamping = 0.5
	rb.Velocity = mgl64.Vec3{10, 0, 0}
	world.AddBody(rb)

	for i := 0; i < 10; i++ {
		world.Step(0.1)
	}
	assert.InDelta(t, 5, rb.Velocity.X(), 1e-9)
}

func TestPhysicsTorqueHeldForWholeFrame(t *testing.T) {
	world := NewPhysicsWorld()
	world.Gravity = mgl64.Vec3{}
	rb := NewBoxBody("torso", mgl64.Vec3{0.4, 0.6, 0.2}, 12, mgl64.Vec3{})
	world.AddBody(rb)

	inertia := rb.MomentAbout(PlaneNormal)
	assert.InDelta(t, 12.0/3*(0.16+0.36), inertia, 1e-12)

	// 1/30 s spans four substeps; the torque must act over all of them.
	rb.ApplyTorque(mgl64.Vec3{0, 0, 100})
	world.Step(1.0 / 30)

	assert.InDelta(t, 100/inertia/30, rb.AngularVelocity.Z(), 1e-9)
	assert.Equal(t, mgl64.Vec3{}, rb.Torque(), "torque accumulator should be cleared after a step")
}

func TestPhysicsIgnoresInvalidDt(t *testing.T) {
	world := NewPhysicsWorld()
	rb := NewBoxBody("box", mgl64.Vec3{0.5, 0.5, 0.5}, 1, mgl64.Vec3{0, 1, 0})
	world.AddBody(rb)

	for _, dt := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		world.Step(dt)
	}
	assert.Equal(t, mgl64.Vec3{0, 1, 0}, rb.Position)
}

func TestPointConstraintHoldsPendulum(t *testing.T) {
	world := NewPhysicsWorld()
	anchor := NewBoxBody("anchor", mgl64.Vec3{0.1, 0.1, 0.1}, 0, mgl64.Vec3{0, 5, 0})
	bob := NewBoxBody("bob", mgl64.Vec3{0.2, 0.6, 0.2}, 2, mgl64.Vec3{0.6, 5, 0})
	bob.Rotation = AxisAngleZ(math.Pi / 2)
	world.AddBody(anchor)
	world.AddBody(bob)

	joint := NewPointConstraint(anchor, mgl64.Vec3{}, bob, mgl64.Vec3{0, 0.6, 0})
	world.AddConstraint(joint)
	require.InDelta(t, 0, joint.Separation().Len(), 1e-9)

	lowest := bob.Position.Y()
	for i := 0; i < 120; i++ {
		world.Step(1.0 / 60)
		require.Less(t, joint.Separation().Len(), 0.05, "joint drifted at step %d", i)
		lowest = math.Min(lowest, bob.Position.Y())
	}
	assert.Less(t, lowest, 4.5, "bob should swing down")
}

func TestRemoveBodyDropsAttachedConstraints(t *testing.T) {
	world := NewPhysicsWorld()
	a := NewBoxBody("a", mgl64.Vec3{1, 1, 1}, 1, mgl64.Vec3{})
	b := NewBoxBody("b", mgl64.Vec3{1, 1, 1}, 1, mgl64.Vec3{2, 0, 0})
	c := NewBoxBody("c", mgl64.Vec3{1, 1, 1}, 1, mgl64.Vec3{4, 0, 0})
	world.AddBody(a)
	world.AddBody(b)
	world.AddBody(c)
	ab := NewPointConstraint(a, mgl64.Vec3{1, 0, 0}, b, mgl64.Vec3{-1, 0, 0})
	bc := NewPointConstraint(b, mgl64.Vec3{1, 0, 0}, c, mgl64.Vec3{-1, 0, 0})
	world.AddConstraint(ab)
	world.AddConstraint(bc)

	world.RemoveBody(a)

	assert.False(t, world.HasBody(a))
	assert.False(t, world.HasConstraint(ab))
	assert.True(t, world.HasConstraint(bc))
	assert.Len(t, world.Bodies(), 2)
}

func TestGroundHeight(t *testing.T) {
	world := NewPhysicsWorld()
	assert.True(t, math.IsInf(world.GroundHeight(), -1))
	world.SetBox(-15, 16, -28, 28, 0.8)
	assert.InDelta(t, -15, world.GroundHeight(), 1e-12)
	assert.Len(t, world.Boundaries(), 4)
}
