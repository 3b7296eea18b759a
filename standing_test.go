package ragdoll

import (
	"math"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPDTorque(t *testing.T) {
	b := NewBoxBody("torso", mgl64.Vec3{0.4, 0.6, 0.2}, 12, mgl64.Vec3{})

	torque := applyPDTorque(b, 0.5, 100, 0, 1500, 1.0/60)
	assert.InDelta(t, 50, torque, 1e-9)

	// Shortest path across the +-pi seam.
	b.Rotation = AxisAngleZ(3.0)
	torque = applyPDTorque(b, -3.0, 100, 0, 1500, 1.0/60)
	assert.InDelta(t, 100*(2*math.Pi-6), torque, 1e-6)

	b.Rotation = mgl64.QuatIdent()
	torque = applyPDTorque(b, 2, 1e6, 0, 1500, 1.0/60)
	assert.InDelta(t, 1500, torque, 1e-12)
}

func TestPDDampingCannotReverseSpin(t *testing.T) {
	b := NewBoxBody("torso", mgl64.Vec3{0.4, 0.6, 0.2}, 12, mgl64.Vec3{})
	b.AngularVelocity = mgl64.Vec3{0, 0, 1}
	dt := 1.0 / 60

	torque := applyPDTorque(b, 0, 0, 1e6, 1500, dt)

	limit := b.MomentAbout(PlaneNormal) / dt
	assert.InDelta(t, -limit, torque, 1e-9)
	// One tick of that torque stops the body and no more.
	assert.InDelta(t, 0, b.AngularVelocity.Z()+torque/b.MomentAbout(PlaneNormal)*dt, 1e-9)
}

// The figure starts inverted in zero gravity so only the standing controller
// acts on it; the drop under gravity is covered by TestDroppedFigureBecomesStable.
func TestStandingRightsInvertedFigure(t *testing.T) {
	sim, f := newTestSim(t, 0)
	rotateFigure(f, math.Pi)
	require.InDelta(t, math.Pi, math.Abs(TwistAngle(f.Torso().Rotation)), 1e-9)

	for i := 0; i < 120; i++ {
		sim.Step(1.0 / 60)
	}

	assert.Equal(t, 2*time.Second, sim.Now().Round(time.Millisecond))
	assert.Less(t, math.Abs(TwistAngle(f.Torso().Rotation)), 0.3)
	assert.Equal(t, 1.0, f.Controller.StandFactor())
	assert.Contains(t, []PostureState{FallingOrRising, StableIdle}, f.Controller.State())
}

func TestStandFactorSaturates(t *testing.T) {
	sim, f := newTestSim(t, 0)
	for i := 0; i < 60; i++ {
		f.Controller.updateRising(sim.Now(), 1.0/60)
	}
	assert.Equal(t, 1.0, f.Controller.StandFactor())
}

// At 60 Hz the torso's moment is small enough that the derivative cap, not
// TorsoKd, sets its damping.
func TestTorsoDampingIsCappedAtSixtyHertz(t *testing.T) {
	_, f := newBareFigure(t)
	torso := f.Torso()
	torso.AngularVelocity = mgl64.Vec3{0, 0, 2}
	dt := 1.0 / 60
	kd := DefaultTuning().Stand.TorsoKd

	torque := applyPDTorque(torso, 0, 0, kd, 1500, dt)

	effective := torso.MomentAbout(PlaneNormal) / dt
	require.Less(t, effective, kd)
	assert.InDelta(t, -2*effective, torque, 1e-9)
}

func TestStandFactorDecaysWhileTumbling(t *testing.T) {
	sim, f := newTestSim(t, 0)
	f.Controller.standFactor = 1
	for _, p := range f.Parts() {
		p.Body.Velocity = mgl64.Vec3{6, 0, 0}
	}

	sim.Step(0.1)

	assert.InDelta(t, 0.8, f.Controller.StandFactor(), 1e-9)
}
