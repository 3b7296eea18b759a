package ragdoll

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

// newTestSim returns a simulation with one figure at the default spawn.
func newTestSim(t *testing.T, gravity float64) (*Simulation, *Figure) {
	t.Helper()
	cfg := DefaultSimConfig()
	cfg.Gravity = gravity
	sim := NewSimulation(cfg, DefaultTuning(), nil)
	return sim, sim.Reset()
}

// rotateFigure turns every part of f by angle about the torso centre.
func rotateFigure(f *Figure, angle float64) {
	pivot := f.Torso().Position
	rot := AxisAngleZ(angle)
	for _, p := range f.Parts() {
		b := p.Body
		b.Position = pivot.Add(rot.Rotate(b.Position.Sub(pivot)))
		b.Rotation = rot.Mul(b.Rotation).Normalize()
	}
}

func translateFigure(f *Figure, d mgl64.Vec3) {
	for _, p := range f.Parts() {
		p.Body.Position = p.Body.Position.Add(d)
	}
}

func runFor(sim *Simulation, seconds, hz float64) {
	n := int(seconds*hz + 0.5)
	for i := 0; i < n; i++ {
		sim.Step(1 / hz)
	}
}

// restingSim returns a simulation whose figure has been restored from its own
// zero-velocity spawn pose, so it starts out STABLE_IDLE.
func restingSim(t *testing.T) (*Simulation, *Figure) {
	t.Helper()
	sim, f := newTestSim(t, -30)
	f = sim.Restore(f.Snapshot())
	if f.Controller.State() != StableIdle {
		t.Fatalf("restored figure is %s, want STABLE_IDLE", f.Controller.State())
	}
	return sim, f
}
