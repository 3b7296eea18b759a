package ragdoll

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	sim, f := newTestSim(t, -30)
	runFor(sim, 0.5, 60)
	want := f.Snapshot()
	require.Len(t, want.Parts, 6)

	other := NewSimulation(DefaultSimConfig(), DefaultTuning(), nil)
	restored := other.Restore(want)

	got := restored.Snapshot()
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("restored snapshot mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "Steve", restored.Username)
	assert.Len(t, other.Figures(), 1)
}

func TestRestoreMissingPartKeepsSpawnPose(t *testing.T) {
	sim, f := newTestSim(t, -30)
	snap := f.Snapshot()
	torso := snap.Parts["torso"]
	torso.Pos = Vec3State{X: 2, Y: -3}
	snap.Parts["torso"] = torso
	delete(snap.Parts, "head")
	snap.Parts["tail"] = PartState{}

	restored := sim.Restore(snap)

	head := restored.Head()
	assert.InDelta(t, 2, head.Position.X(), 1e-12)
	assert.InDelta(t, -3+1.0, head.Position.Y(), 1e-12)
	assert.Len(t, sim.Figures(), 1, "restore replaces existing figures")
}

func TestRestorePicksPosture(t *testing.T) {
	sim, f := newTestSim(t, -30)
	still := f.Snapshot()
	assert.Equal(t, StableIdle, sim.Restore(still).Controller.State())

	moving := f.Snapshot()
	torso := moving.Parts["torso"]
	torso.Vel = Vec3State{X: 3}
	moving.Parts["torso"] = torso
	restored := sim.Restore(moving)
	assert.Equal(t, FallingOrRising, restored.Controller.State())
	assert.Equal(t, 0.0, restored.Controller.StandFactor())

	rotateFigure(restored, 0.5)
	for _, p := range restored.Parts() {
		p.Body.Velocity = mgl64.Vec3{}
	}
	assert.Equal(t, FallingOrRising, sim.Restore(restored.Snapshot()).Controller.State(), "tilted torso is not upright")
}

func TestSnapshotJSON(t *testing.T) {
	raw := []byte(`{
		"username": "alex",
		"parts": {
			"torso": {
				"pos": {"x": 1, "y": 2, "z": 0},
				"quat": {"x": 0, "y": 0, "z": 0, "w": 0},
				"vel": {"x": 0.5, "y": 0, "z": 0},
				"angVel": {"x": 0, "y": 0, "z": 0.25}
			}
		}
	}`)
	snap, err := ParseSnapshot(raw)
	require.NoError(t, err)
	assert.Equal(t, "alex", snap.Username)
	torso := snap.Parts["torso"]
	assert.Equal(t, mgl64.Vec3{1, 2, 0}, torso.Pos.Vec3())
	assert.Equal(t, mgl64.QuatIdent(), torso.Quat.Quat(), "zero quaternion reads as identity")
	assert.Equal(t, 0.25, torso.AngVel.Z)

	out, err := snap.MarshalIndent()
	require.NoError(t, err)
	assert.Contains(t, string(out), `"angVel"`)

	_, err = ParseSnapshot([]byte(`{"parts": 3}`))
	assert.Error(t, err)
}
