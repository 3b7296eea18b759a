package ragdoll

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeTuning(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultTuningIsValid(t *testing.T) {
	assert.NoError(t, DefaultTuning().Validate())
}

func TestLoadTuningOverlaysDefaults(t *testing.T) {
	path := writeTuning(t, `
wave:
  repetitions: 3
  top_angle: 2.5
stand:
  max_torque: 1200
`)
	got, err := LoadTuning(path)
	require.NoError(t, err)

	want := DefaultTuning()
	want.Wave.Repetitions = 3
	want.Wave.Top = 2.5
	want.Stand.MaxTorque = 1200
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("LoadTuning mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadTuningErrors(t *testing.T) {
	_, err := LoadTuning(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = LoadTuning(writeTuning(t, "wave:\n  repetitions: 0\n"))
	assert.ErrorIs(t, err, ErrBadTuning)

	_, err = LoadTuning(writeTuning(t, "limits:\n  leg: {min: 1, max: -1}\n"))
	assert.ErrorIs(t, err, ErrBadTuning)

	_, err = LoadTuning(writeTuning(t, "wave: [1, 2"))
	assert.Error(t, err)
}

func TestTuningYAMLRoundTrip(t *testing.T) {
	out, err := DefaultTuning().YAML()
	require.NoError(t, err)
	assert.Contains(t, string(out), "interaction_window_ms: 200")

	var back Tuning
	require.NoError(t, yaml.Unmarshal(out, &back))
	assert.True(t, cmp.Equal(DefaultTuning(), back))
}

func TestLimitFor(t *testing.T) {
	tn := DefaultTuning()
	r, ok := tn.limitFor(RoleLegRight)
	assert.True(t, ok)
	assert.Equal(t, tn.Limits.Leg, r)
	_, ok = tn.limitFor(RoleHead)
	assert.False(t, ok)
}
