package persist

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/ragdoll"
)

func testSnapshot(t *testing.T, username string) ragdoll.FigureSnapshot {
	t.Helper()
	sim := ragdoll.NewSimulation(ragdoll.DefaultSimConfig(), ragdoll.DefaultTuning(), nil)
	f := sim.Spawn(username, mgl64.Vec3{1.5, -2.25, 0})
	f.Torso().Velocity = mgl64.Vec3{0.3, -1.7, 0}
	f.Torso().AngularVelocity = mgl64.Vec3{0, 0, 0.42}
	return f.Snapshot()
}

func openStores(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()
	stores := map[string]Store{}
	for _, kind := range []string{"file", "sqlite"} {
		path := filepath.Join(dir, kind)
		if kind == "sqlite" {
			path = filepath.Join(dir, "db", "sessions.db")
		}
		s, err := Open(kind, path)
		require.NoError(t, err, kind)
		t.Cleanup(func() { _ = s.Close() })
		stores[kind] = s
	}
	return stores
}

func TestStoreSaveTake(t *testing.T) {
	ctx := context.Background()
	for kind, s := range openStores(t) {
		t.Run(kind, func(t *testing.T) {
			snap := testSnapshot(t, "alex")
			require.NoError(t, s.Save(ctx, "session-1", snap))

			got, err := s.Take(ctx, "session-1")
			require.NoError(t, err)
			if diff := cmp.Diff(snap, got); diff != "" {
				t.Errorf("Take mismatch (-want +got):\n%s", diff)
			}

			_, err = s.Take(ctx, "session-1")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStoreOverwriteAndDelete(t *testing.T) {
	ctx := context.Background()
	for kind, s := range openStores(t) {
		t.Run(kind, func(t *testing.T) {
			require.NoError(t, s.Save(ctx, "k", testSnapshot(t, "first")))
			require.NoError(t, s.Save(ctx, "k", testSnapshot(t, "second")))
			got, err := s.Take(ctx, "k")
			require.NoError(t, err)
			assert.Equal(t, "second", got.Username)

			assert.ErrorIs(t, s.Delete(ctx, "k"), ErrNotFound)
			require.NoError(t, s.Save(ctx, "k", testSnapshot(t, "third")))
			require.NoError(t, s.Delete(ctx, "k"))
			_, err = s.Take(ctx, "k")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStoreRejectsBadKeys(t *testing.T) {
	ctx := context.Background()
	for kind, s := range openStores(t) {
		t.Run(kind, func(t *testing.T) {
			for _, key := range []string{"", "../escape", "a b", string(make([]byte, 65))} {
				assert.ErrorIs(t, s.Save(ctx, key, ragdoll.FigureSnapshot{}), ErrInvalidKey)
				_, err := s.Take(ctx, key)
				assert.ErrorIs(t, err, ErrInvalidKey)
			}
		})
	}
}

func TestFileStoreHonoursCancelledContext(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Save(ctx, "k", ragdoll.FigureSnapshot{}), context.Canceled)
}

func TestOpenUnknownKind(t *testing.T) {
	_, err := Open("redis", "x")
	assert.Error(t, err)
	_, err = NewFileStore("")
	assert.Error(t, err)
	_, err = OpenSQLite("")
	assert.Error(t, err)
}

func TestValidateKey(t *testing.T) {
	assert.NoError(t, ValidateKey("9b2f6c1e-3a4d-4e5f-8a9b-0c1d2e3f4a5b"))
	assert.NoError(t, ValidateKey("under_score"))
	assert.ErrorIs(t, ValidateKey("dot.ted"), ErrInvalidKey)
}
